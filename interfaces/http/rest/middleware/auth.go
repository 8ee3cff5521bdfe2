package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"recipebook/pkg/auth"
	pkgerrors "recipebook/pkg/errors"
)

// Headers carrying identity verified by the API Gateway JWT authorizer.
// The Lambda entrypoint strips client-supplied copies before setting them.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
	HeaderUserRoles = "X-User-Roles"
)

// Authenticator is the authentication gate in front of the API routes
type Authenticator struct {
	validator   *auth.JWTValidator
	ipLimiter   auth.RateLimiter
	userLimiter auth.RateLimiter
	// trustGateway accepts identity headers instead of a bearer token
	trustGateway bool
	errors       *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewAuthenticator creates the gate. Limiters may be nil to disable rate limiting.
func NewAuthenticator(
	validator *auth.JWTValidator,
	ipLimiter, userLimiter auth.RateLimiter,
	trustGateway bool,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *Authenticator {
	return &Authenticator{
		validator:    validator,
		ipLimiter:    ipLimiter,
		userLimiter:  userLimiter,
		trustGateway: trustGateway,
		errors:       errorHandler,
		logger:       logger,
	}
}

// Middleware rejects unauthenticated or rate limited requests and
// places the caller's UserContext in the request context
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.allow(r, a.ipLimiter, getClientIP(r)) {
			a.errors.Handle(w, r, pkgerrors.NewRateLimitError("ip"))
			return
		}

		userCtx, err := a.identify(r)
		if err != nil {
			a.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(unauthorizedMessage(err)))
			return
		}

		if !a.allow(r, a.userLimiter, userCtx.UserID) {
			a.errors.Handle(w, r, pkgerrors.NewRateLimitError("user"))
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), userCtx)))
	})
}

func (a *Authenticator) identify(r *http.Request) (*auth.UserContext, error) {
	if a.trustGateway {
		if userID := r.Header.Get(HeaderUserID); userID != "" {
			return gatewayUser(r, userID), nil
		}
	}

	token := extractToken(r)
	if token == "" {
		return nil, auth.ErrMissingToken
	}
	claims, err := a.validator.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return auth.NewUserContext(claims), nil
}

// allow fails open when the limiter backend errors
func (a *Authenticator) allow(r *http.Request, limiter auth.RateLimiter, key string) bool {
	if limiter == nil {
		return true
	}
	allowed, err := limiter.Allow(r.Context(), key)
	if err != nil {
		a.logger.Warn("Rate limiter unavailable", zap.String("key", key), zap.Error(err))
	}
	return allowed
}

func gatewayUser(r *http.Request, userID string) *auth.UserContext {
	var roles []string
	for _, role := range strings.Split(r.Header.Get(HeaderUserRoles), ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		roles = []string{"authenticated"}
	}
	return &auth.UserContext{
		UserID: userID,
		Email:  r.Header.Get(HeaderUserEmail),
		Name:   r.Header.Get(HeaderUserName),
		Roles:  roles,
	}
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "Missing authorization header"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "Invalid token signature"
	default:
		return "Invalid token"
	}
}

// extractToken returns the bearer token of the Authorization header
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// getClientIP returns the request's remote IP; chi's RealIP has already
// applied X-Forwarded-For / X-Real-IP
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
