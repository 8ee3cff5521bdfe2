// Package auth verifies bearer tokens and carries the caller's identity through request contexts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingToken     = errors.New("missing authentication token")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrNoUser           = errors.New("user not found in context")
)

// Claims represents the JWT claims issued by the identity provider
type Claims struct {
	UserID string   `json:"sub"`
	Email  string   `json:"email,omitempty"`
	Name   string   `json:"name,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT validation configuration
type JWTConfig struct {
	SigningMethod string   // RS256 or HS256
	PublicKey     string   // PEM, for RS256
	SecretKey     string   // for HS256
	Issuer        string   // expected issuer, empty skips the check
	Audience      []string // accepted audiences, empty skips the check
}

// JWTValidator handles JWT validation
type JWTValidator struct {
	key           interface{}
	signingMethod jwt.SigningMethod
	issuer        string
	audience      []string
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(config JWTConfig) (*JWTValidator, error) {
	v := &JWTValidator{issuer: config.Issuer, audience: config.Audience}

	switch config.SigningMethod {
	case "RS256":
		if config.PublicKey == "" {
			return nil, errors.New("public key required for RS256")
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(config.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		v.signingMethod, v.key = jwt.SigningMethodRS256, key
	case "HS256", "":
		if config.SecretKey == "" {
			return nil, errors.New("secret key required for HS256")
		}
		v.signingMethod, v.key = jwt.SigningMethodHS256, []byte(config.SecretKey)
	default:
		return nil, fmt.Errorf("unsupported signing method: %s", config.SigningMethod)
	}
	return v, nil
}

// ValidateToken validates a JWT and returns its claims
func (v *JWTValidator) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokenString), "Bearer "))
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, fmt.Errorf("%w: invalid issuer", ErrInvalidClaims)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidClaims
	}

	if len(v.audience) > 0 && !slices.ContainsFunc(v.audience, func(aud string) bool {
		return slices.Contains(claims.Audience, aud)
	}) {
		return nil, fmt.Errorf("%w: invalid audience", ErrInvalidClaims)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user ID", ErrInvalidClaims)
	}
	return claims, nil
}

// JWTGeneratorConfig holds JWT generator configuration
type JWTGeneratorConfig struct {
	SigningMethod string // RS256 or HS256
	PrivateKey    string // PEM, for RS256
	SecretKey     string // for HS256
	Issuer        string
	Audience      []string
	ExpiryTime    time.Duration
}

// JWTGenerator mints tokens. Used by the CLI and tests; production tokens come
// from the identity provider.
type JWTGenerator struct {
	key           interface{}
	signingMethod jwt.SigningMethod
	issuer        string
	audience      []string
	expiryTime    time.Duration
}

// NewJWTGenerator creates a new JWT generator
func NewJWTGenerator(config JWTGeneratorConfig) (*JWTGenerator, error) {
	g := &JWTGenerator{issuer: config.Issuer, audience: config.Audience, expiryTime: config.ExpiryTime}
	if g.expiryTime <= 0 {
		g.expiryTime = time.Hour
	}

	switch config.SigningMethod {
	case "RS256":
		if config.PrivateKey == "" {
			return nil, errors.New("private key required for RS256")
		}
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(config.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		g.signingMethod, g.key = jwt.SigningMethodRS256, key
	case "HS256", "":
		if config.SecretKey == "" {
			return nil, errors.New("secret key required for HS256")
		}
		g.signingMethod, g.key = jwt.SigningMethodHS256, []byte(config.SecretKey)
	default:
		return nil, fmt.Errorf("unsupported signing method: %s", config.SigningMethod)
	}
	return g, nil
}

// GenerateToken signs a token for the given identity
func (g *JWTGenerator) GenerateToken(userID, email, name string, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Name:   name,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   userID,
			Audience:  g.audience,
			ExpiresAt: jwt.NewNumericDate(now.Add(g.expiryTime)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(g.signingMethod, claims).SignedString(g.key)
}

// UserContext is the authenticated caller
type UserContext struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email,omitempty"`
	Name   string   `json:"name,omitempty"`
	Roles  []string `json:"roles,omitempty"`
}

// NewUserContext builds a UserContext from verified claims
func NewUserContext(c *Claims) *UserContext {
	roles := c.Roles
	if len(roles) == 0 {
		roles = []string{"authenticated"}
	}
	return &UserContext{UserID: c.UserID, Email: c.Email, Name: c.Name, Roles: roles}
}

// HasRole reports whether the user carries role
func (u *UserContext) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

type contextKey string

const (
	userContextKey contextKey = "user"
	userSlotKey    contextKey = "user-slot"
)

// userSlot lets middleware outside the auth gate see the user it sets
type userSlot struct {
	user *UserContext
}

// WithUserSlot prepares ctx so that a later SetUserInContext on a derived
// context is also visible through ctx
func WithUserSlot(ctx context.Context) context.Context {
	return context.WithValue(ctx, userSlotKey, &userSlot{})
}

// GetUserFromContext extracts the user placed by the auth middleware
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	if user, ok := ctx.Value(userContextKey).(*UserContext); ok && user != nil {
		return user, nil
	}
	if slot, ok := ctx.Value(userSlotKey).(*userSlot); ok && slot.user != nil {
		return slot.user, nil
	}
	return nil, ErrNoUser
}

// SetUserInContext adds user to context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	if slot, ok := ctx.Value(userSlotKey).(*userSlot); ok {
		slot.user = user
	}
	return context.WithValue(ctx, userContextKey, user)
}
