package rest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"recipebook/infrastructure/di"
	"recipebook/interfaces/http/rest/handlers"
	"recipebook/interfaces/http/rest/middleware"
	"recipebook/pkg/auth"
	pkgerrors "recipebook/pkg/errors"
)

const readinessTimeout = 3 * time.Second

// Router creates and configures the HTTP router
type Router struct {
	container *di.Container
	errors    *pkgerrors.ErrorHandler
	logger    *zap.Logger
	// imageClient overrides the thumbnail fetcher in tests
	imageClient handlers.HTTPDoer
}

// NewRouter creates a new router instance
func NewRouter(container *di.Container) *Router {
	return &Router{
		container: container,
		errors:    pkgerrors.NewErrorHandler(container.Logger, container.Config.Debug),
		logger:    container.Logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	c := rt.container
	cfg := c.Config

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Metrics(c.Collector))
	router.Use(c.Tracer.Middleware)
	if cfg.RequestTimeout > 0 {
		router.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}
	router.Use(versionMiddleware)

	if cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Location"},
			AllowCredentials: !containsWildcard(cfg.CORSAllowedOrigins),
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Method(http.MethodGet, "/metrics", c.Collector.Handler())

	// API v1 routes (legacy - redirects to v2)
	router.Route("/api/v1", func(r chi.Router) {
		r.HandleFunc("/*", func(w http.ResponseWriter, req *http.Request) {
			target := strings.Replace(req.URL.Path, "/api/v1", "/api/v2", 1)
			if req.URL.RawQuery != "" {
				target += "?" + req.URL.RawQuery
			}
			http.Redirect(w, req, target, http.StatusPermanentRedirect)
		})
	})

	authenticator := middleware.NewAuthenticator(
		c.JWTValidator,
		c.RateLimiters.IP,
		c.RateLimiters.User,
		cfg.IsLambda,
		rt.errors,
		rt.logger,
	)
	recipeHandler := handlers.NewRecipeHandler(c.CommandBus, c.QueryBus, c.Validator, rt.errors, rt.logger)
	profileHandler := handlers.NewProfileHandler(c.QueryBus, rt.errors, rt.logger)
	categoryHandler := handlers.NewCategoryHandler(c.DomainConfig, rt.errors, rt.logger)
	imageHandler := handlers.NewImageHandler(rt.imageClient, c.Cache, cfg.ThumbnailMaxBytes, rt.errors, rt.logger)

	router.Route("/api/v2", func(r chi.Router) {
		r.Use(authenticator.Middleware)
		r.Use(rt.annotateTrace)

		r.Get("/categories", categoryHandler.ListCategories)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.ListRecipes)
			r.Post("/", recipeHandler.CreateRecipe)
			r.Get("/{recipeID}", recipeHandler.GetRecipe)
			r.Delete("/{recipeID}", recipeHandler.DeleteRecipe)
		})

		r.Route("/me", func(r chi.Router) {
			r.Get("/", profileHandler.Me)
			r.Get("/recipes", profileHandler.MyRecipes)
		})

		r.Get("/images/thumbnail", imageHandler.Thumbnail)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck pings the configured store
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), readinessTimeout)
	defer cancel()

	if err := rt.container.Health.Ping(ctx); err != nil {
		rt.logger.Warn("Readiness check failed", zap.Error(err))
		rt.errors.HandleStatus(w, req, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready","storage":"` + rt.container.Config.StorageBackend + `"}`))
}

// annotateTrace tags the request segment with the caller and marks server errors
func (rt *Router) annotateTrace(next http.Handler) http.Handler {
	tracer := rt.container.Tracer
	if !tracer.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if userCtx, err := auth.GetUserFromContext(ctx); err == nil {
			tracer.AddAnnotation(ctx, "userID", userCtx.UserID)
		}
		tracer.AddMetadata(ctx, "requestID", chimiddleware.GetReqID(ctx))

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if ww.Status() >= http.StatusInternalServerError {
			tracer.RecordError(ctx, fmt.Errorf("%s %s returned %d", r.Method, r.URL.Path, ww.Status()))
		}
	})
}

// versionMiddleware adds API version headers to all responses
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Latest", "v2")
		if strings.HasPrefix(r.URL.Path, "/api/v1") {
			w.Header().Set("X-API-Version", "v1")
			w.Header().Set("X-API-Deprecated", "true")
		} else {
			w.Header().Set("X-API-Version", "v2")
			w.Header().Set("X-API-Deprecated", "false")
		}
		next.ServeHTTP(w, r)
	})
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
