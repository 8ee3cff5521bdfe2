package di

import (
	"go.uber.org/zap"

	"recipebook/application/commands/bus"
	"recipebook/application/ports"
	querybus "recipebook/application/queries/bus"
	domainconfig "recipebook/domain/config"
	"recipebook/domain/core/validators"
	"recipebook/infrastructure/config"
	"recipebook/pkg/auth"
	"recipebook/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	DomainConfig    *domainconfig.DomainConfig
	Validator       *validators.RecipeValidator
	RecipeRepo      ports.RecipeRepository
	IngredientRepo  ports.IngredientRepository
	InstructionRepo ports.InstructionRepository
	Health          ports.HealthChecker
	EventPublisher  ports.EventPublisher
	Cache           *InMemoryCache
	Metrics         *observability.Metrics
	Collector       *observability.Collector
	Tracer          *observability.Tracer
	RateLimiters    *RateLimiters
	JWTValidator    *auth.JWTValidator
	CommandBus      *bus.CommandBus
	QueryBus        *querybus.QueryBus
}
