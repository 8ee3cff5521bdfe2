//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"recipebook/application/ports"
	"recipebook/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideRepositories,
	ProvideRecipeRepository,
	ProvideIngredientRepository,
	ProvideInstructionRepository,
	ProvideHealthChecker,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideCollector,
	ProvideTracer,
	ProvideRateLimiters,
	ProvideJWTValidator,
	ProvideDomainConfig,
	ProvideRecipeValidator,
	ProvideCache,
	wire.Bind(new(ports.Cache), new(*InMemoryCache)),
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The cleanup func releases
// store clients and background goroutines.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
