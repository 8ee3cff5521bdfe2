package di

import (
	"context"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"recipebook/application/commands"
	"recipebook/application/commands/bus"
	commandhandlers "recipebook/application/commands/handlers"
	"recipebook/application/ports"
	"recipebook/application/queries"
	querybus "recipebook/application/queries/bus"
	queryhandlers "recipebook/application/queries/handlers"
	domainconfig "recipebook/domain/config"
	"recipebook/domain/core/validators"
	"recipebook/infrastructure/config"
	"recipebook/infrastructure/messaging"
	"recipebook/infrastructure/messaging/eventbridge"
	"recipebook/infrastructure/persistence/dynamodb"
	firestorestore "recipebook/infrastructure/persistence/firestore"
	"recipebook/infrastructure/persistence/memory"
	"recipebook/pkg/auth"
	"recipebook/pkg/observability"
)

// ProvideLogger creates a zap logger. LOG_LEVEL overrides the environment default.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(
		zap.String("environment", cfg.Environment),
		zap.String("host", hostname()),
	), nil
}

// ProvideAWSConfig loads the default AWS configuration for the configured region
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// Repositories groups the three recipe collections of one storage backend
type Repositories struct {
	Recipes      ports.RecipeRepository
	Ingredients  ports.IngredientRepository
	Instructions ports.InstructionRepository
	Health       ports.HealthChecker
}

// ProvideRepositories selects the store named by STORAGE_BACKEND.
// The returned cleanup closes the Firestore client when one was opened.
func ProvideRepositories(
	ctx context.Context,
	cfg *config.Config,
	dynamoClient *awsdynamodb.Client,
	logger *zap.Logger,
) (*Repositories, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageDynamoDB:
		recipes := dynamodb.NewRecipeRepository(dynamoClient, cfg.DynamoDBTable, logger)
		return &Repositories{
			Recipes:      recipes,
			Ingredients:  dynamodb.NewIngredientRepository(dynamoClient, cfg.DynamoDBTable, logger),
			Instructions: dynamodb.NewInstructionRepository(dynamoClient, cfg.DynamoDBTable, logger),
			Health:       recipes,
		}, func() {}, nil

	case config.StorageFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		recipes := firestorestore.NewRecipeRepository(client, logger)
		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close firestore client", zap.Error(err))
			}
		}
		return &Repositories{
			Recipes:      recipes,
			Ingredients:  firestorestore.NewIngredientRepository(client, logger),
			Instructions: firestorestore.NewInstructionRepository(client, logger),
			Health:       recipes,
		}, cleanup, nil

	case config.StorageMemory:
		store := memory.NewStore()
		return &Repositories{
			Recipes:      store.Recipes(),
			Ingredients:  store.Ingredients(),
			Instructions: store.Instructions(),
			Health:       store,
		}, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// ProvideRecipeRepository exposes the recipe collection
func ProvideRecipeRepository(r *Repositories) ports.RecipeRepository { return r.Recipes }

// ProvideIngredientRepository exposes the ingredient collection
func ProvideIngredientRepository(r *Repositories) ports.IngredientRepository { return r.Ingredients }

// ProvideInstructionRepository exposes the instruction collection
func ProvideInstructionRepository(r *Repositories) ports.InstructionRepository { return r.Instructions }

// ProvideHealthChecker exposes the store's readiness probe
func ProvideHealthChecker(r *Repositories) ports.HealthChecker { return r.Health }

// ProvideEventPublisher publishes to EventBridge when a bus is configured and logs events otherwise
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return messaging.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideMetrics creates CloudWatch business metrics. Without ENABLE_METRICS nothing is sent.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	var api observability.CloudWatchAPI
	if cfg.EnableMetrics {
		api = client
	}
	return observability.NewMetrics(cfg.MetricsNamespace, api, logger)
}

// ProvideCollector creates the Prometheus collector served on /metrics
func ProvideCollector(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.MetricsNamespace)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	name := cfg.LambdaFunctionName
	if name == "" {
		name = "recipebook-api"
	}
	return observability.NewTracer(name, cfg.EnableTracing)
}

// RateLimiters holds the per-IP and per-user limiters used by the auth gate
type RateLimiters struct {
	IP   auth.RateLimiter
	User auth.RateLimiter
}

// ProvideRateLimiters builds in-process limiters, or DynamoDB counters shared across instances
func ProvideRateLimiters(client *awsdynamodb.Client, cfg *config.Config) *RateLimiters {
	if cfg.RateLimitBackend == config.StorageDynamoDB {
		return &RateLimiters{
			IP:   auth.NewIPRateLimiter(auth.NewDistributedRateLimiter(client, cfg.RateLimitTable, cfg.IPRateLimit, time.Minute)),
			User: auth.NewUserRateLimiter(auth.NewDistributedRateLimiter(client, cfg.RateLimitTable, cfg.UserRateLimit, time.Minute)),
		}
	}
	return &RateLimiters{
		IP:   auth.NewIPRateLimiter(auth.NewKeyedRateLimiter(cfg.IPRateLimit)),
		User: auth.NewUserRateLimiter(auth.NewKeyedRateLimiter(cfg.UserRateLimit)),
	}
}

// ProvideJWTValidator creates the bearer token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" && cfg.IsDevelopment() {
		secret = DevelopmentJWTSecret
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: cfg.JWTSigningMethod,
		SecretKey:     secret,
		PublicKey:     cfg.JWTPublicKey,
		Issuer:        cfg.JWTIssuer,
		Audience:      cfg.JWTAudience,
	})
}

// DevelopmentJWTSecret signs tokens when no JWT_SECRET is set in development
const DevelopmentJWTSecret = "development-secret-change-in-production"

// ProvideDomainConfig loads the business limits for the environment
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	dc := domainconfig.LoadDomainConfig(cfg.Environment)
	dc.AllowUnknownTags = cfg.AllowUnknownCategories
	if err := dc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid domain config: %w", err)
	}
	return dc, nil
}

// ProvideRecipeValidator creates the form validator attached to create commands
func ProvideRecipeValidator(dc *domainconfig.DomainConfig) *validators.RecipeValidator {
	return validators.NewRecipeValidator(dc)
}

// ProvideCache creates the in-process cache; cleanup stops its sweeper
func ProvideCache(cfg *config.Config) (*InMemoryCache, func()) {
	cache := NewInMemoryCache(cfg.CacheMaxEntries)
	return cache, cache.Close
}

// CommandHandlerAdapter adapts typed handlers to bus.CommandHandler
type CommandHandlerAdapter struct {
	handler func(ctx context.Context, cmd bus.Command) error
}

// Handle implements bus.CommandHandler
func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) error {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus registers the recipe command handlers behind logging and metrics middleware
func ProvideCommandBus(
	recipeRepo ports.RecipeRepository,
	ingredientRepo ports.IngredientRepository,
	instructionRepo ports.InstructionRepository,
	eventPublisher ports.EventPublisher,
	cache ports.Cache,
	metrics *observability.Metrics,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus()
	commandBus.Use(
		bus.LoggingMiddleware(&zapLoggerAdapter{logger}),
		bus.MetricsMiddleware(observability.MultiRecorder{metrics, collector}),
	)

	orchestrator := commandhandlers.NewCreateRecipeOrchestrator(
		recipeRepo,
		ingredientRepo,
		instructionRepo,
		eventPublisher,
		tracer,
		logger,
	)
	if err := commandBus.Register(commands.CreateRecipeCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			createCmd, ok := cmd.(commands.CreateRecipeCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return orchestrator.Handle(ctx, createCmd)
		},
	}); err != nil {
		return nil, err
	}

	deleteHandler := commandhandlers.NewDeleteRecipeHandler(
		recipeRepo,
		ingredientRepo,
		instructionRepo,
		eventPublisher,
		cache,
		logger,
	)
	if err := commandBus.Register(commands.DeleteRecipeCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			deleteCmd, ok := cmd.(commands.DeleteRecipeCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return deleteHandler.Handle(ctx, deleteCmd)
		},
	}); err != nil {
		return nil, err
	}

	return commandBus, nil
}

// QueryHandlerAdapter adapts typed handlers to querybus.QueryHandler
type QueryHandlerAdapter struct {
	handler func(ctx context.Context, query querybus.Query) (interface{}, error)
}

// Handle implements querybus.QueryHandler
func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus registers the recipe query handlers behind metrics and caching wrappers
func ProvideQueryBus(
	recipeRepo ports.RecipeRepository,
	ingredientRepo ports.IngredientRepository,
	instructionRepo ports.InstructionRepository,
	cache ports.Cache,
	collector *observability.Collector,
	domainConfig *domainconfig.DomainConfig,
	cfg *config.Config,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()
	queryBus.Use(
		querybus.NewMetricsMiddleware(&queryMetricsAdapter{collector}),
		querybus.NewCachingMiddleware(cache, cfg.CacheTTLSeconds()),
	)

	listHandler := queryhandlers.NewListRecipesHandler(recipeRepo, domainConfig, logger)
	if err := queryBus.Register(queries.ListRecipesQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			listQuery, ok := query.(queries.ListRecipesQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listHandler.Handle(ctx, listQuery)
		},
	}); err != nil {
		return nil, err
	}

	getHandler := queryhandlers.NewGetRecipeHandler(recipeRepo, ingredientRepo, instructionRepo, logger)
	if err := queryBus.Register(queries.GetRecipeQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			getQuery, ok := query.(queries.GetRecipeQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getHandler.Handle(ctx, getQuery)
		},
	}); err != nil {
		return nil, err
	}

	return queryBus, nil
}

// queryMetricsAdapter narrows the collector's Timer to the query bus Timer
type queryMetricsAdapter struct {
	collector *observability.Collector
}

func (a *queryMetricsAdapter) StartTimer(metric, label string) querybus.Timer {
	return a.collector.StartTimer(metric, label)
}

func (a *queryMetricsAdapter) Increment(metric, label string) {
	a.collector.Increment(metric, label)
}

// zapLoggerAdapter adapts zap.Logger to the command bus Logger interface
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, fields ...interface{}) {
	a.logger.Info(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) Error(msg string, fields ...interface{}) {
	a.logger.Error(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) fieldsToZap(fields ...interface{}) []zap.Field {
	var zapFields []zap.Field
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprint(fields[i])
		}
		zapFields = append(zapFields, zap.Any(key, fields[i+1]))
	}
	return zapFields
}

// hostname identifies the instance in logs
func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
