package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	StorageDynamoDB  = "dynamodb"
	StorageFirestore = "firestore"
	StorageMemory    = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string        `yaml:"server_address"`
	Environment     string        `yaml:"environment"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Debug           bool          `yaml:"debug"`

	// Storage
	StorageBackend     string `yaml:"storage_backend"`
	AWSRegion          string `yaml:"aws_region"`
	DynamoDBTable      string `yaml:"dynamodb_table"`
	FirestoreProjectID string `yaml:"firestore_project_id"`

	// Events and WebSocket notifications
	EventBusName      string `yaml:"event_bus_name"`
	WebSocketEndpoint string `yaml:"websocket_endpoint"`
	ConnectionsTable  string `yaml:"connections_table"`

	// Lambda
	IsLambda           bool   `yaml:"-"`
	LambdaFunctionName string `yaml:"-"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	JWTSigningMethod string   `yaml:"jwt_signing_method"`
	JWTSecret        string   `yaml:"-"`
	JWTPublicKey     string   `yaml:"-"`
	JWTIssuer        string   `yaml:"jwt_issuer"`
	JWTAudience      []string `yaml:"jwt_audience"`

	// Rate limiting, requests per minute
	RateLimitBackend string `yaml:"rate_limit_backend"`
	RateLimitTable   string `yaml:"rate_limit_table"`
	IPRateLimit      int    `yaml:"ip_rate_limit"`
	UserRateLimit    int    `yaml:"user_rate_limit"`

	// Caching; a zero TTL disables the recipe detail cache. Warm Lambda
	// containers do not share the cache, so a delete on one cannot evict
	// another's copy: Lambda runs without it unless CACHE_TTL is set explicitly.
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CacheMaxEntries int           `yaml:"cache_max_entries"`
	cacheTTLSet     bool

	// Images
	ThumbnailMaxBytes int64 `yaml:"thumbnail_max_bytes"`

	// Catalog; when set, categories outside the default list are accepted
	AllowUnknownCategories bool `yaml:"allow_unknown_categories"`

	// Feature flags
	MetricsNamespace   string   `yaml:"metrics_namespace"`
	EnableMetrics      bool     `yaml:"enable_metrics"`
	EnableTracing      bool     `yaml:"enable_tracing"`
	EnableCORS         bool     `yaml:"enable_cors"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		ServerAddress:   ":8080",
		Environment:     "development",
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 15 * time.Second,

		StorageBackend: StorageMemory,
		AWSRegion:      "us-east-1",
		DynamoDBTable:  "recipebook",

		ConnectionsTable: "recipebook-connections",

		LogLevel: "info",

		JWTSigningMethod: "HS256",
		JWTIssuer:        "recipebook",
		JWTAudience:      []string{"recipebook-web"},

		RateLimitBackend: StorageMemory,
		RateLimitTable:   "recipebook-rate-limits",
		IPRateLimit:      100,
		UserRateLimit:    200,

		CacheTTL:        5 * time.Minute,
		CacheMaxEntries: 1000,

		ThumbnailMaxBytes: 10 << 20,

		MetricsNamespace:   "RecipeBook",
		EnableCORS:         true,
		CORSAllowedOrigins: []string{"*"},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by CONFIG_FILE, and then environment variables, in that order.
func LoadConfig() (*Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	var keys map[string]interface{}
	if err := yaml.Unmarshal(data, &keys); err == nil {
		_, c.cacheTTLSet = keys["cache_ttl"]
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.Debug = getEnvBool("DEBUG", c.Debug)

	c.StorageBackend = strings.ToLower(getEnv("STORAGE_BACKEND", c.StorageBackend))
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.FirestoreProjectID = getEnv("FIRESTORE_PROJECT_ID", getEnv("GOOGLE_CLOUD_PROJECT", c.FirestoreProjectID))

	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.WebSocketEndpoint = getEnv("WEBSOCKET_ENDPOINT", c.WebSocketEndpoint)
	c.ConnectionsTable = getEnv("CONNECTIONS_TABLE_NAME", getEnv("CONNECTIONS_TABLE", c.ConnectionsTable))

	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", c.LambdaFunctionName)
	c.IsLambda = getEnvBool("IS_LAMBDA", c.LambdaFunctionName != "")

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.JWTSigningMethod = getEnv("JWT_SIGNING_METHOD", c.JWTSigningMethod)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTPublicKey = getEnv("JWT_PUBLIC_KEY", c.JWTPublicKey)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.JWTAudience = getEnvList("JWT_AUDIENCE", c.JWTAudience)

	c.RateLimitBackend = strings.ToLower(getEnv("RATE_LIMIT_BACKEND", c.RateLimitBackend))
	c.RateLimitTable = getEnv("RATE_LIMIT_TABLE", c.RateLimitTable)
	c.IPRateLimit = getEnvInt("IP_RATE_LIMIT", c.IPRateLimit)
	c.UserRateLimit = getEnvInt("USER_RATE_LIMIT", c.UserRateLimit)

	if _, ok := os.LookupEnv("CACHE_TTL"); ok {
		c.cacheTTLSet = true
	}
	c.CacheTTL = getEnvDuration("CACHE_TTL", c.CacheTTL)
	if c.IsLambda && !c.cacheTTLSet {
		c.CacheTTL = 0
	}
	c.CacheMaxEntries = getEnvInt("CACHE_MAX_ENTRIES", c.CacheMaxEntries)
	c.AllowUnknownCategories = getEnvBool("ALLOW_UNKNOWN_CATEGORIES", c.AllowUnknownCategories)

	c.MetricsNamespace = getEnv("METRICS_NAMESPACE", c.MetricsNamespace)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	var errs []error

	switch c.StorageBackend {
	case StorageDynamoDB:
		if c.DynamoDBTable == "" {
			errs = append(errs, errors.New("DYNAMODB_TABLE is required for the dynamodb backend"))
		}
	case StorageFirestore:
		if c.FirestoreProjectID == "" {
			errs = append(errs, errors.New("FIRESTORE_PROJECT_ID is required for the firestore backend"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}

	switch c.RateLimitBackend {
	case StorageMemory:
	case StorageDynamoDB:
		if c.RateLimitTable == "" {
			errs = append(errs, errors.New("RATE_LIMIT_TABLE is required for the dynamodb rate limiter"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimitBackend))
	}

	switch c.JWTSigningMethod {
	case "HS256":
		if c.JWTSecret == "" && !c.IsDevelopment() {
			errs = append(errs, errors.New("JWT_SECRET is required outside development"))
		}
	case "RS256":
		if c.JWTPublicKey == "" {
			errs = append(errs, errors.New("JWT_PUBLIC_KEY is required for RS256"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported JWT_SIGNING_METHOD %q", c.JWTSigningMethod))
	}

	if c.IsProduction() {
		if c.StorageBackend == StorageMemory {
			errs = append(errs, errors.New("the memory storage backend is not allowed in production"))
		}
		if c.EventBusName == "" {
			errs = append(errs, errors.New("EVENT_BUS_NAME is required in production"))
		}
	}

	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("CACHE_TTL cannot be negative"))
	}
	if c.IPRateLimit <= 0 || c.UserRateLimit <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}

	return errors.Join(errs...)
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CacheTTLSeconds is the TTL in the unit the cache port expects
func (c *Config) CacheTTLSeconds() int {
	return int(c.CacheTTL / time.Second)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or plain seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvList splits a comma separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
