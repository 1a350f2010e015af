package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"pulpit"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"pulpit"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-004"`

	IngestionConcurrency int    `envconfig:"INGESTION_CONCURRENCY" default:"8"`
	MigrationPath        string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Retrieval fusion tuning. Explicit targeting always outranks these;
	// the lexical/semantic split and the series boost are policy knobs.
	LexicalWeight  float64 `envconfig:"LEXICAL_WEIGHT" default:"0.6"`
	SemanticWeight float64 `envconfig:"SEMANTIC_WEIGHT" default:"0.4"`
	SeriesBoost    float64 `envconfig:"SERIES_BOOST" default:"0.25"`
	SearchTopK     int     `envconfig:"SEARCH_TOP_K" default:"25"`

	VectorQueryTimeoutSeconds int `envconfig:"VECTOR_QUERY_TIMEOUT_SECONDS" default:"5"`

	// Server
	ServerPort   int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may be set in the shell; a missing .env is not an error.
	_ = godotenv.Load(".env")

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.LexicalWeight < 0 || c.SemanticWeight < 0 || c.SeriesBoost < 0 {
		return fmt.Errorf("%w: fusion weights must be non-negative", ErrMissingRequired)
	}
	if c.LexicalWeight+c.SemanticWeight == 0 {
		return fmt.Errorf("%w: at least one fusion weight must be positive", ErrMissingRequired)
	}
	return nil
}
