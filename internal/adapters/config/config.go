package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"atlas/pkg/errors"
)

type Config struct {
	App           AppConfig
	Server        ServerConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	AI            AIConfig
	MarketData    MarketDataConfig
	Trading       TradingConfig
	Competition   CompetitionConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"atlas"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"0"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"atlas"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"true"`
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
}

type TelegramConfig struct {
	Enabled  bool   `envconfig:"TELEGRAM_ENABLED" default:"false"`
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

type AIConfig struct {
	GeminiKey       string        `envconfig:"GEMINI_API_KEY"`
	OpenAIKey       string        `envconfig:"OPENAI_API_KEY"`
	DefaultProvider string        `envconfig:"DEFAULT_AI_PROVIDER" default:"gemini"`
	GeminiModel     string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	OpenAIModel     string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	RequestTimeout  time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"60s"`
	RateLimitRPM    int           `envconfig:"AI_RATE_LIMIT_RPM" default:"60"`
}

type MarketDataConfig struct {
	QuoteCacheTTL     time.Duration `envconfig:"MARKET_DATA_QUOTE_CACHE_TTL" default:"30s"`
	HistoryCacheTTL   time.Duration `envconfig:"MARKET_DATA_HISTORY_CACHE_TTL" default:"5m"`
	RequestsPerSecond int           `envconfig:"MARKET_DATA_REQUESTS_PER_SECOND" default:"5"`
}

// TradingConfig holds the paper trading account parameters
type TradingConfig struct {
	AccountID       string   `envconfig:"TRADING_ACCOUNT_ID" default:"pilot"`
	StartingCash    float64  `envconfig:"PAPER_STARTING_CASH" default:"100000"`
	MaxPositions    int      `envconfig:"PAPER_MAX_POSITIONS" default:"10"`
	MaxPositionSize float64  `envconfig:"PAPER_MAX_POSITION_SIZE" default:"10000"`
	Watchlist       []string `envconfig:"PILOT_WATCHLIST" default:"NVDA,TSLA,AAPL,MSFT,GOOGL"`
}

// CompetitionConfig sets up the model trading competition. Each model
// in Models trades its own paper account on the shared watchlist.
type CompetitionConfig struct {
	Enabled      bool          `envconfig:"COMPETITION_ENABLED" default:"false"`
	Models       []string      `envconfig:"COMPETITION_MODELS" default:"gemini-2.0-flash,gpt-4o-mini"`
	StartingCash float64       `envconfig:"COMPETITION_STARTING_CASH" default:"30000"`
	Interval     time.Duration `envconfig:"COMPETITION_INTERVAL" default:"24h"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for background workers
type WorkerConfig struct {
	PilotEnabled  bool          `envconfig:"WORKER_PILOT_ENABLED" default:"false"`
	PilotInterval time.Duration `envconfig:"WORKER_PILOT_INTERVAL" default:"15m"`
	PilotLockTTL  time.Duration `envconfig:"WORKER_PILOT_LOCK_TTL" default:"10m"`

	SnapshotEnabled  bool          `envconfig:"WORKER_SNAPSHOT_ENABLED" default:"true"`
	SnapshotInterval time.Duration `envconfig:"WORKER_SNAPSHOT_INTERVAL" default:"1h"`
}

// Load reads configuration from the environment. A .env file, if
// present, is merged in first for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process env config")
	}
	return &cfg, nil
}
