package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Square       SquareConfig
	Sendgrid     SendgridConfig
	Downloads    DownloadsConfig
	Pricing      PricingConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TEMPLARIA_APP_ENV" required:"true"`
	Port         string `envconfig:"TEMPLARIA_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"TEMPLARIA_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"TEMPLARIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TEMPLARIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TEMPLARIA_DB_DSN"`
	Driver string `envconfig:"TEMPLARIA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TEMPLARIA_DB_HOST"`
	Port     int    `envconfig:"TEMPLARIA_DB_PORT" default:"5432"`
	User     string `envconfig:"TEMPLARIA_DB_USER"`
	Password string `envconfig:"TEMPLARIA_DB_PASSWORD"`
	Name     string `envconfig:"TEMPLARIA_DB_NAME"`
	SSLMode  string `envconfig:"TEMPLARIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TEMPLARIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TEMPLARIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TEMPLARIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TEMPLARIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TEMPLARIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TEMPLARIA_REDIS_ADDR"`
	Password     string        `envconfig:"TEMPLARIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"TEMPLARIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TEMPLARIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TEMPLARIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TEMPLARIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TEMPLARIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TEMPLARIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies access tokens minted by the managed auth platform.
// Sessions themselves live outside this service.
type JWTConfig struct {
	Secret            string `envconfig:"TEMPLARIA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TEMPLARIA_JWT_ISSUER" required:"true"`
	Audience          string `envconfig:"TEMPLARIA_JWT_AUDIENCE" default:"templaria"`
	ExpirationMinutes int    `envconfig:"TEMPLARIA_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TEMPLARIA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TEMPLARIA_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TEMPLARIA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"TEMPLARIA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TEMPLARIA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	AssetsBucket      string        `envconfig:"TEMPLARIA_GCS_ASSETS_BUCKET" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"TEMPLARIA_GCS_DOWNLOAD_URL_EXPIRY" default:"24h"`
}

type PubSubConfig struct {
	OrdersTopic           string `envconfig:"TEMPLARIA_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription    string `envconfig:"TEMPLARIA_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	AnalyticsTopic        string `envconfig:"TEMPLARIA_PUBSUB_ANALYTICS_TOPIC" required:"true"`
	AnalyticsSubscription string `envconfig:"TEMPLARIA_PUBSUB_ANALYTICS_SUBSCRIPTION" required:"true"`
	// Second subscription on the orders topic so the analytics sink sees
	// order events without competing with the fulfillment worker.
	AnalyticsOrdersSubscription string `envconfig:"TEMPLARIA_PUBSUB_ANALYTICS_ORDERS_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"TEMPLARIA_BIGQUERY_DATASET" default:"templaria"`
	StoreEventsTable string `envconfig:"TEMPLARIA_BIGQUERY_STORE_EVENTS_TABLE" default:"store_events"`
}

type SquareConfig struct {
	AccessToken   string `envconfig:"TEMPLARIA_SQUARE_ACCESS_TOKEN"`
	WebhookSecret string `envconfig:"TEMPLARIA_SQUARE_WEBHOOK_SECRET"`
	LocationID    string `envconfig:"TEMPLARIA_SQUARE_LOCATION_ID"`
	Env           string `envconfig:"TEMPLARIA_SQUARE_ENV" default:"sandbox"`
	RedirectURL   string `envconfig:"TEMPLARIA_SQUARE_REDIRECT_URL"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type SendgridConfig struct {
	APIKey      string `envconfig:"TEMPLARIA_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"TEMPLARIA_SENDGRID_FROM_EMAIL" default:"orders@templaria.dev"`
	FromName    string `envconfig:"TEMPLARIA_SENDGRID_FROM_NAME" default:"Templaria"`
}

type DownloadsConfig struct {
	LinkTTL      time.Duration `envconfig:"TEMPLARIA_DOWNLOAD_LINK_TTL" default:"720h"`
	MaxDownloads int           `envconfig:"TEMPLARIA_DOWNLOAD_MAX_COUNT" default:"25"`
}

// PricingConfig carries the tax rate applied to digital goods. Zero by
// default; expressed in basis points to keep the money path integral.
type PricingConfig struct {
	TaxRateBasisPoints int `envconfig:"TEMPLARIA_PRICING_TAX_RATE_BPS" default:"0"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TEMPLARIA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TEMPLARIA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TEMPLARIA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range componentDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
