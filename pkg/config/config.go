package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	GCP        GCPConfig
	PubSub     PubSubConfig
	Commission CommissionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Commission.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RENDASUA_APP_ENV" required:"true"`
	Port         string `envconfig:"RENDASUA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RENDASUA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RENDASUA_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"RENDASUA_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RENDASUA_DB_DSN"`
	Driver string `envconfig:"RENDASUA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RENDASUA_DB_HOST"`
	LegacyPort     int    `envconfig:"RENDASUA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RENDASUA_DB_USER"`
	LegacyPassword string `envconfig:"RENDASUA_DB_PASSWORD"`
	LegacyName     string `envconfig:"RENDASUA_DB_NAME"`
	LegacySSLMode  string `envconfig:"RENDASUA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RENDASUA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RENDASUA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RENDASUA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RENDASUA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RENDASUA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RENDASUA_REDIS_ADDR"`
	Password     string        `envconfig:"RENDASUA_REDIS_PASSWORD"`
	DB           int           `envconfig:"RENDASUA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RENDASUA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RENDASUA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RENDASUA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RENDASUA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RENDASUA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"RENDASUA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"RENDASUA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"RENDASUA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrderEventsTopic        string `envconfig:"RENDASUA_PUBSUB_ORDER_EVENTS_TOPIC" required:"true"`
	OrderEventsSubscription string `envconfig:"RENDASUA_PUBSUB_ORDER_EVENTS_SUBSCRIPTION" required:"true"`
}

// CommissionConfig holds the wiring-level settlement settings. The rate table
// itself lives in application_configurations; the values here are the
// fallbacks applied when a key is absent there.
type CommissionConfig struct {
	PlatformAccountEmail string        `envconfig:"RENDASUA_COMMISSION_PLATFORM_EMAIL" default:"hq@rendasua.com"`
	LockTTL              time.Duration `envconfig:"RENDASUA_COMMISSION_LOCK_TTL" default:"2m"`

	DefaultItemCommissionPercent    float64 `envconfig:"RENDASUA_COMMISSION_DEFAULT_ITEM_PERCENT" default:"5"`
	DefaultUnverifiedBasePercent    float64 `envconfig:"RENDASUA_COMMISSION_DEFAULT_UNVERIFIED_BASE_PERCENT" default:"50"`
	DefaultVerifiedBasePercent      float64 `envconfig:"RENDASUA_COMMISSION_DEFAULT_VERIFIED_BASE_PERCENT" default:"0"`
	DefaultUnverifiedPerKmPercent   float64 `envconfig:"RENDASUA_COMMISSION_DEFAULT_UNVERIFIED_PER_KM_PERCENT" default:"80"`
	DefaultVerifiedPerKmPercent     float64 `envconfig:"RENDASUA_COMMISSION_DEFAULT_VERIFIED_PER_KM_PERCENT" default:"20"`
	WarnOnNegativePlatformRemainder bool    `envconfig:"RENDASUA_COMMISSION_WARN_NEGATIVE_REMAINDER" default:"true"`
}

// Validate rejects misconfiguration at startup instead of masking it with
// silent fallbacks at distribution time.
func (c CommissionConfig) Validate() error {
	if strings.TrimSpace(c.PlatformAccountEmail) == "" {
		return fmt.Errorf("commission platform account email is required")
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("commission lock ttl must be positive")
	}
	rates := map[string]float64{
		"item":             c.DefaultItemCommissionPercent,
		"unverified_base":  c.DefaultUnverifiedBasePercent,
		"verified_base":    c.DefaultVerifiedBasePercent,
		"unverified_perkm": c.DefaultUnverifiedPerKmPercent,
		"verified_perkm":   c.DefaultVerifiedPerKmPercent,
	}
	for name, rate := range rates {
		if rate < 0 || rate > 100 {
			return fmt.Errorf("commission default rate %s must be within [0,100], got %v", name, rate)
		}
	}
	return nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
