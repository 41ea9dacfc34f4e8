package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "GAMEVAULT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Revenue      RevenueConfig
	Password     PasswordConfig
	Storage      StorageConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"GAMEVAULT_APP_ENV" default:"dev"`
	Port         string `envconfig:"GAMEVAULT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"GAMEVAULT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GAMEVAULT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"GAMEVAULT_DB_DSN"`

	Host     string `envconfig:"GAMEVAULT_DB_HOST"`
	Port     int    `envconfig:"GAMEVAULT_DB_PORT" default:"5432"`
	User     string `envconfig:"GAMEVAULT_DB_USER"`
	Password string `envconfig:"GAMEVAULT_DB_PASSWORD"`
	Name     string `envconfig:"GAMEVAULT_DB_NAME"`
	SSLMode  string `envconfig:"GAMEVAULT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GAMEVAULT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GAMEVAULT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GAMEVAULT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GAMEVAULT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RevenueConfig carries the platform's revenue-split constants. Both values
// are injected into the split engine and the listing publication path so that
// tests and future pricing changes do not touch code.
type RevenueConfig struct {
	CommissionPercent float64 `envconfig:"GAMEVAULT_COMMISSION_PERCENT" default:"15.0"`
	ListingFee        float64 `envconfig:"GAMEVAULT_LISTING_FEE" default:"25.00"`
}

// CommissionRate returns the configured commission as a fraction of gross,
// e.g. 15.0 percent becomes 0.15.
func (r RevenueConfig) CommissionRate() decimal.Decimal {
	return decimal.NewFromFloat(r.CommissionPercent).Div(decimal.NewFromInt(100))
}

// ListingFeeAmount returns the configured flat publication fee as a decimal.
func (r RevenueConfig) ListingFeeAmount() decimal.Decimal {
	return decimal.NewFromFloat(r.ListingFee).Round(2)
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GAMEVAULT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GAMEVAULT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GAMEVAULT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GAMEVAULT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GAMEVAULT_ARGON_KEY_LEN" default:"32"`
}

// StorageConfig points the object store at its disk root and the URL prefix
// served back to clients.
type StorageConfig struct {
	Dir     string `envconfig:"GAMEVAULT_STORAGE_DIR" default:"./data/objects"`
	BaseURL string `envconfig:"GAMEVAULT_STORAGE_BASE_URL" default:"/static"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GAMEVAULT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		"GAMEVAULT_DB_HOST": db.Host,
		"GAMEVAULT_DB_USER": db.User,
		"GAMEVAULT_DB_NAME": db.Name,
	}
	for _, env := range []string{"GAMEVAULT_DB_HOST", "GAMEVAULT_DB_USER", "GAMEVAULT_DB_NAME"} {
		if required[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either GAMEVAULT_DB_DSN or %s are required", strings.Join(missing, ", "))
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
