package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/vsinha/packplan/pkg/domain/entities"
)

type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Contract ContractConfig `mapstructure:"contract"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type EngineConfig struct {
	GracePeriod    time.Duration `mapstructure:"grace_period"`
	BatchThreshold int           `mapstructure:"batch_threshold"`
	BaseUnit       string        `mapstructure:"base_unit"`
}

// ContractConfig holds default contract terms for the CLI. Decimals are strings so that
// "1.5" is read exactly.
type ContractConfig struct {
	ID                  int64  `mapstructure:"id"`
	WeightThreshold     string `mapstructure:"weight_threshold"`
	WeightThresholdUnit string `mapstructure:"weight_threshold_unit"`
	BreakEvenPrice      string `mapstructure:"break_even_price"`
	MaxDateToBuy        string `mapstructure:"max_date_to_buy"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	BodyLimit       int           `mapstructure:"body_limit"`
}

// DatabaseConfig selects the submission store: memory, sqlite or postgres
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	Path        string `mapstructure:"path"`
	MaxConns    int32  `mapstructure:"max_conns"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// Load reads .env, then the YAML file at path (or config.yaml under ./configs and .), then
// PACKPLAN_* environment overrides such as PACKPLAN_ENGINE_BATCH_THRESHOLD.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PACKPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.grace_period", entities.DefaultGracePeriod)
	v.SetDefault("engine.batch_threshold", 15)
	v.SetDefault("engine.base_unit", string(entities.Kilogram))

	v.SetDefault("contract.weight_threshold_unit", string(entities.Kilogram))

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.body_limit", 4*1024*1024)

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.path", "packplan.db")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "packplan")
}

// Validate checks values viper cannot type-check
func (c *Config) Validate() error {
	if c.Engine.BatchThreshold <= 0 {
		return fmt.Errorf("engine.batch_threshold must be positive, got %d", c.Engine.BatchThreshold)
	}
	if c.Engine.GracePeriod < 0 {
		return fmt.Errorf("engine.grace_period cannot be negative, got %s", c.Engine.GracePeriod)
	}
	if _, err := entities.ParseWeightUnit(c.Engine.BaseUnit); err != nil {
		return fmt.Errorf("engine.base_unit: %w", err)
	}
	switch c.Database.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn cannot be empty for postgres")
	}
	if _, err := c.Contract.Terms(); err != nil {
		return err
	}
	return nil
}

// Unit returns the engine's base weight unit
func (c EngineConfig) Unit() entities.WeightUnit {
	u, err := entities.ParseWeightUnit(c.BaseUnit)
	if err != nil {
		return entities.Kilogram
	}
	return u
}

// Terms converts the configured contract into entity terms
func (c ContractConfig) Terms() (entities.ContractTerms, error) {
	terms := entities.ContractTerms{ContractID: c.ID}

	unit, err := entities.ParseWeightUnit(c.WeightThresholdUnit)
	if err != nil {
		return terms, fmt.Errorf("contract.weight_threshold_unit: %w", err)
	}
	terms.WeightThresholdUnit = unit

	if terms.WeightThreshold, err = parseNullDecimal(c.WeightThreshold); err != nil {
		return terms, fmt.Errorf("contract.weight_threshold: %w", err)
	}
	if terms.BreakEvenPrice, err = parseNullDecimal(c.BreakEvenPrice); err != nil {
		return terms, fmt.Errorf("contract.break_even_price: %w", err)
	}
	if c.MaxDateToBuy != "" {
		t, err := time.Parse(entities.DateLayout, c.MaxDateToBuy)
		if err != nil {
			return terms, fmt.Errorf("contract.max_date_to_buy: %w", err)
		}
		terms.MaxDateToBuy = t
	}
	return terms, nil
}

func parseNullDecimal(s string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return entities.NewNullDecimal(d), nil
}
