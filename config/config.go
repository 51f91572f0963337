package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, memory
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LockTimeout     time.Duration `mapstructure:"lock_timeout"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"` // apply schema.sql on start
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// KafkaConfig configures the ledger event publisher. No brokers disables it.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LedgerConfig carries money values as strings so they are never routed
// through float64. Use Rules to obtain the parsed form.
type LedgerConfig struct {
	OverdraftFloor          string            `mapstructure:"overdraft_floor"`
	FeeRate                 string            `mapstructure:"fee_rate"`
	MaxLoanAmount           string            `mapstructure:"max_loan_amount"`
	TreasuryStartingBalance string            `mapstructure:"treasury_starting_balance"`
	Rates                   map[string]string `mapstructure:"rates"` // NIS-equivalent per unit
}

// LedgerRules is the parsed, validated form of LedgerConfig.
type LedgerRules struct {
	OverdraftFloor          decimal.Decimal
	FeeRate                 decimal.Decimal
	MaxLoanAmount           decimal.Decimal
	TreasuryStartingBalance decimal.Decimal
	Rates                   map[string]decimal.Decimal
}

// Rules parses and validates the ledger settings.
func (l LedgerConfig) Rules() (LedgerRules, error) {
	var (
		r   LedgerRules
		err error
	)

	if r.OverdraftFloor, err = parseMoney("ledger.overdraft_floor", l.OverdraftFloor); err != nil {
		return LedgerRules{}, err
	}
	if r.OverdraftFloor.IsPositive() {
		return LedgerRules{}, fmt.Errorf("ledger.overdraft_floor must not be positive, got %s", l.OverdraftFloor)
	}
	if r.FeeRate, err = parseMoney("ledger.fee_rate", l.FeeRate); err != nil {
		return LedgerRules{}, err
	}
	if r.FeeRate.IsNegative() {
		return LedgerRules{}, fmt.Errorf("ledger.fee_rate must not be negative, got %s", l.FeeRate)
	}
	if r.MaxLoanAmount, err = parseMoney("ledger.max_loan_amount", l.MaxLoanAmount); err != nil {
		return LedgerRules{}, err
	}
	if !r.MaxLoanAmount.IsPositive() {
		return LedgerRules{}, fmt.Errorf("ledger.max_loan_amount must be positive, got %s", l.MaxLoanAmount)
	}
	if r.TreasuryStartingBalance, err = parseMoney("ledger.treasury_starting_balance", l.TreasuryStartingBalance); err != nil {
		return LedgerRules{}, err
	}

	if len(l.Rates) == 0 {
		return LedgerRules{}, fmt.Errorf("ledger.rates must list at least one currency")
	}
	r.Rates = make(map[string]decimal.Decimal, len(l.Rates))
	for code, raw := range l.Rates {
		rate, err := parseMoney("ledger.rates."+code, raw)
		if err != nil {
			return LedgerRules{}, err
		}
		if !rate.IsPositive() {
			return LedgerRules{}, fmt.Errorf("ledger.rates.%s must be positive, got %s", code, raw)
		}
		// viper lowercases map keys.
		r.Rates[strings.ToUpper(code)] = rate
	}

	return r, nil
}

func parseMoney(key, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}

// RetryConfig bounds the retries of operations that failed on lock contention.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinBackoff  time.Duration `mapstructure:"min_backoff"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: BANK_.
// Nested keys use underscore: BANK_DATABASE_HOST, BANK_LEDGER_FEE_RATE, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "banking_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.lock_timeout", "3s")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "banking-ledger")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "ledger.events")
	v.SetDefault("kafka.write_timeout", "5s")
	v.SetDefault("ledger.overdraft_floor", "-100.00")
	v.SetDefault("ledger.fee_rate", "0.01")
	v.SetDefault("ledger.max_loan_amount", "50000.00")
	v.SetDefault("ledger.treasury_starting_balance", "10000000.00")
	v.SetDefault("ledger.rates", map[string]string{
		"NIS": "1.0",
		"USD": "3.5",
		"EUR": "4.0",
	})
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.min_backoff", "50ms")
	v.SetDefault("retry.max_backoff", "1s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: BANK_DATABASE_HOST -> database.host
	v.SetEnvPrefix("BANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if _, err := cfg.Ledger.Rules(); err != nil {
		return nil, fmt.Errorf("invalid ledger config: %w", err)
	}

	return &cfg, nil
}
