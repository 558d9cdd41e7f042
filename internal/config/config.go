package config

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

// DefaultProgramID is the address the booth program is deployed at on a fresh ledger.
const DefaultProgramID = "BoothXchange11111111111111111111111111111111"

// Config holds all configuration for the application
type Config struct {
	Program ProgramConfig `mapstructure:"program"`
	Rent    RentConfig    `mapstructure:"rent"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
}

// ProgramConfig holds booth program settings
type ProgramConfig struct {
	ID string `mapstructure:"id"`

	// RejectZeroOutput makes Exchange fail with TooSmallAmount when a trade converts to zero.
	RejectZeroOutput bool `mapstructure:"reject_zero_output"`
}

// RentConfig holds the rent-exemption parameters of the ledger
type RentConfig struct {
	LamportsPerByteYear uint64  `mapstructure:"lamports_per_byte_year"`
	ExemptionThreshold  float64 `mapstructure:"exemption_threshold"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Type     string         `mapstructure:"type"` // memory or postgres
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	DSN             string `mapstructure:"dsn"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // in seconds
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Program: ProgramConfig{
			ID: DefaultProgramID,
		},
		Rent: RentConfig{
			LamportsPerByteYear: 3480,
			ExemptionThreshold:  2.0,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				User:            "booth",
				Database:        "booth",
				SSLMode:         "disable",
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 300,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	return LoadWith(viper.New(), configPath)
}

// LoadWith loads configuration through v, which may already carry bound flags.
func LoadWith(v *viper.Viper, configPath string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".booth")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	// Environment variables
	v.SetEnvPrefix("BOOTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("program.id", cfg.Program.ID)
	v.SetDefault("program.reject_zero_output", cfg.Program.RejectZeroOutput)
	v.SetDefault("rent.lamports_per_byte_year", cfg.Rent.LamportsPerByteYear)
	v.SetDefault("rent.exemption_threshold", cfg.Rent.ExemptionThreshold)
	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.postgres.dsn", cfg.Storage.Postgres.DSN)
	v.SetDefault("storage.postgres.host", cfg.Storage.Postgres.Host)
	v.SetDefault("storage.postgres.port", cfg.Storage.Postgres.Port)
	v.SetDefault("storage.postgres.user", cfg.Storage.Postgres.User)
	v.SetDefault("storage.postgres.password", cfg.Storage.Postgres.Password)
	v.SetDefault("storage.postgres.database", cfg.Storage.Postgres.Database)
	v.SetDefault("storage.postgres.ssl_mode", cfg.Storage.Postgres.SSLMode)
	v.SetDefault("storage.postgres.max_open_conns", cfg.Storage.Postgres.MaxOpenConns)
	v.SetDefault("storage.postgres.max_idle_conns", cfg.Storage.Postgres.MaxIdleConns)
	v.SetDefault("storage.postgres.conn_max_lifetime", cfg.Storage.Postgres.ConnMaxLifetime)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := c.Program.ProgramID(); err != nil {
		return err
	}
	switch c.Storage.Type {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}
	if c.Rent.ExemptionThreshold < 0 {
		return fmt.Errorf("negative rent exemption threshold: %v", c.Rent.ExemptionThreshold)
	}
	return nil
}

// ProgramID parses the configured program address.
func (c *ProgramConfig) ProgramID() (solana.PublicKey, error) {
	id, err := solana.PublicKeyFromBase58(c.ID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid program id %q: %w", c.ID, err)
	}
	return id, nil
}

// ConnString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}
