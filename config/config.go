package config

import (
	"fmt"
	"os"
	"time"

	structValidator "github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

const (
	CONFIG_PATH     = "./res/config.yaml"
	CONFIG_PATH_ENV = "JUNGLE_CONFIG"

	DatabaseTypeMongo    = "mongo"
	DatabaseTypePostgres = "postgres"
)

// ServiceConfig holds the configuration for the service.
type ServiceConfig struct {
	ServiceName string   `yaml:"service_name" validate:"required"`
	LogLevel    string   `yaml:"loglevel" validate:"required"`
	Host        string   `yaml:"host"`
	Port        string   `yaml:"port" validate:"required"`
	BcryptCost  int      `yaml:"bcrypt_cost" validate:"omitempty,min=4,max=31"`
	Token       Token    `yaml:"token"`
	Database    Database `yaml:"database"`
}

// Token configures how authentication tokens are signed.
// An ECDSA key at PrivateKeyPath takes precedence over Secret.
type Token struct {
	Secret         string        `yaml:"secret" validate:"required_without=PrivateKeyPath"`
	PrivateKeyPath string        `yaml:"private_key_path"`
	TTL            time.Duration `yaml:"ttl"`
}

type Database struct {
	Type string `yaml:"type" validate:"required,oneof=mongo postgres"`
	// For MongoDB
	MongoDB *MongoDBConfig `yaml:"mongodb_config" validate:"required_if=Type mongo"`
	// For PostgreSQL
	Postgres *PostgresConfig `yaml:"postgres_config" validate:"required_if=Type postgres"`
}

// MongoDBConfig holds the MongoDB connection settings.
type MongoDBConfig struct {
	DSN              string             `yaml:"dsn" validate:"required"`
	Timeout          time.Duration      `yaml:"timeout"`
	Options          MongoServerOptions `yaml:"mongo_server_options"`
	ValidCollections []string           `yaml:"valid_collections" validate:"required"`
	ValidFields      []string           `yaml:"valid_fields" validate:"required"`
}

type PostgresConfig struct {
	DSN         string                `yaml:"dsn" validate:"required"`
	Options     PostgresServerOptions `yaml:"postgres_server_options"`
	ValidTables []string              `yaml:"valid_tables" validate:"required"`
	ValidFields []string              `yaml:"valid_fields" validate:"required"`
}

type MongoServerOptions struct {
	APIVersion           string `yaml:"api_version"`
	SetStrict            bool   `yaml:"set_strict"`
	SetDeprecationErrors bool   `yaml:"set_deprecation_errors"`
}

type PostgresServerOptions struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// envOverrides are the settings an operator may supply through the environment.
// Empty values leave the file configuration untouched.
type envOverrides struct {
	Host        string `mapstructure:"JUNGLE_HOST"`
	Port        string `mapstructure:"JUNGLE_PORT"`
	LogLevel    string `mapstructure:"JUNGLE_LOGLEVEL"`
	DatabaseDSN string `mapstructure:"JUNGLE_DATABASE_DSN"`
	TokenSecret string `mapstructure:"JUNGLE_TOKEN_SECRET"`
}

var envKeys = []string{
	"JUNGLE_HOST",
	"JUNGLE_PORT",
	"JUNGLE_LOGLEVEL",
	"JUNGLE_DATABASE_DSN",
	"JUNGLE_TOKEN_SECRET",
}

// ReadLocalConfig reads the service configuration from a YAML file at the specified path.
// It unmarshals the YAML content into a ServiceConfig struct and returns it.
// If there is an error reading the file or unmarshaling the content, it returns an error.
func ReadLocalConfig(configPath string) (*ServiceConfig, error) {
	config := &ServiceConfig{}

	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(yamlFile, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnvOverrides replaces file settings with any JUNGLE_* variables present in the environment.
func ApplyEnvOverrides(cfg *ServiceConfig) error {
	env := make(map[string]interface{})
	for _, key := range envKeys {
		if value, ok := os.LookupEnv(key); ok {
			env[key] = value
		}
	}
	if len(env) == 0 {
		return nil
	}

	overrides := envOverrides{}
	if err := mapstructure.Decode(env, &overrides); err != nil {
		return fmt.Errorf("failed to decode environment overrides: %w", err)
	}

	if overrides.Host != "" {
		cfg.Host = overrides.Host
	}
	if overrides.Port != "" {
		cfg.Port = overrides.Port
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.TokenSecret != "" {
		cfg.Token.Secret = overrides.TokenSecret
	}
	if overrides.DatabaseDSN != "" {
		switch cfg.Database.Type {
		case DatabaseTypeMongo:
			if cfg.Database.MongoDB == nil {
				cfg.Database.MongoDB = &MongoDBConfig{}
			}
			cfg.Database.MongoDB.DSN = overrides.DatabaseDSN
		case DatabaseTypePostgres:
			if cfg.Database.Postgres == nil {
				cfg.Database.Postgres = &PostgresConfig{}
			}
			cfg.Database.Postgres.DSN = overrides.DatabaseDSN
		}
	}

	return nil
}

// Validate checks the struct tags of the configuration.
func (c *ServiceConfig) Validate(validator *structValidator.Validate) error {
	if err := validator.Struct(c); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

// ConfigPath returns the config file location, honouring JUNGLE_CONFIG.
func ConfigPath() string {
	if path, ok := os.LookupEnv(CONFIG_PATH_ENV); ok && path != "" {
		return path
	}
	return CONFIG_PATH
}

func BuildServerAPIOptions(cfg MongoServerOptions) *options.ServerAPIOptions {
	opts := options.ServerAPI(options.ServerAPIVersion(cfg.APIVersion))
	opts.SetStrict(cfg.SetStrict)
	opts.SetDeprecationErrors(cfg.SetDeprecationErrors)

	return opts
}

func ListToMap(list []string) map[string]bool {
	result := make(map[string]bool)
	for _, item := range list {
		result[item] = true
	}
	return result
}
