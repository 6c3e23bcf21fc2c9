package deploy

import (
	"crypto/ed25519"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	pg "github.com/code-payments/custody-bridge/pkg/database/postgres"
)

const (
	envPrefix = "CUSTODY"

	defaultRegistryCapacity   = 1024
	defaultEventLogMaxEntries = 4096
)

// Config describes a custody deployment
type Config struct {
	// Base58 encoded address the custody program is registered under
	ProgramID string `mapstructure:"program_id"`

	// Base58 encoded mint of the custodied token
	Mint string `mapstructure:"mint"`

	RegistryCapacity   uint16 `mapstructure:"registry_capacity"`
	EventLogMaxEntries uint64 `mapstructure:"event_log_max_entries"`

	// Optional. Lock events are indexed in memory when no host is set.
	Database DatabaseConfig `mapstructure:"database"`
}

type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	DbName             string `mapstructure:"db_name"`
	SslMode            string `mapstructure:"ssl_mode"`
	MaxOpenConnections int    `mapstructure:"max_open_connections"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections"`
}

var defaults = map[string]interface{}{
	"program_id":            "",
	"mint":                  "",
	"registry_capacity":     defaultRegistryCapacity,
	"event_log_max_entries": defaultEventLogMaxEntries,

	"database.host":                 "",
	"database.port":                 5432,
	"database.user":                 "",
	"database.password":             "",
	"database.db_name":              "",
	"database.ssl_mode":             "disable",
	"database.max_open_connections": 0,
	"database.max_idle_connections": 0,
}

// LoadConfig reads a deployment config file. Every key can be overridden by
// an environment variable, for example CUSTODY_REGISTRY_CAPACITY or
// CUSTODY_DATABASE_HOST.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// DecodeConfig decodes an already parsed config, such as an app's
// arbitrary configuration section.
func DecodeConfig(raw map[string]interface{}) (*Config, error) {
	config := Config{
		RegistryCapacity:   defaultRegistryCapacity,
		EventLogMaxEntries: defaultEventLogMaxEntries,
		Database: DatabaseConfig{
			Port:    5432,
			SslMode: "disable",
		},
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if _, err := decodeKey(c.ProgramID); err != nil {
		return errors.Wrap(err, "invalid program_id")
	}
	if _, err := decodeKey(c.Mint); err != nil {
		return errors.Wrap(err, "invalid mint")
	}
	if c.RegistryCapacity == 0 {
		return errors.New("registry_capacity must be positive")
	}
	if c.EventLogMaxEntries == 0 {
		return errors.New("event_log_max_entries must be positive")
	}

	if c.HasDatabase() {
		if err := c.Database.PostgresConfig().Validate(); err != nil {
			return errors.Wrap(err, "invalid database")
		}
	}
	return nil
}

func (c *Config) GetProgramID() ed25519.PublicKey {
	key, _ := decodeKey(c.ProgramID)
	return key
}

func (c *Config) GetMint() ed25519.PublicKey {
	key, _ := decodeKey(c.Mint)
	return key
}

// HasDatabase reports whether lock events should be indexed in postgres
func (c *Config) HasDatabase() bool {
	return len(c.Database.Host) > 0
}

func (c *DatabaseConfig) PostgresConfig() *pg.Config {
	return &pg.Config{
		User:               c.User,
		Host:               c.Host,
		Password:           c.Password,
		Port:               c.Port,
		DbName:             c.DbName,
		SslMode:            c.SslMode,
		MaxOpenConnections: c.MaxOpenConnections,
		MaxIdleConnections: c.MaxIdleConnections,
	}
}

func decodeKey(value string) (ed25519.PublicKey, error) {
	if len(value) == 0 {
		return nil, errors.New("value is required")
	}

	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base58 encoding")
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid key size: %d", len(decoded))
	}
	return decoded, nil
}
