// Package env reads config values from environment variables. Values are
// read once, when the config is created.
package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/code-payments/custody-bridge/pkg/config"
	"github.com/code-payments/custody-bridge/pkg/config/wrapper"
)

type envConfig struct {
	val []byte
}

// NewConfig returns the value of the upper cased key as raw bytes.
func NewConfig(key string) config.Config {
	val, ok := os.LookupEnv(strings.ToUpper(key))
	if !ok || len(val) == 0 {
		return &envConfig{}
	}
	return &envConfig{val: []byte(val)}
}

// Get implements config.Config.Get.
func (c *envConfig) Get(_ context.Context) (interface{}, error) {
	if c.val == nil {
		return nil, config.ErrNoValue
	}
	return c.val, nil
}

// Shutdown implements config.Config.Shutdown.
func (c *envConfig) Shutdown() {}

func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
