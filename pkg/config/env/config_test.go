package env

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/custody-bridge/pkg/config"
)

func TestConfigDoesntExist(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"
	os.Setenv(env, "default")

	v, err := NewConfig(env).Get(context.Background())
	assert.Equal(t, []byte("default"), v)
	assert.Nil(t, err)

	os.Unsetenv(env)

	v, err = NewConfig(env).Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestTypedConfigs(t *testing.T) {
	const (
		uintEnv     = "ENV_CONFIG_TEST_BATCH_SIZE"
		durationEnv = "ENV_CONFIG_TEST_POLL_INTERVAL"
	)

	t.Setenv(uintEnv, "42")
	t.Setenv(durationEnv, "3s")

	assert.EqualValues(t, 42, NewUint64Config(uintEnv, 1).Get(context.Background()))
	assert.Equal(t, 3*time.Second, NewDurationConfig(durationEnv, time.Second).Get(context.Background()))

	// Keys are upper cased
	assert.EqualValues(t, 42, NewUint64Config("env_config_test_batch_size", 1).Get(context.Background()))

	os.Unsetenv(uintEnv)
	assert.EqualValues(t, 1, NewUint64Config(uintEnv, 1).Get(context.Background()))
}
