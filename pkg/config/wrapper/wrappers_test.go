package wrapper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-bridge/pkg/config"
	"github.com/code-payments/custody-bridge/pkg/config/memory"
)

func TestUint64Config(t *testing.T) {
	ctx := context.Background()
	override := memory.NewConfig(nil)
	c := NewUint64Config(override, 10)

	val, err := c.GetSafe(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, val)

	override.Set(uint64(25))
	assert.EqualValues(t, 25, c.Get(ctx))

	override.Set([]byte("50"))
	assert.EqualValues(t, 50, c.Get(ctx))

	override.Set(75)
	assert.EqualValues(t, 75, c.Get(ctx))

	// Bad values keep the last known good value
	override.Set([]byte("not a number"))
	val, err = c.GetSafe(ctx)
	assert.Error(t, err)
	assert.EqualValues(t, 75, val)

	override.Set(-1)
	val, err = c.GetSafe(ctx)
	assert.Error(t, err)
	assert.EqualValues(t, 75, val)

	override.Set(1.5)
	val, err = c.GetSafe(ctx)
	assert.Equal(t, ErrUnsuportedConversion, err)
	assert.EqualValues(t, 75, val)

	override.SetError(errors.New("source unavailable"))
	val, err = c.GetSafe(ctx)
	assert.Error(t, err)
	assert.EqualValues(t, 75, val)

	override.SetError(nil)
	override.Set(nil)
	assert.EqualValues(t, 10, c.Get(ctx))

	c.Shutdown()
	_, err = c.GetSafe(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}

func TestDurationConfig(t *testing.T) {
	ctx := context.Background()
	override := memory.NewConfig(nil)
	c := NewDurationConfig(override, time.Second)

	assert.Equal(t, time.Second, c.Get(ctx))

	override.Set(time.Minute)
	assert.Equal(t, time.Minute, c.Get(ctx))

	override.Set([]byte("250ms"))
	assert.Equal(t, 250*time.Millisecond, c.Get(ctx))

	override.Set("2h")
	assert.Equal(t, 2*time.Hour, c.Get(ctx))

	override.Set([]byte("soon"))
	val, err := c.GetSafe(ctx)
	assert.Error(t, err)
	assert.Equal(t, 2*time.Hour, val)

	override.Set(true)
	val, err = c.GetSafe(ctx)
	assert.Equal(t, ErrUnsuportedConversion, err)
	assert.Equal(t, 2*time.Hour, val)

	override.Set(nil)
	assert.Equal(t, time.Second, c.Get(ctx))
}
