package testutil

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitFor(t *testing.T) {
	var calls int32
	require.NoError(t, WaitFor(time.Second, time.Millisecond, func() bool {
		return atomic.AddInt32(&calls, 1) >= 3
	}))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))

	err := WaitFor(30*time.Millisecond, 10*time.Millisecond, func() bool {
		return false
	})
	assert.Error(t, err)
}

func TestWaitFor_InvalidArguments(t *testing.T) {
	always := func() bool { return true }

	assert.Error(t, WaitFor(10*time.Millisecond, 20*time.Millisecond, always))
	assert.Error(t, WaitFor(10*time.Millisecond, 0, always))
}
