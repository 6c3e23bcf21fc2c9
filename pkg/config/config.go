// Package config provides dynamic configuration values. A Config yields raw
// values from some source, and the wrapper package turns it into a Typed
// config with a default.
package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNoValue  = errors.New("config: no value set")
	ErrShutdown = errors.New("config: shutdown")
)

// Config yields untyped values from a source.
type Config interface {
	// Get returns the current value, or ErrNoValue if the source has none.
	Get(ctx context.Context) (interface{}, error)

	Shutdown()
}

// Typed is a Config converted to T. Get never fails and falls back to the
// last good value, then the default. GetSafe surfaces source errors.
type Typed[T any] interface {
	Get(ctx context.Context) T
	GetSafe(ctx context.Context) (T, error)
	Shutdown()
}

type (
	Uint64   = Typed[uint64]
	Duration = Typed[time.Duration]
)
