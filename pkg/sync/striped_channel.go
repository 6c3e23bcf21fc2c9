package sync

import (
	"context"
	"sync"
)

const (
	hashEntriesPerChannel = 200
)

// StripedChannel fans values out over a fixed set of channels. Values sent
// with the same key always land on the same channel, so a consumer per
// channel processes each key in order and never concurrently with itself.
type StripedChannel[T any] struct {
	channels []chan T
	hashRing *ring
	once     sync.Once
}

func NewStripedChannel[T any](count, queueSize uint) *StripedChannel[T] {
	channels := make([]chan T, count)
	for i := range channels {
		channels[i] = make(chan T, queueSize)
	}

	return &StripedChannel[T]{
		channels: channels,
		hashRing: newRing("chan", int(count), hashEntriesPerChannel),
	}
}

// Receivers returns one receive channel per stripe.
func (c *StripedChannel[T]) Receivers() []<-chan T {
	receivers := make([]<-chan T, len(c.channels))
	for i, channel := range c.channels {
		receivers[i] = channel
	}
	return receivers
}

// TrySend queues value on the stripe for key without blocking. It reports
// false when that stripe is full.
func (c *StripedChannel[T]) TrySend(key []byte, value T) bool {
	select {
	case c.channels[c.hashRing.shard(key)] <- value:
		return true
	default:
		return false
	}
}

// Send queues value on the stripe for key, waiting for room until ctx is
// done.
func (c *StripedChannel[T]) Send(ctx context.Context, key []byte, value T) error {
	select {
	case c.channels[c.hashRing.shard(key)] <- value:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes every stripe. Sending after Close panics.
func (c *StripedChannel[T]) Close() {
	c.once.Do(func() {
		for _, channel := range c.channels {
			close(channel)
		}
	})
}
