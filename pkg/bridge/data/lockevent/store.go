package lockevent

import (
	"context"
	"errors"

	"github.com/code-payments/custody-bridge/pkg/database/query"
)

var (
	ErrExists   = errors.New("lock event already exists")
	ErrNotFound = errors.New("lock event not found")
)

type Store interface {
	// Save saves a new lock event. ErrExists is returned when an event with
	// the same sequence was already saved for the event log.
	Save(ctx context.Context, record *Record) error

	// GetLatestSequence gets the highest saved sequence for an event log.
	// ErrNotFound is returned when nothing has been saved for it yet.
	GetLatestSequence(ctx context.Context, eventLog string) (uint64, error)

	// GetAll gets a page of lock events for an event log, ordered and paged
	// by sequence.
	GetAll(ctx context.Context, eventLog string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// Count counts the lock events saved for an event log.
	Count(ctx context.Context, eventLog string) (uint64, error)
}
