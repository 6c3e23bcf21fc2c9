package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/code-payments/custody-bridge/pkg/bridge/data/lockevent"
	"github.com/code-payments/custody-bridge/pkg/database/query"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*lockevent.Record
}

// New returns a new in memory lockevent.Store
func New() lockevent.Store {
	return &store{}
}

// Save implements lockevent.Store.Save
func (s *store) Save(_ context.Context, data *lockevent.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.find(data.EventLog, data.Sequence); item != nil {
		return lockevent.ErrExists
	}

	s.last++

	data.Id = s.last
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}

	cloned := data.Clone()
	s.records = append(s.records, &cloned)

	return nil
}

// GetLatestSequence implements lockevent.Store.GetLatestSequence
func (s *store) GetLatestSequence(_ context.Context, eventLog string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.findByEventLog(eventLog)
	if len(items) == 0 {
		return 0, lockevent.ErrNotFound
	}
	return items[len(items)-1].Sequence, nil
}

// GetAll implements lockevent.Store.GetAll
func (s *store) GetAll(_ context.Context, eventLog string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*lockevent.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.findByEventLog(eventLog)
	if direction == query.Descending {
		sort.Slice(items, func(i, j int) bool {
			return items[i].Sequence > items[j].Sequence
		})
	}

	var res []*lockevent.Record
	for _, item := range items {
		if len(cursor) > 0 {
			if direction == query.Ascending && item.Sequence <= cursor.Uint64() {
				continue
			}
			if direction == query.Descending && item.Sequence >= cursor.Uint64() {
				continue
			}
		}

		cloned := item.Clone()
		res = append(res, &cloned)

		if limit > 0 && uint64(len(res)) >= limit {
			break
		}
	}

	if len(res) == 0 {
		return nil, lockevent.ErrNotFound
	}
	return res, nil
}

// Count implements lockevent.Store.Count
func (s *store) Count(_ context.Context, eventLog string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return uint64(len(s.findByEventLog(eventLog))), nil
}

func (s *store) find(eventLog string, sequence uint64) *lockevent.Record {
	for _, item := range s.records {
		if item.EventLog == eventLog && item.Sequence == sequence {
			return item
		}
	}
	return nil
}

// findByEventLog returns the event log's records in ascending sequence order
func (s *store) findByEventLog(eventLog string) []*lockevent.Record {
	var res []*lockevent.Record
	for _, item := range s.records {
		if item.EventLog == eventLog {
			res = append(res, item)
		}
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].Sequence < res[j].Sequence
	})
	return res
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = 0
	s.records = nil
}
