package custody

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/custody-bridge/pkg/solana/binary"
)

// EventLog is an append-only view over an event log account.
//
// Layout: [count:8 big endian][entries: count x 32]
//
// The account size is fixed when the account is created, which bounds the
// number of entries the log can ever hold. Entries are never removed or
// overwritten.
type EventLog struct {
	data []byte
}

// GetEventLogAccountSize returns the account size for a log that can hold
// maxEntries entries.
func GetEventLogAccountSize(maxEntries uint64) int {
	return EventLogHeaderSize + int(maxEntries)*EventLogEntrySize
}

// GetEventLogMaxEntries returns the number of entries an account of the given
// size can hold.
func GetEventLogMaxEntries(size int) uint64 {
	if size < EventLogHeaderSize {
		return 0
	}
	return uint64((size - EventLogHeaderSize) / EventLogEntrySize)
}

// NewEventLog wraps account data. Writes go directly to data.
func NewEventLog(data []byte) (*EventLog, error) {
	if len(data) < EventLogHeaderSize {
		return nil, ErrInvalidAccountData
	}

	log := &EventLog{data: data}
	if log.Count() > log.MaxEntries() {
		return nil, ErrInvalidAccountData
	}
	return log, nil
}

// Count returns the number of entries written.
func (l *EventLog) Count() uint64 {
	var count uint64
	var offset int
	binary.GetUint64BE(l.data, &count, &offset)
	return count
}

func (l *EventLog) MaxEntries() uint64 {
	return GetEventLogMaxEntries(len(l.data))
}

// HasRoom reports whether another entry fits.
func (l *EventLog) HasRoom() bool {
	return l.Count() < l.MaxEntries()
}

// Append writes addr after the last entry and then bumps the count.
func (l *EventLog) Append(addr ForeignAddress) error {
	count := l.Count()
	if !l.HasRoom() {
		return ErrLogFull
	}

	offset := EventLogHeaderSize + int(count)*EventLogEntrySize
	putForeignAddress(l.data, addr, &offset)

	offset = 0
	binary.PutUint64BE(l.data, count+1, &offset)
	return nil
}

// Entry returns the entry at index i.
func (l *EventLog) Entry(i uint64) (ForeignAddress, error) {
	var addr ForeignAddress
	if i >= l.Count() {
		return addr, errors.Errorf("entry %d out of range (count=%d)", i, l.Count())
	}

	offset := EventLogHeaderSize + int(i)*EventLogEntrySize
	getForeignAddress(l.data, &addr, &offset)
	return addr, nil
}

// Entries returns up to limit entries starting at index from. A limit of zero
// returns every remaining entry.
func (l *EventLog) Entries(from, limit uint64) []ForeignAddress {
	count := l.Count()
	if from >= count {
		return nil
	}

	end := count
	if limit > 0 && limit < count-from {
		end = from + limit
	}

	entries := make([]ForeignAddress, 0, end-from)
	offset := EventLogHeaderSize + int(from)*EventLogEntrySize
	for i := from; i < end; i++ {
		var addr ForeignAddress
		getForeignAddress(l.data, &addr, &offset)
		entries = append(entries, addr)
	}
	return entries
}

func (l *EventLog) String() string {
	return fmt.Sprintf("EventLog{count=%d,max_entries=%d}", l.Count(), l.MaxEntries())
}
