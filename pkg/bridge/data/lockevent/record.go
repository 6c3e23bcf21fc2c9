package lockevent

import (
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/custody-bridge/pkg/solana/custody"
)

// Record is a single lock-in observed in a custody event log. Sequence is the
// zero-based index of the entry within the log, so (EventLog, Sequence) is
// unique.
type Record struct {
	Id uint64

	EventLog       string
	Sequence       uint64
	ForeignAddress custody.ForeignAddress

	CreatedAt time.Time
}

func (r *Record) Validate() error {
	if len(r.EventLog) == 0 {
		return errors.New("event log is required")
	}

	decoded, err := base58.Decode(r.EventLog)
	if err != nil || len(decoded) != 32 {
		return errors.New("event log must be a base58 encoded public key")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		EventLog:       r.EventLog,
		Sequence:       r.Sequence,
		ForeignAddress: r.ForeignAddress,

		CreatedAt: r.CreatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.EventLog = r.EventLog
	dst.Sequence = r.Sequence
	dst.ForeignAddress = r.ForeignAddress

	dst.CreatedAt = r.CreatedAt
}
