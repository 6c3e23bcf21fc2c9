package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/custody-bridge/pkg/bridge/data/lockevent"
	pgutil "github.com/code-payments/custody-bridge/pkg/database/postgres"
	"github.com/code-payments/custody-bridge/pkg/database/query"
	"github.com/code-payments/custody-bridge/pkg/solana/custody"
)

const (
	tableName = "custodybridge__core_lockevent"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	EventLog       string `db:"event_log"`
	Sequence       int64  `db:"sequence"`
	ForeignAddress string `db:"foreign_address"`

	CreatedAt time.Time `db:"created_at"`
}

func toModel(obj *lockevent.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		EventLog:       obj.EventLog,
		Sequence:       int64(obj.Sequence),
		ForeignAddress: obj.ForeignAddress.String(),

		CreatedAt: obj.CreatedAt,
	}, nil
}

func fromModel(obj *model) (*lockevent.Record, error) {
	foreignAddress, err := custody.ParseForeignAddress(obj.ForeignAddress)
	if err != nil {
		return nil, err
	}

	return &lockevent.Record{
		Id: uint64(obj.Id.Int64),

		EventLog:       obj.EventLog,
		Sequence:       uint64(obj.Sequence),
		ForeignAddress: foreignAddress,

		CreatedAt: obj.CreatedAt,
	}, nil
}

func (m *model) dbSave(ctx context.Context, db *sqlx.DB) error {
	query := `INSERT INTO ` + tableName + `
		(event_log, sequence, foreign_address, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, event_log, sequence, foreign_address, created_at`

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	err := db.QueryRowxContext(
		ctx,
		query,
		m.EventLog,
		m.Sequence,
		m.ForeignAddress,
		m.CreatedAt,
	).StructScan(m)
	return pgutil.CheckUniqueViolation(err, lockevent.ErrExists)
}

func dbGetLatestSequence(ctx context.Context, db *sqlx.DB, eventLog string) (uint64, error) {
	var res sql.NullInt64

	query := `SELECT MAX(sequence) FROM ` + tableName + `
		WHERE event_log = $1
	`

	err := db.GetContext(ctx, &res, query, eventLog)
	if err != nil {
		return 0, err
	}

	if !res.Valid {
		return 0, lockevent.ErrNotFound
	}
	return uint64(res.Int64), nil
}

func dbGetAll(ctx context.Context, db *sqlx.DB, eventLog string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*model, error) {
	res := []*model{}

	q := `SELECT id, event_log, sequence, foreign_address, created_at FROM ` + tableName + `
		WHERE (event_log = $1)
	`
	q, args := query.PaginateQuery(q, []interface{}{eventLog}, "sequence", cursor, limit, direction)

	err := pgutil.ExecuteInTx(ctx, db, sql.LevelRepeatableRead, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &res, q, args...)
	})
	if err != nil {
		return nil, pgutil.CheckNoRows(err, lockevent.ErrNotFound)
	}

	if len(res) == 0 {
		return nil, lockevent.ErrNotFound
	}
	return res, nil
}

func dbCount(ctx context.Context, db *sqlx.DB, eventLog string) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName + `
		WHERE event_log = $1
	`

	err := db.GetContext(ctx, &res, query, eventLog)
	if err != nil {
		return 0, err
	}
	return res, nil
}
