package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/custody-bridge/pkg/bridge/data/lockevent"
	"github.com/code-payments/custody-bridge/pkg/database/query"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres lockevent.Store
func New(db *sql.DB) lockevent.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Save implements lockevent.Store.Save
func (s *store) Save(ctx context.Context, record *lockevent.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	err = model.dbSave(ctx, s.db)
	if err != nil {
		return err
	}

	res, err := fromModel(model)
	if err != nil {
		return err
	}
	res.CopyTo(record)

	return nil
}

// GetLatestSequence implements lockevent.Store.GetLatestSequence
func (s *store) GetLatestSequence(ctx context.Context, eventLog string) (uint64, error) {
	return dbGetLatestSequence(ctx, s.db, eventLog)
}

// GetAll implements lockevent.Store.GetAll
func (s *store) GetAll(ctx context.Context, eventLog string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*lockevent.Record, error) {
	models, err := dbGetAll(ctx, s.db, eventLog, cursor, limit, direction)
	if err != nil {
		return nil, err
	}

	res := make([]*lockevent.Record, len(models))
	for i, model := range models {
		res[i], err = fromModel(model)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Count implements lockevent.Store.Count
func (s *store) Count(ctx context.Context, eventLog string) (uint64, error) {
	return dbCount(ctx, s.db, eventLog)
}
