package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginateQuery(t *testing.T) {
	base := "SELECT * FROM events WHERE (event_log = $1)"

	for _, tc := range []struct {
		cursor    Cursor
		limit     uint64
		direction Ordering
		query     string
		args      []interface{}
	}{
		{
			direction: Ascending,
			query:     base + " ORDER BY sequence ASC",
			args:      []interface{}{"log"},
		},
		{
			cursor:    ToCursor(5),
			limit:     10,
			direction: Ascending,
			query:     base + " AND sequence > $2 ORDER BY sequence ASC LIMIT $3",
			args:      []interface{}{"log", uint64(5), uint64(10)},
		},
		{
			cursor:    ToCursor(5),
			direction: Descending,
			query:     base + " AND sequence < $2 ORDER BY sequence DESC",
			args:      []interface{}{"log", uint64(5)},
		},
		{
			cursor:    EmptyCursor,
			limit:     3,
			direction: Descending,
			query:     base + " ORDER BY sequence DESC LIMIT $2",
			args:      []interface{}{"log", uint64(3)},
		},
	} {
		query, args := PaginateQuery(base, []interface{}{"log"}, "sequence", tc.cursor, tc.limit, tc.direction)
		assert.Equal(t, tc.query, query)
		assert.Equal(t, tc.args, args)
	}
}

func TestCursor(t *testing.T) {
	assert.EqualValues(t, 0, EmptyCursor.Uint64())
	assert.EqualValues(t, 1<<40+7, ToCursor(1<<40+7).Uint64())
	assert.EqualValues(t, 0x0102, Cursor{0x01, 0x02}.Uint64())
	assert.Len(t, ToCursor(1), 8)
}

func TestOrdering(t *testing.T) {
	assert.Equal(t, "asc", Ascending.String())
	assert.Equal(t, "desc", Descending.String())
}
