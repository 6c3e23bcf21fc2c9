// Package query holds the cursor paging shared by store implementations.
// Cursors are opaque to callers and encode the last seen value of the paged
// column.
package query

import (
	"encoding/binary"
	"strconv"
)

// Ordering is the direction records are returned in.
type Ordering uint

const (
	Ascending Ordering = iota
	Descending
)

func (o Ordering) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

// Cursor marks a position in a paged result. An empty cursor starts from the
// first record in the requested direction.
type Cursor []byte

var EmptyCursor = Cursor{}

func ToCursor(val uint64) Cursor {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, val)
	return b
}

// Uint64 decodes a cursor made by ToCursor. Shorter cursors are zero padded
// on the left.
func (c Cursor) Uint64() uint64 {
	var b [8]byte
	if len(c) >= 8 {
		copy(b[:], c[len(c)-8:])
	} else {
		copy(b[8-len(c):], c)
	}
	return binary.BigEndian.Uint64(b[:])
}

// PaginateQuery appends cursor, ordering and limit clauses over column to a
// query whose WHERE clause is wrapped in parentheses, and returns the query
// with its extended arguments. Placeholders continue from len(args).
//
//	PaginateQuery("SELECT * FROM t WHERE (a = $1)", []interface{}{x}, "seq", ToCursor(5), 10, Ascending)
//	> "SELECT * FROM t WHERE (a = $1) AND seq > $2 ORDER BY seq ASC LIMIT $3", [x 5 10]
func PaginateQuery(query string, args []interface{}, column string, cursor Cursor, limit uint64, direction Ordering) (string, []interface{}) {
	placeholder := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	comparison, order := ">", "ASC"
	if direction == Descending {
		comparison, order = "<", "DESC"
	}

	if len(cursor) > 0 {
		query += " AND " + column + " " + comparison + " " + placeholder(cursor.Uint64())
	}

	query += " ORDER BY " + column + " " + order

	if limit > 0 {
		query += " LIMIT " + placeholder(limit)
	}

	return query, args
}
