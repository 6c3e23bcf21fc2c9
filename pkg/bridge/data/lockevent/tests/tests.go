package tests

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-bridge/pkg/bridge/data/lockevent"
	"github.com/code-payments/custody-bridge/pkg/database/query"
	"github.com/code-payments/custody-bridge/pkg/solana/custody"
)

func RunTests(t *testing.T, s lockevent.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s lockevent.Store){
		testRoundTrip,
		testInvalidRecord,
		testMultipleEventLogs,
		testPaging,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s lockevent.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		start := time.Now()
		eventLog := generateEventLog(t)

		_, err := s.GetLatestSequence(ctx, eventLog)
		assert.Equal(t, lockevent.ErrNotFound, err)

		_, err = s.GetAll(ctx, eventLog, query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, lockevent.ErrNotFound, err)

		count, err := s.Count(ctx, eventLog)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		record := &lockevent.Record{
			EventLog:       eventLog,
			Sequence:       0,
			ForeignAddress: generateForeignAddress(1),
		}
		cloned := record.Clone()

		require.NoError(t, s.Save(ctx, record))
		assert.True(t, record.Id > 0)
		assert.True(t, record.CreatedAt.After(start))

		sequence, err := s.GetLatestSequence(ctx, eventLog)
		require.NoError(t, err)
		assert.EqualValues(t, 0, sequence)

		actual, err := s.GetAll(ctx, eventLog, query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assertEquivalentRecords(t, &cloned, actual[0])

		// Same sequence, different address
		duplicate := &lockevent.Record{
			EventLog:       eventLog,
			Sequence:       0,
			ForeignAddress: generateForeignAddress(2),
		}
		assert.Equal(t, lockevent.ErrExists, s.Save(ctx, duplicate))

		actual, err = s.GetAll(ctx, eventLog, query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assertEquivalentRecords(t, &cloned, actual[0])

		count, err = s.Count(ctx, eventLog)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func testInvalidRecord(t *testing.T, s lockevent.Store) {
	t.Run("testInvalidRecord", func(t *testing.T) {
		ctx := context.Background()

		assert.Error(t, s.Save(ctx, &lockevent.Record{}))
		assert.Error(t, s.Save(ctx, &lockevent.Record{EventLog: "not-base58-0OIl"}))
		assert.Error(t, s.Save(ctx, &lockevent.Record{EventLog: base58.Encode([]byte{1, 2, 3})}))
	})
}

func testMultipleEventLogs(t *testing.T, s lockevent.Store) {
	t.Run("testMultipleEventLogs", func(t *testing.T) {
		ctx := context.Background()
		eventLog1 := generateEventLog(t)
		eventLog2 := generateEventLog(t)

		for i := 0; i < 3; i++ {
			require.NoError(t, s.Save(ctx, &lockevent.Record{
				EventLog:       eventLog1,
				Sequence:       uint64(i),
				ForeignAddress: generateForeignAddress(byte(i)),
			}))
		}

		// The same sequence can exist in different event logs
		require.NoError(t, s.Save(ctx, &lockevent.Record{
			EventLog:       eventLog2,
			Sequence:       0,
			ForeignAddress: generateForeignAddress(100),
		}))

		sequence, err := s.GetLatestSequence(ctx, eventLog1)
		require.NoError(t, err)
		assert.EqualValues(t, 2, sequence)

		sequence, err = s.GetLatestSequence(ctx, eventLog2)
		require.NoError(t, err)
		assert.EqualValues(t, 0, sequence)

		count, err := s.Count(ctx, eventLog1)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)

		count, err = s.Count(ctx, eventLog2)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		actual, err := s.GetAll(ctx, eventLog2, query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assert.Equal(t, generateForeignAddress(100), actual[0].ForeignAddress)
	})
}

func testPaging(t *testing.T, s lockevent.Store) {
	t.Run("testPaging", func(t *testing.T) {
		ctx := context.Background()
		eventLog := generateEventLog(t)

		// Saved out of order, which happens when multiple relays race
		for _, sequence := range []uint64{3, 0, 4, 1, 2} {
			require.NoError(t, s.Save(ctx, &lockevent.Record{
				EventLog:       eventLog,
				Sequence:       sequence,
				ForeignAddress: generateForeignAddress(byte(sequence)),
			}))
		}

		sequence, err := s.GetLatestSequence(ctx, eventLog)
		require.NoError(t, err)
		assert.EqualValues(t, 4, sequence)

		actual, err := s.GetAll(ctx, eventLog, query.EmptyCursor, 0, query.Ascending)
		require.NoError(t, err)
		assertSequences(t, actual, 0, 1, 2, 3, 4)

		actual, err = s.GetAll(ctx, eventLog, query.EmptyCursor, 2, query.Ascending)
		require.NoError(t, err)
		assertSequences(t, actual, 0, 1)

		actual, err = s.GetAll(ctx, eventLog, query.ToCursor(1), 2, query.Ascending)
		require.NoError(t, err)
		assertSequences(t, actual, 2, 3)

		actual, err = s.GetAll(ctx, eventLog, query.ToCursor(3), 10, query.Ascending)
		require.NoError(t, err)
		assertSequences(t, actual, 4)

		_, err = s.GetAll(ctx, eventLog, query.ToCursor(4), 10, query.Ascending)
		assert.Equal(t, lockevent.ErrNotFound, err)

		actual, err = s.GetAll(ctx, eventLog, query.EmptyCursor, 2, query.Descending)
		require.NoError(t, err)
		assertSequences(t, actual, 4, 3)

		actual, err = s.GetAll(ctx, eventLog, query.ToCursor(3), 10, query.Descending)
		require.NoError(t, err)
		assertSequences(t, actual, 2, 1, 0)

		_, err = s.GetAll(ctx, eventLog, query.ToCursor(0), 10, query.Descending)
		assert.Equal(t, lockevent.ErrNotFound, err)

		for _, record := range actual {
			assert.Equal(t, generateForeignAddress(byte(record.Sequence)), record.ForeignAddress)
		}
	})
}

func assertSequences(t *testing.T, records []*lockevent.Record, expected ...uint64) {
	require.Len(t, records, len(expected))
	for i, record := range records {
		assert.Equal(t, expected[i], record.Sequence, fmt.Sprintf("record %d", i))
	}
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *lockevent.Record) {
	assert.Equal(t, obj1.EventLog, obj2.EventLog)
	assert.Equal(t, obj1.Sequence, obj2.Sequence)
	assert.Equal(t, obj1.ForeignAddress, obj2.ForeignAddress)
}

func generateEventLog(t *testing.T) string {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return base58.Encode(pub)
}

func generateForeignAddress(seed byte) custody.ForeignAddress {
	var addr custody.ForeignAddress
	for i := range addr {
		addr[i] = seed + byte(i)
	}
	return addr
}
