package custody

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLog_AppendOnly(t *testing.T) {
	data := make([]byte, GetEventLogAccountSize(3))

	log, err := NewEventLog(data)
	require.NoError(t, err)
	assert.EqualValues(t, 0, log.Count())
	assert.EqualValues(t, 3, log.MaxEntries())
	assert.True(t, log.HasRoom())
	assert.Empty(t, log.Entries(0, 0))

	var written []ForeignAddress
	for i := 0; i < 3; i++ {
		addr := testForeignAddress(byte(i + 1))
		require.NoError(t, log.Append(addr))
		written = append(written, addr)

		assert.EqualValues(t, i+1, log.Count())
		assert.Equal(t, written, log.Entries(0, 0))
	}

	assert.False(t, log.HasRoom())
	before := append([]byte{}, data...)
	assert.Equal(t, ErrLogFull, log.Append(testForeignAddress(0xff)))
	assert.Equal(t, before, data)

	for i, expected := range written {
		actual, err := log.Entry(uint64(i))
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	}
	_, err = log.Entry(3)
	assert.Error(t, err)
}

func TestEventLog_Layout(t *testing.T) {
	data := make([]byte, GetEventLogAccountSize(2))

	log, err := NewEventLog(data)
	require.NoError(t, err)

	addr := testForeignAddress(0xab)
	require.NoError(t, log.Append(addr))

	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, data[:8])
	assert.Equal(t, addr[:], data[8:40])
	assert.Equal(t, make([]byte, EventLogEntrySize), data[40:72])

	// Reopening the same data sees the entry.
	reopened, err := NewEventLog(data)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reopened.Count())
	assert.Equal(t, []ForeignAddress{addr}, reopened.Entries(0, 0))
}

func TestEventLog_Entries(t *testing.T) {
	log, err := NewEventLog(make([]byte, GetEventLogAccountSize(10)))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, log.Append(testForeignAddress(byte(i))))
	}

	entries := log.Entries(1, 2)
	require.Len(t, entries, 2)
	assert.Equal(t, testForeignAddress(1), entries[0])
	assert.Equal(t, testForeignAddress(2), entries[1])

	assert.Len(t, log.Entries(3, 100), 2)
	assert.Len(t, log.Entries(2, 0), 3)
	assert.Nil(t, log.Entries(5, 0))
}

func TestEventLog_Invalid(t *testing.T) {
	_, err := NewEventLog(make([]byte, EventLogHeaderSize-1))
	assert.Equal(t, ErrInvalidAccountData, err)

	// A header-only account holds no entries.
	log, err := NewEventLog(make([]byte, EventLogHeaderSize))
	require.NoError(t, err)
	assert.False(t, log.HasRoom())
	assert.Equal(t, ErrLogFull, log.Append(testForeignAddress(1)))

	// count larger than the account can hold
	data := make([]byte, GetEventLogAccountSize(1))
	data[7] = 2
	_, err = NewEventLog(data)
	assert.Equal(t, ErrInvalidAccountData, err)
}

func TestEventLog_PartialEntrySpace(t *testing.T) {
	size := GetEventLogAccountSize(2) + EventLogEntrySize - 1
	assert.EqualValues(t, 2, GetEventLogMaxEntries(size))
	assert.EqualValues(t, 0, GetEventLogMaxEntries(EventLogHeaderSize-1))
}

func testForeignAddress(seed byte) ForeignAddress {
	var addr ForeignAddress
	for i := range addr {
		addr[i] = seed + byte(i)
	}
	return addr
}

func TestEventLog_EntriesLargeLimit(t *testing.T) {
	log, err := NewEventLog(make([]byte, GetEventLogAccountSize(4)))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, log.Append(testForeignAddress(byte(i))))
	}

	var entries []ForeignAddress
	require.NotPanics(t, func() {
		entries = log.Entries(1, math.MaxUint64)
	})
	assert.Equal(t, []ForeignAddress{testForeignAddress(1), testForeignAddress(2)}, entries)

	assert.Len(t, log.Entries(0, math.MaxUint64), 3)
	assert.Len(t, log.Entries(2, math.MaxUint64-1), 1)
}
