package custody

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/code-payments/custody-bridge/pkg/solana/binary"
)

// CustodyRecord identifies one locked unit. Owner is the account that signed
// the lock-in and AssetAccount is the token account the unit came from. A
// record is never modified, only removed.
type CustodyRecord struct {
	ForeignAddress ForeignAddress
	Owner          ed25519.PublicKey
	AssetAccount   ed25519.PublicKey
}

// Equals is an exact match on every field.
func (r *CustodyRecord) Equals(other *CustodyRecord) bool {
	return r.ForeignAddress == other.ForeignAddress &&
		bytes.Equal(r.Owner, other.Owner) &&
		bytes.Equal(r.AssetAccount, other.AssetAccount)
}

func (r *CustodyRecord) String() string {
	return fmt.Sprintf(
		"CustodyRecord{foreign_address=%s,owner=%s,asset_account=%s}",
		r.ForeignAddress.String(),
		base58.Encode(r.Owner),
		base58.Encode(r.AssetAccount),
	)
}

// CustodyRegistry is the bounded set of active custody records.
//
// Layout: [bump:1][capacity:2][record_count:4][records: capacity x 96]
//
// A registry is initialized once its capacity is non-zero. Records keep their
// lock-in order.
type CustodyRegistry struct {
	AuthorityBump uint8
	Capacity      uint16
	Records       []CustodyRecord
}

// GetRegistryAccountSize returns the account size needed for capacity records.
func GetRegistryAccountSize(capacity uint16) int {
	return RegistryHeaderSize + int(capacity)*RecordSize
}

func (obj *CustodyRegistry) IsInitialized() bool {
	return obj.Capacity != 0
}

func (obj *CustodyRegistry) IsFull() bool {
	return len(obj.Records) >= int(obj.Capacity)
}

// Initialize sets up an empty registry. dataSize is the size of the backing
// account, which must fit capacity records.
func (obj *CustodyRegistry) Initialize(capacity uint16, bump uint8, dataSize int) error {
	if obj.IsInitialized() {
		return ErrAlreadyInitialized
	}
	if capacity == 0 {
		return ErrInvalidInstruction
	}
	if dataSize < GetRegistryAccountSize(capacity) {
		return ErrInvalidAccountData
	}

	obj.AuthorityBump = bump
	obj.Capacity = capacity
	obj.Records = nil
	return nil
}

// LockIn appends a record. Duplicate records are allowed, since every lock-in
// is an independent unit.
func (obj *CustodyRegistry) LockIn(record CustodyRecord) error {
	if !obj.IsInitialized() {
		return ErrUninitializedAccount
	}
	if obj.IsFull() {
		return ErrRegistryFull
	}

	obj.Records = append(obj.Records, record)
	return nil
}

// Find returns the index of the first record that exactly matches, or -1.
func (obj *CustodyRegistry) Find(record *CustodyRecord) int {
	for i := range obj.Records {
		if obj.Records[i].Equals(record) {
			return i
		}
	}
	return -1
}

// LockOut removes the first record that exactly matches and keeps the order
// of the rest.
func (obj *CustodyRegistry) LockOut(record CustodyRecord) error {
	if !obj.IsInitialized() {
		return ErrUninitializedAccount
	}

	i := obj.Find(&record)
	if i < 0 {
		return ErrRecordNotFound
	}

	records := make([]CustodyRecord, 0, len(obj.Records)-1)
	records = append(records, obj.Records[:i]...)
	records = append(records, obj.Records[i+1:]...)
	obj.Records = records
	return nil
}

// Marshal encodes the registry into GetRegistryAccountSize(Capacity) bytes.
// Unused record slots are zeroed.
func (obj *CustodyRegistry) Marshal() []byte {
	data := make([]byte, GetRegistryAccountSize(obj.Capacity))

	var offset int
	binary.PutUint8(data[offset:], obj.AuthorityBump, &offset)
	binary.PutUint16(data[offset:], obj.Capacity, &offset)
	binary.PutUint32(data[offset:], uint32(len(obj.Records)), &offset)

	for _, record := range obj.Records {
		putForeignAddress(data, record.ForeignAddress, &offset)
		binary.PutKey32(data[offset:], record.Owner, &offset)
		binary.PutKey32(data[offset:], record.AssetAccount, &offset)
	}

	return data
}

// Unmarshal decodes a registry account. An account of zeros decodes to an
// uninitialized registry.
func (obj *CustodyRegistry) Unmarshal(data []byte) error {
	if len(data) < RegistryHeaderSize {
		return ErrInvalidAccountData
	}

	var offset int
	var count uint32
	binary.GetUint8(data[offset:], &obj.AuthorityBump, &offset)
	binary.GetUint16(data[offset:], &obj.Capacity, &offset)
	binary.GetUint32(data[offset:], &count, &offset)

	if count > uint32(obj.Capacity) {
		return ErrInvalidAccountData
	}
	if len(data) < GetRegistryAccountSize(obj.Capacity) {
		return ErrInvalidAccountData
	}

	obj.Records = make([]CustodyRecord, count)
	for i := range obj.Records {
		getForeignAddress(data, &obj.Records[i].ForeignAddress, &offset)
		binary.GetKey32(data[offset:], &obj.Records[i].Owner, &offset)
		binary.GetKey32(data[offset:], &obj.Records[i].AssetAccount, &offset)
	}

	return nil
}

func (obj *CustodyRegistry) String() string {
	records := make([]string, len(obj.Records))
	for i := range obj.Records {
		records[i] = obj.Records[i].String()
	}

	return fmt.Sprintf(
		"CustodyRegistry{authority_bump=%d,capacity=%d,records=[%s]}",
		obj.AuthorityBump,
		obj.Capacity,
		strings.Join(records, ","),
	)
}
