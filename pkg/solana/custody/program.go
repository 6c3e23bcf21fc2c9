// Package custody implements the custody bridge program. Lock-in moves a
// single token unit from a caller into a vault controlled by the program
// derived authority and records the foreign address it is bridged to.
// Lock-out releases a unit back to the caller that locked it.
package custody

import (
	"crypto/ed25519"
)

const (
	ForeignAddressSize = 32

	// foreign_address + owner + asset_account
	RecordSize = ForeignAddressSize + ed25519.PublicKeySize + ed25519.PublicKeySize

	// bump + capacity + record_count
	RegistryHeaderSize = 1 + 2 + 4

	EventLogHeaderSize = 8
	EventLogEntrySize  = ForeignAddressSize

	// TransferAmount is the number of token units moved by every lock-in and
	// lock-out.
	TransferAmount = 1
)
