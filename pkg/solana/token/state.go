package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/custody-bridge/pkg/solana/binary"
)

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// AccountSize is the fixed size of a token account.
//
// Layout:
//
//	[mint:32][owner:32][amount:8]
//	[delegate:4+32][state:1][is_native:4+8][delegated_amount:8]
//	[close_authority:4+32]
//
// Optional fields carry a 4 byte tag that is 1 when the value is present.
const AccountSize = 165

const optionSize = 4

// Account is the state of a token account. Custody vaults and owner asset
// accounts are both plain token accounts.
type Account struct {
	Mint   ed25519.PublicKey
	Owner  ed25519.PublicKey
	Amount uint64

	// Delegation and close authority are decoded so that accounts round trip,
	// but the in-memory processor never sets them.
	Delegate        ed25519.PublicKey
	State           AccountState
	IsNative        *uint64
	DelegatedAmount uint64
	CloseAuthority  ed25519.PublicKey
}

func (a *Account) Marshal() []byte {
	b := make([]byte, AccountSize)

	var offset int
	binary.PutKey32(b, a.Mint, &offset)
	binary.PutKey32(b[offset:], a.Owner, &offset)
	binary.PutUint64(b[offset:], a.Amount, &offset)
	binary.PutOptionalKey32(b[offset:], a.Delegate, &offset, optionSize)
	binary.PutUint8(b[offset:], uint8(a.State), &offset)
	binary.PutOptionalUint64(b[offset:], a.IsNative, &offset, optionSize)
	binary.PutUint64(b[offset:], a.DelegatedAmount, &offset)
	binary.PutOptionalKey32(b[offset:], a.CloseAuthority, &offset, optionSize)

	return b
}

// Unmarshal decodes b and reports whether it had the size of a token account.
func (a *Account) Unmarshal(b []byte) bool {
	if len(b) != AccountSize {
		return false
	}

	*a = Account{}

	var offset int
	var state uint8
	binary.GetKey32(b, &a.Mint, &offset)
	binary.GetKey32(b[offset:], &a.Owner, &offset)
	binary.GetUint64(b[offset:], &a.Amount, &offset)
	binary.GetOptionalKey32(b[offset:], &a.Delegate, &offset, optionSize)
	binary.GetUint8(b[offset:], &state, &offset)
	binary.GetOptionalUint64(b[offset:], &a.IsNative, &offset, optionSize)
	binary.GetUint64(b[offset:], &a.DelegatedAmount, &offset)
	binary.GetOptionalKey32(b[offset:], &a.CloseAuthority, &offset, optionSize)
	a.State = AccountState(state)

	return true
}

// IsInitialized reports whether the account may take part in transfers.
func (a *Account) IsInitialized() bool {
	return a.State != AccountStateUninitialized
}

func (a *Account) IsFrozen() bool {
	return a.State == AccountStateFrozen
}

// CheckTransfer reports why amount cannot move from a to dest under
// authority, or nil if it can.
func (a *Account) CheckTransfer(dest *Account, authority ed25519.PublicKey, amount uint64) error {
	switch {
	case a.IsFrozen() || dest.IsFrozen():
		return ErrorAccountFrozen
	case !bytes.Equal(a.Mint, dest.Mint):
		return ErrorMintMismatch
	case !bytes.Equal(a.Owner, authority):
		return ErrorOwnerMismatch
	case a.Amount < amount:
		return ErrorInsufficientFunds
	case dest.Amount+amount < dest.Amount:
		return ErrorOverflow
	}
	return nil
}
