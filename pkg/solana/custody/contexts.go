package custody

import (
	"github.com/code-payments/custody-bridge/pkg/solana"
)

// InitializeContext holds the accounts of an Initialize instruction.
type InitializeContext struct {
	Admin     *solana.AccountInfo
	Registry  *solana.AccountInfo
	Authority *solana.AccountInfo
}

// LockInContext holds the accounts of a LockIn instruction.
type LockInContext struct {
	Owner        *solana.AccountInfo
	OwnerAsset   *solana.AccountInfo
	CustodyAsset *solana.AccountInfo
	Registry     *solana.AccountInfo
	EventLog     *solana.AccountInfo
	TokenProgram *solana.AccountInfo
}

// LockOutContext holds the accounts of a LockOut instruction.
type LockOutContext struct {
	Owner        *solana.AccountInfo
	OwnerAsset   *solana.AccountInfo
	CustodyAsset *solana.AccountInfo
	Registry     *solana.AccountInfo
	Authority    *solana.AccountInfo
	TokenProgram *solana.AccountInfo
}

// Extra trailing accounts are ignored by every bind function.

func BindInitializeContext(accounts []*solana.AccountInfo) (*InitializeContext, error) {
	if len(accounts) < 3 {
		return nil, ErrNotEnoughAccountKeys
	}

	return &InitializeContext{
		Admin:     accounts[0],
		Registry:  accounts[1],
		Authority: accounts[2],
	}, nil
}

func BindLockInContext(accounts []*solana.AccountInfo) (*LockInContext, error) {
	if len(accounts) < 6 {
		return nil, ErrNotEnoughAccountKeys
	}

	return &LockInContext{
		Owner:        accounts[0],
		OwnerAsset:   accounts[1],
		CustodyAsset: accounts[2],
		Registry:     accounts[3],
		EventLog:     accounts[4],
		TokenProgram: accounts[5],
	}, nil
}

func BindLockOutContext(accounts []*solana.AccountInfo) (*LockOutContext, error) {
	if len(accounts) < 6 {
		return nil, ErrNotEnoughAccountKeys
	}

	return &LockOutContext{
		Owner:        accounts[0],
		OwnerAsset:   accounts[1],
		CustodyAsset: accounts[2],
		Registry:     accounts[3],
		Authority:    accounts[4],
		TokenProgram: accounts[5],
	}, nil
}
