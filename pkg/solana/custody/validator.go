package custody

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/custody-bridge/pkg/solana"
	"github.com/code-payments/custody-bridge/pkg/solana/token"
)

// Validator checks the accounts of an instruction before anything is
// modified. Checks run in a fixed order and stop at the first failure. No
// check writes to an account, so validation can be repeated safely.
type Validator struct {
	program      ed25519.PublicKey
	tokenProgram ed25519.PublicKey
}

func NewValidator(program, tokenProgram ed25519.PublicKey) *Validator {
	return &Validator{
		program:      program,
		tokenProgram: tokenProgram,
	}
}

// ValidateInitialize checks the admin signature, that the bump derives the
// supplied authority and that the registry belongs to the program.
func (v *Validator) ValidateInitialize(accounts *InitializeContext, cmd *InitializeCommand) error {
	if !accounts.Admin.IsSigner {
		return ErrMissingSignature
	}

	if err := v.checkAuthority(accounts.Authority, cmd.AuthorityBump); err != nil {
		return err
	}

	if !accounts.Registry.IsOwnedBy(v.program) {
		return ErrOwnerMismatch
	}

	return nil
}

// ValidateLockIn returns the decoded registry once every check passes.
func (v *Validator) ValidateLockIn(accounts *LockInContext) (*CustodyRegistry, error) {
	if !accounts.Owner.IsSigner {
		return nil, ErrMissingSignature
	}

	if !bytes.Equal(accounts.TokenProgram.PublicKey, v.tokenProgram) {
		return nil, ErrOwnerMismatch
	}

	if !accounts.Registry.IsOwnedBy(v.program) || !accounts.EventLog.IsOwnedBy(v.program) {
		return nil, ErrOwnerMismatch
	}

	registry, err := loadInitializedRegistry(accounts.Registry)
	if err != nil {
		return nil, err
	}

	authority, err := DeriveAuthority(v.program, registry.AuthorityBump)
	if err != nil {
		return nil, ErrAuthorityMismatch
	}
	if err := v.checkCustodyAsset(accounts.CustodyAsset, authority); err != nil {
		return nil, err
	}

	return registry, nil
}

// ValidateLockOut returns the decoded registry once every check passes. The
// authority must be derived from the bump stored at initialization, so the
// registry's owner is checked before its data is trusted for that bump.
func (v *Validator) ValidateLockOut(accounts *LockOutContext) (*CustodyRegistry, error) {
	if !accounts.Owner.IsSigner {
		return nil, ErrMissingSignature
	}

	if !accounts.Registry.IsOwnedBy(v.program) {
		return nil, ErrOwnerMismatch
	}

	registry, err := loadInitializedRegistry(accounts.Registry)
	if err != nil {
		return nil, err
	}
	if err := v.checkAuthority(accounts.Authority, registry.AuthorityBump); err != nil {
		return nil, err
	}

	if !bytes.Equal(accounts.TokenProgram.PublicKey, v.tokenProgram) {
		return nil, ErrOwnerMismatch
	}

	if err := v.checkCustodyAsset(accounts.CustodyAsset, accounts.Authority.PublicKey); err != nil {
		return nil, err
	}

	return registry, nil
}

func (v *Validator) checkAuthority(authority *solana.AccountInfo, bump uint8) error {
	expected, err := DeriveAuthority(v.program, bump)
	if err != nil {
		return ErrAuthorityMismatch
	}
	if !bytes.Equal(expected, authority.PublicKey) {
		return ErrAuthorityMismatch
	}
	return nil
}

// checkCustodyAsset verifies the vault is a token account held by the
// authority.
func (v *Validator) checkCustodyAsset(info *solana.AccountInfo, authority ed25519.PublicKey) error {
	if !info.IsOwnedBy(v.tokenProgram) {
		return ErrOwnerMismatch
	}

	var vault token.Account
	if !vault.Unmarshal(info.Data) {
		return ErrInvalidAccountData
	}
	if !bytes.Equal(vault.Owner, authority) {
		return ErrOwnerMismatch
	}

	return nil
}

func loadInitializedRegistry(info *solana.AccountInfo) (*CustodyRegistry, error) {
	var registry CustodyRegistry
	if err := registry.Unmarshal(info.Data); err != nil {
		return nil, err
	}
	if !registry.IsInitialized() {
		return nil, ErrUninitializedAccount
	}
	return &registry, nil
}
