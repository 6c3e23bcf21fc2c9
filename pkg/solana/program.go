package solana

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
)

// ErrNoInvoker is returned when a program attempts a cross-program invocation
// from a context that does not support one.
var ErrNoInvoker = errors.New("cross-program invocation not supported")

// AccountInfo is an account as seen by a program while it executes. Data may
// be modified in place when the account is writable and owned by the
// executing program. Its length cannot change.
type AccountInfo struct {
	PublicKey  ed25519.PublicKey
	Owner      ed25519.PublicKey
	Data       []byte
	IsSigner   bool
	IsWritable bool
}

// Clone returns a deep copy of the account.
func (a *AccountInfo) Clone() *AccountInfo {
	if a == nil {
		return nil
	}

	clone := &AccountInfo{
		PublicKey:  append(ed25519.PublicKey{}, a.PublicKey...),
		Owner:      append(ed25519.PublicKey{}, a.Owner...),
		IsSigner:   a.IsSigner,
		IsWritable: a.IsWritable,
	}
	if a.Data != nil {
		clone.Data = make([]byte, len(a.Data))
		copy(clone.Data, a.Data)
	}
	return clone
}

// IsOwnedBy reports whether owner is the program that owns the account.
func (a *AccountInfo) IsOwnedBy(owner ed25519.PublicKey) bool {
	return bytes.Equal(a.Owner, owner)
}

// Invoker performs cross-program invocations on behalf of the program that is
// currently executing. Each entry of signerSeeds is the seed list of a program
// address, derived from the calling program, that signs the invocation.
type Invoker interface {
	Invoke(ctx context.Context, instruction Instruction, signerSeeds ...[][]byte) error
}

// ExecutionContext holds what a program needs to process one instruction.
type ExecutionContext struct {
	ProgramID ed25519.PublicKey
	Accounts  []*AccountInfo
	Data      []byte

	Invoker Invoker
}

// Invoke forwards a cross-program invocation to the host.
func (c *ExecutionContext) Invoke(ctx context.Context, instruction Instruction, signerSeeds ...[][]byte) error {
	if c.Invoker == nil {
		return ErrNoInvoker
	}
	return c.Invoker.Invoke(ctx, instruction, signerSeeds...)
}

// Program is a natively executed program.
type Program interface {
	Execute(ctx context.Context, exec *ExecutionContext) error
}

// ProgramFunc adapts a function to the Program interface.
type ProgramFunc func(ctx context.Context, exec *ExecutionContext) error

func (f ProgramFunc) Execute(ctx context.Context, exec *ExecutionContext) error {
	return f(ctx, exec)
}
