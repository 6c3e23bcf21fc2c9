package custody

import (
	"fmt"

	"github.com/code-payments/custody-bridge/pkg/solana"
)

// Error is a custody program error. Its numeric value is the custom program
// error code reported to callers.
type Error uint32

const (
	// Instruction data could not be decoded
	ErrInvalidInstruction Error = iota + 0x1770

	// Initiating account did not sign
	ErrMissingSignature

	// Supplied authority is not the program derived authority
	ErrAuthorityMismatch

	// Account is not owned by the expected program
	ErrOwnerMismatch

	// Registry was already initialized
	ErrAlreadyInitialized

	// Registry holds capacity records
	ErrRegistryFull

	// No record exactly matches the lock-out request
	ErrRecordNotFound

	// Event log has no room for another entry
	ErrLogFull

	// Token program rejected the transfer
	ErrTransferRejected

	// Fewer accounts than the instruction requires
	ErrNotEnoughAccountKeys

	// Account data does not match the expected layout
	ErrInvalidAccountData

	// Registry has not been initialized
	ErrUninitializedAccount
)

var errorNames = map[Error]string{
	ErrInvalidInstruction:   "invalid instruction",
	ErrMissingSignature:     "missing signature",
	ErrAuthorityMismatch:    "authority mismatch",
	ErrOwnerMismatch:        "owner mismatch",
	ErrAlreadyInitialized:   "already initialized",
	ErrRegistryFull:         "registry full",
	ErrRecordNotFound:       "record not found",
	ErrLogFull:              "log full",
	ErrTransferRejected:     "transfer rejected",
	ErrNotEnoughAccountKeys: "not enough account keys",
	ErrInvalidAccountData:   "invalid account data",
	ErrUninitializedAccount: "uninitialized account",
}

func (e Error) Error() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("unknown custody error: %x", uint32(e))
}

// As exposes the error as a solana.CustomError, which is how hosts report
// program failures.
func (e Error) As(target interface{}) bool {
	ce, ok := target.(*solana.CustomError)
	if !ok {
		return false
	}
	*ce = solana.CustomError(e)
	return true
}

// TransferRejectedError is returned when the token program fails a transfer
// issued by the custody program. The token program's error is kept as the
// cause.
type TransferRejectedError struct {
	Cause error
}

func (e *TransferRejectedError) Error() string {
	if e.Cause == nil {
		return ErrTransferRejected.Error()
	}
	return fmt.Sprintf("%s: %v", ErrTransferRejected.Error(), e.Cause)
}

func (e *TransferRejectedError) Unwrap() error {
	return e.Cause
}

func (e *TransferRejectedError) Is(target error) bool {
	return target == ErrTransferRejected
}

func (e *TransferRejectedError) As(target interface{}) bool {
	switch t := target.(type) {
	case *Error:
		*t = ErrTransferRejected
		return true
	case *solana.CustomError:
		*t = solana.CustomError(ErrTransferRejected)
		return true
	}
	return false
}
