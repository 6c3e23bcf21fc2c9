package ledger

import (
	"github.com/pkg/errors"
)

var (
	ErrAccountNotFound          = errors.New("account not found")
	ErrProgramAlreadyRegistered = errors.New("program already registered")
	ErrInvalidAccountData       = errors.New("invalid account data")
	ErrRateLimited              = errors.New("fee payer is rate limited")
)
