package custody

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// ForeignAddress is an address on the ledger a locked unit is bridged to.
type ForeignAddress [ForeignAddressSize]byte

// ParseForeignAddress parses a hex encoded address, with or without a 0x
// prefix.
func ParseForeignAddress(value string) (ForeignAddress, error) {
	var addr ForeignAddress

	decoded, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(value), "0x"))
	if err != nil {
		return addr, errors.Wrap(err, "invalid hex encoding")
	}
	if len(decoded) != ForeignAddressSize {
		return addr, errors.Errorf("invalid foreign address size: %d", len(decoded))
	}

	copy(addr[:], decoded)
	return addr, nil
}

func (a ForeignAddress) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func putForeignAddress(dst []byte, v ForeignAddress, offset *int) {
	copy(dst[*offset:], v[:])
	*offset += ForeignAddressSize
}

func getForeignAddress(src []byte, dst *ForeignAddress, offset *int) {
	copy(dst[:], src[*offset:])
	*offset += ForeignAddressSize
}
