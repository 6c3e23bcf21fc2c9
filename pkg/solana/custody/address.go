package custody

import (
	"crypto/ed25519"

	"github.com/code-payments/custody-bridge/pkg/solana"
	"github.com/code-payments/custody-bridge/pkg/solana/token"
)

// AuthoritySeed is the fixed seed of the program derived authority.
const AuthoritySeed = "custody_authority"

// DeriveAuthority computes the program derived authority for an explicit
// bump. It fails when the bump does not produce a valid program address.
func DeriveAuthority(program ed25519.PublicKey, bump uint8) (ed25519.PublicKey, error) {
	return solana.CreateProgramAddress(program, []byte(AuthoritySeed), []byte{bump})
}

// FindAuthority returns the canonical authority and its bump. Clients use it
// to pick the bump stored at initialization.
func FindAuthority(program ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(program, []byte(AuthoritySeed))
}

// AuthoritySignerSeeds returns the seeds the program signs with as the
// authority derived from bump.
func AuthoritySignerSeeds(bump uint8) [][]byte {
	return [][]byte{[]byte(AuthoritySeed), {bump}}
}

// GetVaultAddress returns the custody vault for a mint: the associated token
// account of the authority.
func GetVaultAddress(authority, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	return token.GetAssociatedAccount(authority, mint)
}
