package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"xdao.co/paperledger/model"
)

const (
	AlgEd25519    = "ed25519"
	AlgDilithium3 = "dilithium3"
)

// IdentityFromSeed returns the identity of the Ed25519 key derived from seed.
func IdentityFromSeed(seed []byte) model.Identity {
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return model.Identity(AlgEd25519 + ":" + base64.StdEncoding.EncodeToString(pub))
}

// DeriveRoleSeed deterministically derives a role-specific Ed25519 seed from a
// root seed, so one root key can hold separate author and auditor identities.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", ed25519.SeedSize)
	}
	if err := CheckName(role); err != nil {
		return nil, fmt.Errorf("role: %w", err)
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("xdao-paperledger-role-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(role))
	return h.Sum(nil)[:ed25519.SeedSize], nil
}
