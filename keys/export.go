package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"xdao.co/paperledger/model"
)

// IdentityFromPublicKey encodes an Ed25519 public key as an identity.
func IdentityFromPublicKey(pub ed25519.PublicKey) (model.Identity, error) {
	if l := len(pub); l != ed25519.PublicKeySize {
		return "", fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, l)
	}
	return model.Identity(AlgEd25519 + ":" + base64.StdEncoding.EncodeToString(pub)), nil
}

// IdentityFromDilithium3 encodes a Dilithium3 public key as an identity.
func IdentityFromDilithium3(pub *mode3.PublicKey) (model.Identity, error) {
	if pub == nil {
		return "", fmt.Errorf("missing dilithium3 public key")
	}
	b, err := pub.MarshalBinary()
	if err != nil {
		return "", err
	}
	return model.Identity(AlgDilithium3 + ":" + base64.StdEncoding.EncodeToString(b)), nil
}

// ParseIdentity splits an identity into its algorithm and raw public key and
// checks the key length for that algorithm.
func ParseIdentity(id model.Identity) (alg string, pub []byte, err error) {
	alg, enc, ok := strings.Cut(string(id), ":")
	if !ok {
		return "", nil, fmt.Errorf("identity %q has no algorithm prefix", id)
	}
	pub, err = decodeBase64(enc)
	if err != nil {
		return "", nil, fmt.Errorf("identity public key base64: %w", err)
	}
	switch alg {
	case AlgEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return "", nil, fmt.Errorf("invalid ed25519 public key length %d", len(pub))
		}
	case AlgDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return "", nil, fmt.Errorf("invalid dilithium3 public key: %w", err)
		}
	default:
		return "", nil, fmt.Errorf("unsupported identity algorithm %q", alg)
	}
	return alg, pub, nil
}

func decodeBase64(s string) ([]byte, error) {
	// Prefer standard padded encoding, but accept raw encoding too.
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
