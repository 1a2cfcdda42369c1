package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"

	"xdao.co/paperledger/model"
)

// ErrBadSignature is returned when a signature does not verify.
var ErrBadSignature = errors.New("keys: signature invalid")

// Signer signs messages on behalf of one identity.
type Signer interface {
	Identity() model.Identity
	Sign(message []byte) ([]byte, error)
}

func digestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %q", hashAlg)
	}
}

// hashFor fixes the pre-hash per signature algorithm.
func hashFor(alg string) string {
	if alg == AlgDilithium3 {
		return "sha3-256"
	}
	return "sha256"
}

type ed25519Signer struct {
	priv ed25519.PrivateKey
	id   model.Identity
}

// NewEd25519Signer returns a Signer for the key derived from seed.
func NewEd25519Signer(seed []byte) (Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &ed25519Signer{priv: ed25519.NewKeyFromSeed(seed), id: IdentityFromSeed(seed)}, nil
}

func (s *ed25519Signer) Identity() model.Identity { return s.id }

func (s *ed25519Signer) Sign(message []byte) ([]byte, error) {
	digest, err := digestFor(hashFor(AlgEd25519), message)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(s.priv, digest), nil
}

type dilithium3Signer struct {
	priv *mode3.PrivateKey
	id   model.Identity
}

// NewDilithium3Signer returns a post-quantum Signer for the given keypair.
func NewDilithium3Signer(pub *mode3.PublicKey, priv *mode3.PrivateKey) (Signer, error) {
	if priv == nil {
		return nil, fmt.Errorf("missing private key")
	}
	id, err := IdentityFromDilithium3(pub)
	if err != nil {
		return nil, err
	}
	return &dilithium3Signer{priv: priv, id: id}, nil
}

func (s *dilithium3Signer) Identity() model.Identity { return s.id }

func (s *dilithium3Signer) Sign(message []byte) ([]byte, error) {
	digest, err := digestFor(hashFor(AlgDilithium3), message)
	if err != nil {
		return nil, err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.priv, digest, sig)
	return sig, nil
}

// GenerateDilithium3Keypair returns a new Dilithium3 keypair.
func GenerateDilithium3Keypair(rand io.Reader) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	return mode3.GenerateKey(rand)
}

// Verify checks sig over message against the public key embedded in id.
func Verify(id model.Identity, message, sig []byte) error {
	alg, pub, err := ParseIdentity(id)
	if err != nil {
		return err
	}
	digest, err := digestFor(hashFor(alg), message)
	if err != nil {
		return err
	}
	switch alg {
	case AlgEd25519:
		if len(sig) != ed25519.SignatureSize || !ed25519.Verify(ed25519.PublicKey(pub), digest, sig) {
			return ErrBadSignature
		}
	case AlgDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return err
		}
		if len(sig) != mode3.SignatureSize || !mode3.Verify(&pk, digest, sig) {
			return ErrBadSignature
		}
	}
	return nil
}

// versionMessage binds a signature to the content it covers.
func versionMessage(contentID string, hash model.ContentHash) []byte {
	msg := make([]byte, 0, len("paperledger-version-v1\n")+len(contentID)+1+model.ContentHashSize)
	msg = append(msg, "paperledger-version-v1\n"...)
	msg = append(msg, contentID...)
	msg = append(msg, '\n')
	return append(msg, hash[:]...)
}

// SignVersion produces the signature blob a client attaches to a version.
func SignVersion(s Signer, contentID string, hash model.ContentHash) ([]byte, error) {
	return s.Sign(versionMessage(contentID, hash))
}

// VerifyVersion checks a version signature produced by SignVersion.
func VerifyVersion(id model.Identity, contentID string, hash model.ContentHash, sig []byte) error {
	return Verify(id, versionMessage(contentID, hash), sig)
}

// RequestMessage is the byte string signed to authenticate one RPC call. It
// binds the method, caller, timestamp, a per-call nonce and a sha256 digest of
// the encoded request body.
func RequestMessage(method string, id model.Identity, at time.Time, nonce string, body []byte) []byte {
	sum := sha256.Sum256(body)
	return []byte("paperledger-request-v2\n" + method + "\n" + string(id) + "\n" +
		strconv.FormatInt(at.UnixMilli(), 10) + "\n" + nonce + "\n" + hex.EncodeToString(sum[:]))
}

// SignRequest signs the request message for method at time at over body.
func SignRequest(s Signer, method string, at time.Time, nonce string, body []byte) ([]byte, error) {
	return s.Sign(RequestMessage(method, s.Identity(), at, nonce, body))
}

// VerifyRequest checks a signature produced by SignRequest.
func VerifyRequest(id model.Identity, method string, at time.Time, nonce string, body, sig []byte) error {
	return Verify(id, RequestMessage(method, id, at, nonce, body), sig)
}
