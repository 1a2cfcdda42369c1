// Package keys mints ledger identities and produces the signatures that travel
// with papers and requests.
//
// An identity is "<alg>:<base64 public key>" with alg ed25519 or dilithium3.
// Because the public key is embedded, anyone holding an identity can verify
// signatures made by it, which is what lets the transport treat a verified
// identity as unforgeable.
//
// Version signatures are opaque to the ledger; they are produced here only as
// a convenience for clients.
package keys
