// Package storage is the ledger's view of the external content-addressed
// store that holds paper bytes. The ledger itself only records content ids
// and hashes; this package lets clients and the daemon move the bytes.
package storage

import (
	"github.com/ipfs/go-cid"

	"xdao.co/paperledger/cidutil"
	"xdao.co/paperledger/model"
)

// CAS is a minimal content-addressable storage interface.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be CIDv1 raw sha2-256 of the bytes written.
// - Get MUST return ErrNotFound when the CID is absent.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// Ref identifies stored content the way the ledger records it.
type Ref struct {
	CID  cid.Cid
	Hash model.ContentHash
	Size int
}

// ContentID is the string form recorded as a version's content id.
func (r Ref) ContentID() string { return r.CID.String() }

// Ingest stores data in cas and returns its ledger reference.
func Ingest(cas CAS, data []byte) (Ref, error) {
	want, hash, err := cidutil.ContentRef(data)
	if err != nil {
		return Ref{}, err
	}
	got, err := cas.Put(data)
	if err != nil {
		return Ref{}, err
	}
	if !got.Equals(want) {
		return Ref{}, ErrCIDMismatch
	}
	return Ref{CID: got, Hash: hash, Size: len(data)}, nil
}

// Fetch reads the bytes for a content id string and verifies them against
// the expected hash when one is given.
func Fetch(cas CAS, contentID string, expect model.ContentHash) ([]byte, error) {
	id, hash, err := cidutil.ParseContentID(contentID)
	if err != nil {
		return nil, ErrInvalidCID
	}
	if !expect.IsZero() && hash != expect {
		return nil, ErrCIDMismatch
	}
	return cas.Get(id)
}
