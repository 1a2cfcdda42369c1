// Package cidutil binds file bytes to the two identifiers the ledger records:
// a CIDv1 content id (raw codec, sha2-256 multihash) and the bare 32 byte
// sha2-256 content hash. Both carry the same digest.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/paperledger/model"
)

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// ContentRef returns the content id and content hash of data.
func ContentRef(data []byte) (cid.Cid, model.ContentHash, error) {
	id, err := CIDv1RawSHA256CID(data)
	if err != nil {
		return cid.Undef, model.ContentHash{}, err
	}
	h, err := HashFromCID(id)
	if err != nil {
		return cid.Undef, model.ContentHash{}, err
	}
	return id, h, nil
}

// HashFromCID extracts the sha2-256 digest carried by id.
func HashFromCID(id cid.Cid) (model.ContentHash, error) {
	if !id.Defined() {
		return model.ContentHash{}, model.Errorf(model.KindInvalidArgument, "undefined cid")
	}
	dec, err := multihash.Decode(id.Hash())
	if err != nil {
		return model.ContentHash{}, model.Wrap(model.KindInvalidArgument, "decode multihash", err)
	}
	if dec.Code != multihash.SHA2_256 {
		return model.ContentHash{}, model.Errorf(model.KindInvalidArgument, "cid %s is not sha2-256 (code 0x%x)", id, dec.Code)
	}
	return model.ContentHashFromBytes(dec.Digest)
}

// CIDFromHash rebuilds the raw CIDv1 for a content hash.
func CIDFromHash(h model.ContentHash) (cid.Cid, error) {
	mh, err := multihash.Encode(h[:], multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// ParseContentID decodes s and requires a raw sha2-256 CID.
func ParseContentID(s string) (cid.Cid, model.ContentHash, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, model.ContentHash{}, model.Wrap(model.KindInvalidArgument, fmt.Sprintf("decode cid %q", s), err)
	}
	h, err := HashFromCID(id)
	if err != nil {
		return cid.Undef, model.ContentHash{}, err
	}
	return id, h, nil
}
