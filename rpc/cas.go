package rpc

import (
	"context"

	"github.com/ipfs/go-cid"

	"xdao.co/paperledger/storage"
)

// ContentStore adapts a Client's content calls to storage.CAS so remote
// content can be used wherever a local store is accepted.
type ContentStore struct {
	Client *Client
	Ctx    context.Context
}

var _ storage.CAS = ContentStore{}

func (s ContentStore) ctx() context.Context {
	if s.Ctx == nil {
		return context.Background()
	}
	return s.Ctx
}

func (s ContentStore) Put(data []byte) (cid.Cid, error) {
	if s.Client == nil {
		return cid.Undef, storage.ErrNotFound
	}
	ref, err := s.Client.PutContent(s.ctx(), data)
	if err != nil {
		return cid.Undef, err
	}
	return ref.CID, nil
}

func (s ContentStore) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	if s.Client == nil {
		return nil, storage.ErrNotFound
	}
	return s.Client.GetContent(s.ctx(), id.String())
}

func (s ContentStore) Has(id cid.Cid) bool {
	_, err := s.Get(id)
	return err == nil
}
