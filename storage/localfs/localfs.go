package localfs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"

	"xdao.co/paperledger/cidutil"
	"xdao.co/paperledger/model"
	"xdao.co/paperledger/storage"
)

// CAS is a local filesystem-backed content-addressable store for paper bytes.
//
// Objects are keyed by their sha2-256 content hash and laid out as
// <root>/<hh>/<hash hex>, so the same file is found whether a caller holds the
// ledger's content hash or its content id. Reads re-hash the bytes.
type CAS struct {
	root string
}

var _ storage.CAS = (*CAS)(nil)

// New constructs a filesystem CAS rooted at root. The directory will be created if needed.
func New(root string) (*CAS, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &CAS{root: root}, nil
}

// Open opens one CAS per directory. A single directory is returned as is;
// several become a storage.MultiCAS that writes to the first.
func Open(dirs []string) (storage.CAS, error) {
	if len(dirs) == 0 {
		return nil, errors.New("localfs: at least one directory is required")
	}
	adapters := make([]storage.CAS, 0, len(dirs))
	for _, dir := range dirs {
		cas, err := New(dir)
		if err != nil {
			return nil, fmt.Errorf("localfs: open %s: %w", dir, err)
		}
		adapters = append(adapters, cas)
	}
	if len(adapters) == 1 {
		return adapters[0], nil
	}
	return storage.MultiCAS{Adapters: adapters}, nil
}

func (c *CAS) Root() string { return c.root }

func (c *CAS) Put(data []byte) (cid.Cid, error) {
	id, hash, err := cidutil.ContentRef(data)
	if err != nil {
		return cid.Undef, err
	}

	path := c.pathFor(hash)
	if existing, err := c.read(hash); err == nil {
		if !bytes.Equal(existing, data) {
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	} else if !storage.IsNotFound(err) {
		// Present but unreadable or corrupted: never overwrite it.
		return cid.Undef, storage.ErrImmutable
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return cid.Undef, err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return cid.Undef, err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return cid.Undef, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return cid.Undef, err
	}
	if err := os.Chmod(tmpName, 0o444); err != nil {
		_ = os.Remove(tmpName)
		return cid.Undef, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return cid.Undef, err
	}
	return id, nil
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	hash, err := cidutil.HashFromCID(id)
	if err != nil {
		return nil, storage.ErrInvalidCID
	}
	return c.read(hash)
}

func (c *CAS) Has(id cid.Cid) bool {
	hash, err := cidutil.HashFromCID(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(c.pathFor(hash))
	return err == nil
}

func (c *CAS) read(hash model.ContentHash) ([]byte, error) {
	b, err := os.ReadFile(c.pathFor(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	_, got, err := cidutil.ContentRef(b)
	if err != nil {
		return nil, err
	}
	if got != hash {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (c *CAS) pathFor(hash model.ContentHash) string {
	s := hash.String()
	return filepath.Join(c.root, s[:2], s)
}
