package model

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Identity is an opaque, comparable caller reference.
//
// The zero value is the null identity and is never valid for a caller.
// Identities minted by package keys have the form "<alg>:<base64 public key>",
// but nothing in the ledger depends on that shape.
type Identity string

func (id Identity) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

func (id Identity) String() string { return string(id) }

// ContentHashSize is the size of a content hash in bytes.
const ContentHashSize = 32

// ContentHash is the sha2-256 digest of a file's raw bytes: the dedup key.
type ContentHash [ContentHashSize]byte

func (h ContentHash) IsZero() bool { return h == ContentHash{} }

func (h ContentHash) String() string { return hex.EncodeToString(h[:]) }

func (h ContentHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *ContentHash) UnmarshalText(b []byte) error {
	parsed, err := ParseContentHash(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseContentHash decodes a 64 character hex digest, with or without a 0x prefix.
func ParseContentHash(s string) (ContentHash, error) {
	var h ContentHash
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, Wrap(KindInvalidArgument, "content hash is not hex", err)
	}
	if len(b) != ContentHashSize {
		return h, Errorf(KindInvalidArgument, "content hash must be %d bytes, got %d", ContentHashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// ContentHashFromBytes copies a 32 byte digest into a ContentHash.
func ContentHashFromBytes(b []byte) (ContentHash, error) {
	var h ContentHash
	if len(b) != ContentHashSize {
		return h, Errorf(KindInvalidArgument, "content hash must be %d bytes, got %d", ContentHashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Status is the lifecycle state of a paper.
//
// The ordinal values are an external compatibility contract.
type Status uint8

const (
	StatusPending   Status = 0
	StatusPublished Status = 1
	StatusRejected  Status = 2
	StatusRemoved   Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusPublished:
		return "PUBLISHED"
	case StatusRejected:
		return "REJECTED"
	case StatusRemoved:
		return "REMOVED"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

func (s Status) Valid() bool { return s <= StatusRemoved }

// ParseStatus accepts either the name (case-insensitive) or the ordinal.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "PENDING":
		return StatusPending, nil
	case "PUBLISHED":
		return StatusPublished, nil
	case "REJECTED":
		return StatusRejected, nil
	case "REMOVED":
		return StatusRemoved, nil
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || !Status(n).Valid() {
		return 0, Errorf(KindInvalidArgument, "unknown status %q", s)
	}
	return Status(n), nil
}

// Version is one immutable entry in a paper's history.
type Version struct {
	ContentID   string      `json:"contentId"`
	ContentHash ContentHash `json:"contentHash"`
	CreatedAt   time.Time   `json:"createdAt"`
	Signature   []byte      `json:"signature,omitempty"`
}

// Clone returns a deep copy of v.
func (v Version) Clone() Version {
	out := v
	if v.Signature != nil {
		out.Signature = append([]byte(nil), v.Signature...)
	}
	return out
}

// PaperInfo is a read-only projection of a paper record.
type PaperInfo struct {
	ID           uint64    `json:"id"`
	Owner        Identity  `json:"owner"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Status       Status    `json:"status"`
	VersionCount int       `json:"versionCount"`
	SubmittedAt  time.Time `json:"submittedAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
