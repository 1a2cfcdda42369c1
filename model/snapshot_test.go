package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestSnapshot_Version_JSONShape(t *testing.T) {
	var h ContentHash
	for i := range h {
		h[i] = byte(i)
	}
	v := Version{
		ContentID:   "bafkrei-content-1",
		ContentHash: h,
		CreatedAt:   time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
		Signature:   []byte{0x01, 0x02},
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent failed: %v", err)
	}

	const want = "{\n" +
		"  \"contentId\": \"bafkrei-content-1\",\n" +
		"  \"contentHash\": \"000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f\",\n" +
		"  \"createdAt\": \"2026-03-01T12:00:00Z\",\n" +
		"  \"signature\": \"AQI=\"\n" +
		"}"
	if string(b) != want {
		t.Fatalf("JSON shape changed.\n--- got ---\n%s\n--- want ---\n%s", string(b), want)
	}

	var back Version
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.ContentHash != h {
		t.Fatalf("content hash = %s, want %s", back.ContentHash, h)
	}
}

func TestSnapshot_PaperInfo_StatusIsOrdinal(t *testing.T) {
	info := PaperInfo{ID: 7, Owner: "ed25519:owner", Status: StatusRemoved, VersionCount: 2}
	b, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got := raw["status"]; got != float64(3) {
		t.Fatalf("status = %v, want 3", got)
	}
}

func TestStatusOrdinals(t *testing.T) {
	cases := []struct {
		s    Status
		ord  uint8
		name string
	}{
		{StatusPending, 0, "PENDING"},
		{StatusPublished, 1, "PUBLISHED"},
		{StatusRejected, 2, "REJECTED"},
		{StatusRemoved, 3, "REMOVED"},
	}
	for _, tc := range cases {
		if uint8(tc.s) != tc.ord {
			t.Fatalf("%s ordinal = %d, want %d", tc.name, uint8(tc.s), tc.ord)
		}
		if tc.s.String() != tc.name {
			t.Fatalf("String() = %q, want %q", tc.s.String(), tc.name)
		}
		byName, err := ParseStatus(tc.name)
		if err != nil || byName != tc.s {
			t.Fatalf("ParseStatus(%q) = %v, %v", tc.name, byName, err)
		}
	}
	if _, err := ParseStatus("4"); !IsKind(err, KindInvalidArgument) {
		t.Fatalf("ParseStatus(4) err = %v, want InvalidArgument", err)
	}
}

func TestParseContentHash(t *testing.T) {
	if _, err := ParseContentHash("abcd"); !IsKind(err, KindInvalidArgument) {
		t.Fatalf("short hash err = %v, want InvalidArgument", err)
	}
	if _, err := ParseContentHash("zz"); !IsKind(err, KindInvalidArgument) {
		t.Fatalf("non-hex err = %v, want InvalidArgument", err)
	}
	const s = "0x1111111111111111111111111111111111111111111111111111111111111111"
	h, err := ParseContentHash(s)
	if err != nil {
		t.Fatalf("ParseContentHash: %v", err)
	}
	if h[0] != 0x11 || h[31] != 0x11 {
		t.Fatalf("unexpected digest %s", h)
	}
}

func TestError_IsMatchesKind(t *testing.T) {
	err := Errorf(KindConflict, "content hash %s already used", "aa")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("errors.Is(conflict, ErrConflict) = false")
	}
	if errors.Is(err, ErrInvalidState) {
		t.Fatalf("errors.Is(conflict, ErrInvalidState) = true")
	}
	cause := errors.New("disk full")
	wrapped := Wrap(KindInternal, "append journal", cause)
	if !errors.Is(wrapped, cause) {
		t.Fatalf("wrapped error lost its cause")
	}
	if KindOf(wrapped) != KindInternal {
		t.Fatalf("KindOf = %q, want Internal", KindOf(wrapped))
	}
	if KindOf(cause) != "" {
		t.Fatalf("KindOf(plain) = %q, want empty", KindOf(cause))
	}
}

func TestVersionCloneIsDeep(t *testing.T) {
	v := Version{ContentID: "c", Signature: []byte{1, 2, 3}}
	c := v.Clone()
	c.Signature[0] = 9
	if v.Signature[0] != 1 {
		t.Fatalf("Clone shares signature backing array")
	}
}
