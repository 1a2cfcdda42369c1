package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"xdao.co/paperledger/events"
	"xdao.co/paperledger/ledger"
	"xdao.co/paperledger/model"
)

const (
	admin   = model.Identity("ed25519:admin")
	auditor = model.Identity("ed25519:auditor")
	alice   = model.Identity("ed25519:alice")
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func hashOf(b byte) model.ContentHash {
	var h model.ContentHash
	for i := range h {
		h[i] = b
	}
	return h
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenTwiceAppliesMigrationsOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.db")
	for i := 0; i < 2; i++ {
		store, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		var n int
		if err := store.sqlDB.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
			t.Fatalf("count migrations: %v", err)
		}
		if n != 1 {
			t.Fatalf("migrations recorded = %d, want 1", n)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
}

func TestAppendRejectsOutOfOrderSeq(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	err := store.Append(context.Background(), events.Event{ID: "e2", Seq: 2, Kind: events.KindAuditorAdded, Actor: admin, Auditor: auditor})
	if !model.IsKind(err, model.KindInternal) {
		t.Fatalf("err = %v, want Internal", err)
	}
	evs, err := store.Events(context.Background())
	if err != nil || len(evs) != 0 {
		t.Fatalf("Events = %v, %v", evs, err)
	}
}

func TestAppendApproveOfUsedHashIsConflict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTempStore(t)
	at := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	evs := []events.Event{
		{ID: "e1", Seq: 1, Kind: events.KindPaperSubmitted, At: at, Actor: alice, PaperID: 1,
			Version: &model.Version{ContentID: "c1", ContentHash: hashOf(7), CreatedAt: at}},
		{ID: "e2", Seq: 2, Kind: events.KindPaperSubmitted, At: at, Actor: alice, PaperID: 2,
			Version: &model.Version{ContentID: "c2", ContentHash: hashOf(7), CreatedAt: at}},
		{ID: "e3", Seq: 3, Kind: events.KindPaperApproved, At: at, Actor: admin, PaperID: 1},
	}
	for _, e := range evs {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append seq %d: %v", e.Seq, err)
		}
	}

	err := store.Append(ctx, events.Event{ID: "e4", Seq: 4, Kind: events.KindPaperApproved, At: at, Actor: admin, PaperID: 2})
	if !model.IsKind(err, model.KindConflict) {
		t.Fatalf("err = %v, want Conflict", err)
	}
	got, err := store.Events(ctx)
	if err != nil || len(got) != 3 {
		t.Fatalf("Events = %d, %v; want 3 after rolled back append", len(got), err)
	}
	owner, ok, err := store.ContentHashUsedBy(ctx, hashOf(7))
	if err != nil || !ok || owner != 1 {
		t.Fatalf("ContentHashUsedBy = %d, %v, %v", owner, ok, err)
	}
}

func TestLedgerPersistsAndReplays(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	l, err := ledger.Open(ctx, admin, ledger.Options{Journal: store})
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	if err := l.AddAuditor(ctx, admin, auditor); err != nil {
		t.Fatalf("AddAuditor: %v", err)
	}
	id, err := l.Submit(ctx, alice, ledger.Submission{Title: "T", Author: "A", ContentID: "cid-1", ContentHash: hashOf(1), Signature: []byte{9}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := l.Approve(ctx, auditor, id); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := l.AddVersion(ctx, alice, id, ledger.VersionInput{ContentID: "cid-2", ContentHash: hashOf(2)}); err != nil {
		t.Fatalf("AddVersion: %v", err)
	}
	id2, err := l.Submit(ctx, alice, ledger.Submission{ContentID: "cid-1", ContentHash: hashOf(1)})
	if err != nil {
		t.Fatalf("Submit 2: %v", err)
	}
	if err := l.Reject(ctx, auditor, id2); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if err := l.Remove(ctx, alice, id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := l.RemoveAuditor(ctx, admin, auditor); err != nil {
		t.Fatalf("RemoveAuditor: %v", err)
	}

	// Projection tables track the ledger.
	if n, err := store.PaperCount(ctx); err != nil || n != 2 {
		t.Fatalf("PaperCount = %d, %v", n, err)
	}
	p, err := store.Paper(ctx, id)
	if err != nil {
		t.Fatalf("Paper: %v", err)
	}
	want, _ := l.PaperInfo(id)
	if p.Status != model.StatusRemoved || p.VersionCount != 2 || p.Owner != alice || !p.UpdatedAt.Equal(want.UpdatedAt) {
		t.Fatalf("projected paper = %+v, want %+v", p, want)
	}
	if owner, ok, err := store.ContentHashUsedBy(ctx, hashOf(1)); err != nil || !ok || owner != id {
		t.Fatalf("ContentHashUsedBy = %d, %v, %v", owner, ok, err)
	}
	if auds, err := store.Auditors(ctx); err != nil || len(auds) != 0 {
		t.Fatalf("Auditors = %v, %v", auds, err)
	}
	if _, err := store.Paper(ctx, 42); !model.IsKind(err, model.KindInvalidArgument) {
		t.Fatalf("Paper(42) err = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	replayed, err := ledger.Open(ctx, admin, ledger.Options{Journal: reopened})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replayed.Seq() != l.Seq() || replayed.PaperCount() != 2 {
		t.Fatalf("replayed seq=%d count=%d, want seq=%d count=2", replayed.Seq(), replayed.PaperCount(), l.Seq())
	}
	for _, pid := range []uint64{id, id2} {
		a, _ := l.PaperInfo(pid)
		b, err := replayed.PaperInfo(pid)
		if err != nil {
			t.Fatalf("PaperInfo(%d): %v", pid, err)
		}
		if a.Status != b.Status || a.VersionCount != b.VersionCount || !a.SubmittedAt.Equal(b.SubmittedAt) || !a.UpdatedAt.Equal(b.UpdatedAt) {
			t.Fatalf("paper %d replayed as %+v, want %+v", pid, b, a)
		}
	}
	v, err := replayed.Version(id, 0)
	if err != nil || v.ContentID != "cid-1" || v.ContentHash != hashOf(1) || string(v.Signature) != "\x09" {
		t.Fatalf("replayed version = %+v, %v", v, err)
	}
	if owner, used := replayed.IsContentUsed(hashOf(1)); !used || owner != id {
		t.Fatalf("replayed hash reservation = %d, %v", owner, used)
	}
	if replayed.IsAuditor(auditor) {
		t.Fatalf("removed auditor came back on replay")
	}

	// Appends continue after replay.
	if _, err := replayed.Submit(ctx, alice, ledger.Submission{ContentID: "cid-3", ContentHash: hashOf(3)}); err != nil {
		t.Fatalf("Submit after replay: %v", err)
	}
	if n, err := reopened.PaperCount(ctx); err != nil || n != 3 {
		t.Fatalf("PaperCount after replay = %d, %v", n, err)
	}
}

func TestEventsRoundTripTimestamps(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	at := time.Date(2026, time.March, 3, 10, 0, 0, 123456789, time.UTC)
	e := events.Event{
		ID: "e1", Seq: 1, Kind: events.KindPaperSubmitted, At: at, Actor: alice, PaperID: 1,
		Version: &model.Version{ContentID: "cid", ContentHash: hashOf(7), CreatedAt: at},
	}
	if err := store.Append(context.Background(), e); err != nil {
		t.Fatalf("Append: %v", err)
	}
	evs, err := store.Events(context.Background())
	if err != nil || len(evs) != 1 {
		t.Fatalf("Events = %v, %v", evs, err)
	}
	got := evs[0]
	if !got.At.Equal(at) || got.Version == nil || !got.Version.CreatedAt.Equal(at) || got.Version.ContentHash != hashOf(7) {
		t.Fatalf("event = %+v", got)
	}
	if got.Version.Signature != nil {
		t.Fatalf("signature = %x, want nil", got.Version.Signature)
	}
}
