package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"xdao.co/paperledger/events"
	"xdao.co/paperledger/model"
)

const (
	admin   = model.Identity("ed25519:admin")
	auditor = model.Identity("ed25519:auditor")
	alice   = model.Identity("ed25519:alice")
	bob     = model.Identity("ed25519:bob")
)

func hashOf(b byte) model.ContentHash {
	var h model.ContentHash
	for i := range h {
		h[i] = b
	}
	return h
}

// memJournal is an in-memory Journal that can be told to fail.
type memJournal struct {
	mu     sync.Mutex
	events []events.Event
	fail   error
}

func (j *memJournal) Append(_ context.Context, e events.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.fail != nil {
		return j.fail
	}
	if want := uint64(len(j.events)) + 1; e.Seq != want {
		return model.Errorf(model.KindInternal, "journal expects seq %d, got %d", want, e.Seq)
	}
	j.events = append(j.events, e.Clone())
	return nil
}

func (j *memJournal) Events(context.Context) ([]events.Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]events.Event(nil), j.events...), nil
}

var errDiskFull = errors.New("disk full")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	ledger  *Ledger
	journal *memJournal
	rec     *events.Recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	j := &memJournal{}
	rec := events.NewRecorder(0)
	clock := &fakeClock{now: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)}
	n := 0
	l, err := New(admin, Options{
		Journal: j,
		Sink:    rec,
		Clock:   clock.Now,
		NewID: func() string {
			n++
			return fmt.Sprintf("evt-%d", n)
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.AddAuditor(context.Background(), admin, auditor); err != nil {
		t.Fatalf("AddAuditor: %v", err)
	}
	rec.Reset()
	return fixture{ledger: l, journal: j, rec: rec}
}

func (f fixture) submit(t *testing.T, owner model.Identity, h model.ContentHash) uint64 {
	t.Helper()
	id, err := f.ledger.Submit(context.Background(), owner, Submission{
		Title:       "T",
		Author:      "A",
		ContentID:   "cid-" + h.String()[:8],
		ContentHash: h,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return id
}

func wantKind(t *testing.T, err error, kind model.Kind) {
	t.Helper()
	if !model.IsKind(err, kind) {
		t.Fatalf("err = %v, want kind %s", err, kind)
	}
}

func wantStatus(t *testing.T, l *Ledger, id uint64, want model.Status) {
	t.Helper()
	info, err := l.PaperInfo(id)
	if err != nil {
		t.Fatalf("PaperInfo(%d): %v", id, err)
	}
	if info.Status != want {
		t.Fatalf("paper %d status = %s, want %s", id, info.Status, want)
	}
}
