package ledger

import (
	"testing"

	"xdao.co/paperledger/events"
	"xdao.co/paperledger/model"
)

func TestOpenReplaysJournal(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t, alice, hashOf(1))
	b := f.submit(t, bob, hashOf(1))
	c := f.submit(t, bob, hashOf(3))
	if err := f.ledger.Approve(ctx, auditor, a); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := f.ledger.Reject(ctx, auditor, c); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if _, err := f.ledger.AddVersion(ctx, alice, a, VersionInput{ContentID: "v2", ContentHash: hashOf(2), Signature: []byte("sig")}); err != nil {
		t.Fatalf("AddVersion: %v", err)
	}
	if err := f.ledger.Remove(ctx, bob, c); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	rec := events.NewRecorder(0)
	replayed, err := Open(ctx, admin, Options{Journal: f.journal, Sink: rec})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(rec.Events()) != 0 {
		t.Fatalf("replay notified the sink")
	}
	if replayed.Seq() != f.ledger.Seq() || replayed.PaperCount() != 3 {
		t.Fatalf("replayed seq/count = %d/%d, want %d/3", replayed.Seq(), replayed.PaperCount(), f.ledger.Seq())
	}
	for id := uint64(1); id <= 3; id++ {
		want, _ := f.ledger.PaperInfo(id)
		got, _ := replayed.PaperInfo(id)
		if got != want {
			t.Fatalf("paper %d = %+v, want %+v", id, got, want)
		}
		wantVs, _ := f.ledger.Versions(id)
		gotVs, _ := replayed.Versions(id)
		if len(gotVs) != len(wantVs) {
			t.Fatalf("paper %d versions = %d, want %d", id, len(gotVs), len(wantVs))
		}
		for i := range wantVs {
			if gotVs[i].ContentHash != wantVs[i].ContentHash || !gotVs[i].CreatedAt.Equal(wantVs[i].CreatedAt) || string(gotVs[i].Signature) != string(wantVs[i].Signature) {
				t.Fatalf("paper %d version %d = %+v, want %+v", id, i, gotVs[i], wantVs[i])
			}
		}
	}
	if !replayed.IsAuditor(auditor) {
		t.Fatalf("auditor set not replayed")
	}
	wantKind(t, replayed.Approve(ctx, auditor, b), model.KindConflict)

	// The replayed ledger keeps journaling after the last sequence number.
	next, err := replayed.Submit(ctx, alice, Submission{ContentID: "n", ContentHash: hashOf(9)})
	if err != nil || next != 4 {
		t.Fatalf("Submit after replay = %d, %v", next, err)
	}
	all, _ := f.journal.Events(ctx)
	if last := all[len(all)-1]; last.Seq != replayed.Seq() || last.PaperID != 4 {
		t.Fatalf("journal tail = %+v", last)
	}
}

func TestReplayRejectsGaps(t *testing.T) {
	l, err := New(admin, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v := model.Version{ContentID: "c", ContentHash: hashOf(1)}
	err = l.Replay([]events.Event{
		{Seq: 1, Kind: events.KindPaperSubmitted, Actor: alice, PaperID: 1, Version: &v},
		{Seq: 3, Kind: events.KindPaperApproved, Actor: admin, PaperID: 1},
	})
	wantKind(t, err, model.KindInternal)
}

func TestReplayRejectsOutOfOrderPaperIDs(t *testing.T) {
	l, err := New(admin, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v := model.Version{ContentID: "c", ContentHash: hashOf(1)}
	err = l.Replay([]events.Event{{Seq: 1, Kind: events.KindPaperSubmitted, Actor: alice, PaperID: 2, Version: &v}})
	wantKind(t, err, model.KindInternal)
	if l.PaperCount() != 0 {
		t.Fatalf("bad replay created a paper")
	}
}

func TestOpenRequiresJournal(t *testing.T) {
	_, err := Open(ctx, admin, Options{})
	wantKind(t, err, model.KindInvalidArgument)
}

func TestReplayEnforcesStateMachine(t *testing.T) {
	v1 := model.Version{ContentID: "c1", ContentHash: hashOf(1)}
	v2 := model.Version{ContentID: "c2", ContentHash: hashOf(1)}
	submitted := []events.Event{
		{Seq: 1, Kind: events.KindAuditorAdded, Actor: admin, Auditor: auditor},
		{Seq: 2, Kind: events.KindPaperSubmitted, Actor: alice, PaperID: 1, Version: &v1},
		{Seq: 3, Kind: events.KindPaperSubmitted, Actor: bob, PaperID: 2, Version: &v2},
	}
	cases := map[string][]events.Event{
		"republish removed paper": {
			{Seq: 4, Kind: events.KindPaperRemoved, Actor: alice, PaperID: 1},
			{Seq: 5, Kind: events.KindPaperApproved, Actor: auditor, PaperID: 1},
		},
		"approve used hash": {
			{Seq: 4, Kind: events.KindPaperApproved, Actor: auditor, PaperID: 1},
			{Seq: 5, Kind: events.KindPaperApproved, Actor: auditor, PaperID: 2},
		},
		"approve by non-auditor": {
			{Seq: 4, Kind: events.KindPaperApproved, Actor: bob, PaperID: 1},
		},
		"reject published paper": {
			{Seq: 4, Kind: events.KindPaperApproved, Actor: auditor, PaperID: 1},
			{Seq: 5, Kind: events.KindPaperRejected, Actor: auditor, PaperID: 1},
		},
		"remove twice": {
			{Seq: 4, Kind: events.KindPaperRemoved, Actor: alice, PaperID: 1},
			{Seq: 5, Kind: events.KindPaperRemoved, Actor: alice, PaperID: 1},
		},
		"remove by non-owner": {
			{Seq: 4, Kind: events.KindPaperRemoved, Actor: bob, PaperID: 1},
		},
		"version on pending paper": {
			{Seq: 4, Kind: events.KindVersionAdded, Actor: alice, PaperID: 1, VersionIndex: 1, Version: &v1},
		},
		"auditor added by non-admin": {
			{Seq: 4, Kind: events.KindAuditorAdded, Actor: alice, Auditor: bob},
		},
	}
	for name, tail := range cases {
		l, err := New(admin, Options{})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		err = l.Replay(append(append([]events.Event(nil), submitted...), tail...))
		if !model.IsKind(err, model.KindInternal) {
			t.Fatalf("%s: err = %v, want Internal", name, err)
		}
	}
}
