package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"xdao.co/paperledger/access"
	"xdao.co/paperledger/events"
	"xdao.co/paperledger/model"
)

type paper struct {
	owner       model.Identity
	title       string
	author      string
	status      model.Status
	versions    []model.Version
	submittedAt time.Time
	updatedAt   time.Time
}

func (p *paper) info(id uint64) model.PaperInfo {
	return model.PaperInfo{
		ID:           id,
		Owner:        p.owner,
		Title:        p.title,
		Author:       p.author,
		Status:       p.status,
		VersionCount: len(p.versions),
		SubmittedAt:  p.submittedAt,
		UpdatedAt:    p.updatedAt,
	}
}

type Ledger struct {
	mu     sync.RWMutex
	emitMu sync.Mutex

	access *access.Registry
	papers []*paper // papers[id-1]
	used   map[model.ContentHash]uint64
	seq    uint64
	last   time.Time

	journal Journal
	sink    events.Sink
	clock   func() time.Time
	newID   func() string
	log     zerolog.Logger
}

// New constructs an empty ledger administered by admin.
func New(admin model.Identity, opts Options) (*Ledger, error) {
	reg, err := access.New(admin)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	return &Ledger{
		access:  reg,
		used:    make(map[model.ContentHash]uint64),
		journal: opts.Journal,
		sink:    opts.Sink,
		clock:   opts.Clock,
		newID:   opts.NewID,
		log:     *opts.Logger,
	}, nil
}

// Open constructs a ledger and replays opts.Journal into it. Replay does not
// notify the sink.
func Open(ctx context.Context, admin model.Identity, opts Options) (*Ledger, error) {
	if opts.Journal == nil {
		return nil, model.Errorf(model.KindInvalidArgument, "journal is required")
	}
	l, err := New(admin, opts)
	if err != nil {
		return nil, err
	}
	evs, err := opts.Journal.Events(ctx)
	if err != nil {
		return nil, model.Wrap(model.KindInternal, "load journal", err)
	}
	if err := l.Replay(evs); err != nil {
		return nil, err
	}
	l.log.Info().Int("events", len(evs)).Uint64("papers", l.PaperCount()).Msg("ledger replayed")
	return l, nil
}

// Replay applies previously journaled events in order. It does not write to
// the journal or notify the sink.
func (l *Ledger) Replay(evs []events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range evs {
		if e.Seq != l.seq+1 {
			return model.Errorf(model.KindInternal, "journal gap: got seq %d after %d", e.Seq, l.seq)
		}
		if err := l.apply(e); err != nil {
			return model.Wrap(model.KindInternal, fmt.Sprintf("replay seq %d", e.Seq), err)
		}
		l.seq = e.Seq
		if e.At.After(l.last) {
			l.last = e.At
		}
	}
	return nil
}

// Reset discards all in-memory state: papers, reserved hashes, auditors and
// the event sequence. A journaled ledger cannot be reset because its journal
// would no longer match; Reset returns InvalidState and changes nothing.
func (l *Ledger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.journal != nil {
		return model.Errorf(model.KindInvalidState, "cannot reset a journaled ledger")
	}
	l.papers = nil
	l.used = make(map[model.ContentHash]uint64)
	l.seq = 0
	l.last = time.Time{}
	l.access.Reset()
	return nil
}

// commit journals e, applies it and notifies the sink. The caller must hold
// l.mu for writing; commit releases it.
func (l *Ledger) commit(ctx context.Context, e events.Event) (events.Event, error) {
	e.Seq = l.seq + 1
	e.ID = l.newID()
	e.At = l.tick()
	if e.Version != nil {
		e.Version.CreatedAt = e.At
	}

	if l.journal != nil {
		if err := l.journal.Append(ctx, e); err != nil {
			l.mu.Unlock()
			l.log.Error().Err(err).Str("event", string(e.Kind)).Uint64("seq", e.Seq).Msg("journal append failed")
			kind := model.KindOf(err)
			if kind == "" {
				kind = model.KindInternal
			}
			return events.Event{}, model.Wrap(kind, "append journal", err)
		}
	}
	if err := l.apply(e); err != nil {
		// Preconditions were checked under the same lock, so this is a bug.
		l.mu.Unlock()
		return events.Event{}, err
	}
	l.seq = e.Seq

	l.emitMu.Lock()
	l.mu.Unlock()
	defer l.emitMu.Unlock()
	if l.sink != nil {
		l.sink.Emit(e.Clone())
	}
	return e, nil
}

func (l *Ledger) tick() time.Time {
	now := l.clock().UTC()
	if now.Before(l.last) {
		now = l.last
	}
	l.last = now
	return now
}

// apply mutates state for one event. It re-checks the status transition, the
// actor's rights and the hash reservation so that replay enforces the same
// state machine as the live operations.
func (l *Ledger) apply(e events.Event) error {
	switch e.Kind {
	case events.KindPaperSubmitted:
		if e.Actor.IsZero() {
			return model.Errorf(model.KindInternal, "submitted paper %d without owner", e.PaperID)
		}
		if e.PaperID != uint64(len(l.papers))+1 {
			return model.Errorf(model.KindInternal, "submitted paper id %d out of order", e.PaperID)
		}
		if e.Version == nil {
			return model.Errorf(model.KindInternal, "submitted paper %d without version", e.PaperID)
		}
		l.papers = append(l.papers, &paper{
			owner:       e.Actor,
			title:       e.Title,
			author:      e.Author,
			status:      model.StatusPending,
			versions:    []model.Version{e.Version.Clone()},
			submittedAt: e.At,
			updatedAt:   e.At,
		})
		return nil
	case events.KindAuditorAdded:
		return l.access.AddAuditor(e.Actor, e.Auditor)
	case events.KindAuditorRemoved:
		return l.access.RemoveAuditor(e.Actor, e.Auditor)
	}

	var (
		p   *paper
		err error
	)
	switch e.Kind {
	case events.KindPaperApproved, events.KindPaperRejected:
		p, err = l.pendingForAudit(e.Actor, e.PaperID)
	case events.KindPaperRemoved, events.KindVersionAdded:
		p, err = l.ownedBy(e.Actor, e.PaperID)
	default:
		return model.Errorf(model.KindInternal, "unknown event kind %q", e.Kind)
	}
	if err != nil {
		return model.Wrap(model.KindInternal, "apply "+string(e.Kind), err)
	}

	switch e.Kind {
	case events.KindPaperApproved:
		hash := p.versions[0].ContentHash
		if owner, taken := l.used[hash]; taken {
			return model.Errorf(model.KindInternal, "apply %s: content %s already published by paper %d", e.Kind, hash, owner)
		}
		p.status = model.StatusPublished
		l.used[hash] = e.PaperID
	case events.KindPaperRejected:
		p.status = model.StatusRejected
	case events.KindPaperRemoved:
		if p.status == model.StatusRemoved {
			return model.Errorf(model.KindInternal, "apply %s: paper %d is already removed", e.Kind, e.PaperID)
		}
		p.status = model.StatusRemoved
	case events.KindVersionAdded:
		if p.status != model.StatusPublished {
			return model.Errorf(model.KindInternal, "apply %s: paper %d is %s", e.Kind, e.PaperID, p.status)
		}
		if e.Version == nil || e.VersionIndex != len(p.versions) {
			return model.Errorf(model.KindInternal, "version %d of paper %d out of order", e.VersionIndex, e.PaperID)
		}
		p.versions = append(p.versions, e.Version.Clone())
	}
	p.updatedAt = e.At
	return nil
}

// paper returns the record for id. The caller must hold l.mu.
func (l *Ledger) paper(id uint64) (*paper, error) {
	if id == 0 || id > uint64(len(l.papers)) {
		return nil, model.Errorf(model.KindInvalidArgument, "paper %d does not exist", id)
	}
	return l.papers[id-1], nil
}
