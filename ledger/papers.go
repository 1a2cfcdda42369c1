package ledger

import (
	"context"
	"strings"

	"xdao.co/paperledger/events"
	"xdao.co/paperledger/model"
)

// Submission is the input to Submit.
type Submission struct {
	Title       string
	Author      string
	ContentID   string
	ContentHash model.ContentHash
	Signature   []byte
}

// VersionInput is the input to AddVersion.
type VersionInput struct {
	ContentID   string
	ContentHash model.ContentHash
	Signature   []byte
}

func newVersion(contentID string, hash model.ContentHash, sig []byte) (*model.Version, error) {
	if strings.TrimSpace(contentID) == "" {
		return nil, model.Errorf(model.KindInvalidArgument, "content id is required")
	}
	if hash.IsZero() {
		return nil, model.Errorf(model.KindInvalidArgument, "content hash is required")
	}
	v := &model.Version{ContentID: contentID, ContentHash: hash}
	if len(sig) > 0 {
		v.Signature = append([]byte(nil), sig...)
	}
	return v, nil
}

// Submit registers a new PENDING paper owned by caller and returns its id.
// Submission never checks content hash reservations; approval does.
func (l *Ledger) Submit(ctx context.Context, caller model.Identity, s Submission) (uint64, error) {
	if caller.IsZero() {
		return 0, model.Errorf(model.KindInvalidArgument, "caller identity is required")
	}
	v, err := newVersion(s.ContentID, s.ContentHash, s.Signature)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	e, err := l.commit(ctx, events.Event{
		Kind:    events.KindPaperSubmitted,
		Actor:   caller,
		PaperID: uint64(len(l.papers)) + 1,
		Version: v,
		Title:   s.Title,
		Author:  s.Author,
	})
	if err != nil {
		return 0, err
	}
	return e.PaperID, nil
}

// Approve publishes a PENDING paper and reserves its original content hash.
func (l *Ledger) Approve(ctx context.Context, caller model.Identity, id uint64) error {
	l.mu.Lock()
	p, err := l.pendingForAudit(caller, id)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	hash := p.versions[0].ContentHash
	if owner, taken := l.used[hash]; taken {
		l.mu.Unlock()
		return model.Errorf(model.KindConflict, "content %s already published by paper %d", hash, owner)
	}
	_, err = l.commit(ctx, events.Event{Kind: events.KindPaperApproved, Actor: caller, PaperID: id})
	return err
}

// Reject moves a PENDING paper to REJECTED.
func (l *Ledger) Reject(ctx context.Context, caller model.Identity, id uint64) error {
	l.mu.Lock()
	if _, err := l.pendingForAudit(caller, id); err != nil {
		l.mu.Unlock()
		return err
	}
	_, err := l.commit(ctx, events.Event{Kind: events.KindPaperRejected, Actor: caller, PaperID: id})
	return err
}

// Remove moves any non-REMOVED paper to REMOVED. Only the owner may remove a
// paper; the content hash it may have reserved stays reserved.
func (l *Ledger) Remove(ctx context.Context, caller model.Identity, id uint64) error {
	l.mu.Lock()
	p, err := l.ownedBy(caller, id)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	if p.status == model.StatusRemoved {
		l.mu.Unlock()
		return model.Errorf(model.KindInvalidState, "paper %d is already removed", id)
	}
	_, err = l.commit(ctx, events.Event{Kind: events.KindPaperRemoved, Actor: caller, PaperID: id})
	return err
}

// AddVersion appends a version to a PUBLISHED paper owned by caller and
// returns its index. New versions are not deduplicated.
func (l *Ledger) AddVersion(ctx context.Context, caller model.Identity, id uint64, in VersionInput) (int, error) {
	l.mu.Lock()
	p, err := l.ownedBy(caller, id)
	if err != nil {
		l.mu.Unlock()
		return 0, err
	}
	if p.status != model.StatusPublished {
		l.mu.Unlock()
		return 0, model.Errorf(model.KindInvalidState, "paper %d is %s, versions require PUBLISHED", id, p.status)
	}
	v, err := newVersion(in.ContentID, in.ContentHash, in.Signature)
	if err != nil {
		l.mu.Unlock()
		return 0, err
	}
	e, err := l.commit(ctx, events.Event{
		Kind:         events.KindVersionAdded,
		Actor:        caller,
		PaperID:      id,
		VersionIndex: len(p.versions),
		Version:      v,
	})
	if err != nil {
		return 0, err
	}
	return e.VersionIndex, nil
}

// AddAuditor grants id the right to approve and reject papers.
func (l *Ledger) AddAuditor(ctx context.Context, caller, id model.Identity) error {
	l.mu.Lock()
	if err := l.access.CheckAddAuditor(caller, id); err != nil {
		l.mu.Unlock()
		return err
	}
	_, err := l.commit(ctx, events.Event{Kind: events.KindAuditorAdded, Actor: caller, Auditor: id})
	return err
}

// RemoveAuditor revokes id's auditor role.
func (l *Ledger) RemoveAuditor(ctx context.Context, caller, id model.Identity) error {
	l.mu.Lock()
	if err := l.access.CheckRemoveAuditor(caller, id); err != nil {
		l.mu.Unlock()
		return err
	}
	_, err := l.commit(ctx, events.Event{Kind: events.KindAuditorRemoved, Actor: caller, Auditor: id})
	return err
}

func (l *Ledger) pendingForAudit(caller model.Identity, id uint64) (*paper, error) {
	if !l.access.IsAuthorized(caller) {
		return nil, model.Errorf(model.KindUnauthorized, "caller %q is not an auditor", caller)
	}
	p, err := l.paper(id)
	if err != nil {
		return nil, err
	}
	if p.status != model.StatusPending {
		return nil, model.Errorf(model.KindInvalidState, "paper %d is %s, not PENDING", id, p.status)
	}
	return p, nil
}

func (l *Ledger) ownedBy(caller model.Identity, id uint64) (*paper, error) {
	p, err := l.paper(id)
	if err != nil {
		return nil, err
	}
	if caller.IsZero() || caller != p.owner {
		return nil, model.Errorf(model.KindUnauthorized, "caller %q does not own paper %d", caller, id)
	}
	return p, nil
}
