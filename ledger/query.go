package ledger

import "xdao.co/paperledger/model"

// PaperInfo returns a snapshot of paper id.
func (l *Ledger) PaperInfo(id uint64) (model.PaperInfo, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, err := l.paper(id)
	if err != nil {
		return model.PaperInfo{}, err
	}
	return p.info(id), nil
}

// Version returns a copy of version index of paper id.
func (l *Ledger) Version(id uint64, index int) (model.Version, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, err := l.paper(id)
	if err != nil {
		return model.Version{}, err
	}
	if index < 0 || index >= len(p.versions) {
		return model.Version{}, model.Errorf(model.KindInvalidArgument, "paper %d has no version %d", id, index)
	}
	return p.versions[index].Clone(), nil
}

// Versions returns copies of every version of paper id, oldest first.
func (l *Ledger) Versions(id uint64) ([]model.Version, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, err := l.paper(id)
	if err != nil {
		return nil, err
	}
	out := make([]model.Version, len(p.versions))
	for i, v := range p.versions {
		out[i] = v.Clone()
	}
	return out, nil
}

func (l *Ledger) PaperCount() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.papers))
}

// IsContentUsed reports whether hash is reserved by an approved paper, and which.
func (l *Ledger) IsContentUsed(hash model.ContentHash) (uint64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.used[hash]
	return id, ok
}

// Filter selects papers in Papers. Zero fields match everything.
type Filter struct {
	Owner  model.Identity
	Status *model.Status
}

// Papers returns the papers matching f in ascending id order.
func (l *Ledger) Papers(f Filter) []model.PaperInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []model.PaperInfo
	for i, p := range l.papers {
		if !f.Owner.IsZero() && p.owner != f.Owner {
			continue
		}
		if f.Status != nil && p.status != *f.Status {
			continue
		}
		out = append(out, p.info(uint64(i+1)))
	}
	return out
}

func (l *Ledger) Admin() model.Identity {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.access.Admin()
}

func (l *Ledger) IsAuthorized(id model.Identity) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.access.IsAuthorized(id)
}

func (l *Ledger) IsAuditor(id model.Identity) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.access.IsAuditor(id)
}

func (l *Ledger) Auditors() []model.Identity {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.access.Auditors()
}

// Seq returns the sequence number of the last applied event.
func (l *Ledger) Seq() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq
}
