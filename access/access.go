// Package access implements the auditor registry that gates privileged ledger
// operations.
//
// A Registry holds one administrator identity and a mutable set of auditors.
// It is not safe for concurrent use; package ledger serializes access to it.
package access

import (
	"sort"

	"xdao.co/paperledger/model"
)

type Registry struct {
	admin    model.Identity
	auditors map[model.Identity]struct{}
}

// New constructs a registry administered by admin.
func New(admin model.Identity) (*Registry, error) {
	if admin.IsZero() {
		return nil, model.Errorf(model.KindInvalidArgument, "admin identity is required")
	}
	return &Registry{admin: admin, auditors: make(map[model.Identity]struct{})}, nil
}

func (r *Registry) Admin() model.Identity { return r.admin }

// AddAuditor adds id to the auditor set. Only the administrator may call it.
func (r *Registry) AddAuditor(caller, id model.Identity) error {
	if err := r.CheckAddAuditor(caller, id); err != nil {
		return err
	}
	r.auditors[id] = struct{}{}
	return nil
}

// CheckAddAuditor validates an AddAuditor call without mutating the registry.
func (r *Registry) CheckAddAuditor(caller, id model.Identity) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if id.IsZero() {
		return model.Errorf(model.KindInvalidArgument, "auditor identity is required")
	}
	if r.IsAuditor(id) {
		return model.Errorf(model.KindAlreadyExists, "%s is already an auditor", id)
	}
	return nil
}

// RemoveAuditor removes id from the auditor set. Only the administrator may call it.
func (r *Registry) RemoveAuditor(caller, id model.Identity) error {
	if err := r.CheckRemoveAuditor(caller, id); err != nil {
		return err
	}
	delete(r.auditors, id)
	return nil
}

// CheckRemoveAuditor validates a RemoveAuditor call without mutating the registry.
func (r *Registry) CheckRemoveAuditor(caller, id model.Identity) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if !r.IsAuditor(id) {
		return model.Errorf(model.KindNotFound, "%s is not an auditor", id)
	}
	return nil
}

// IsAuthorized reports whether id may approve or reject papers.
func (r *Registry) IsAuthorized(id model.Identity) bool {
	if id.IsZero() {
		return false
	}
	return id == r.admin || r.IsAuditor(id)
}

func (r *Registry) IsAuditor(id model.Identity) bool {
	_, ok := r.auditors[id]
	return ok
}

// Auditors returns the auditor set sorted by identity.
func (r *Registry) Auditors() []model.Identity {
	out := make([]model.Identity, 0, len(r.auditors))
	for id := range r.auditors {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) Len() int { return len(r.auditors) }

// Reset clears the auditor set. The administrator is kept.
func (r *Registry) Reset() {
	r.auditors = make(map[model.Identity]struct{})
}

func (r *Registry) requireAdmin(caller model.Identity) error {
	if caller.IsZero() || caller != r.admin {
		return model.Errorf(model.KindUnauthorized, "caller %q is not the administrator", caller)
	}
	return nil
}
