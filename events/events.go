// Package events defines the notifications emitted by every successful ledger
// mutation and the sinks that consume them.
package events

import (
	"time"

	"xdao.co/paperledger/model"
)

type Kind string

const (
	KindPaperSubmitted Kind = "paper.submitted"
	KindPaperApproved  Kind = "paper.approved"
	KindPaperRejected  Kind = "paper.rejected"
	KindPaperRemoved   Kind = "paper.removed"
	KindVersionAdded   Kind = "paper.version_added"
	KindAuditorAdded   Kind = "auditor.added"
	KindAuditorRemoved Kind = "auditor.removed"
)

// Kinds lists every event kind in declaration order.
var Kinds = []Kind{
	KindPaperSubmitted,
	KindPaperApproved,
	KindPaperRejected,
	KindPaperRemoved,
	KindVersionAdded,
	KindAuditorAdded,
	KindAuditorRemoved,
}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Event is one ledger notification.
//
// Seq is dense and starts at 1. PaperID is set for paper.* kinds and Auditor
// for auditor.* kinds. Version carries the full payload for paper.submitted
// and paper.version_added; VersionIndex is the index of that version.
type Event struct {
	ID           string         `json:"id"`
	Seq          uint64         `json:"seq"`
	Kind         Kind           `json:"kind"`
	At           time.Time      `json:"at"`
	Actor        model.Identity `json:"actor"`
	PaperID      uint64         `json:"paperId,omitempty"`
	Auditor      model.Identity `json:"auditor,omitempty"`
	VersionIndex int            `json:"versionIndex,omitempty"`
	Version      *model.Version `json:"version,omitempty"`
	Title        string         `json:"title,omitempty"`
	Author       string         `json:"author,omitempty"`
}

// Clone returns a deep copy of e.
func (e Event) Clone() Event {
	out := e
	if e.Version != nil {
		v := e.Version.Clone()
		out.Version = &v
	}
	return out
}

// Sink consumes ledger events. Emit must not block for long; it runs on the
// caller's goroutine after the mutation has been committed.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Multi fans an event out to every sink in order. Nil sinks are skipped.
type Multi []Sink

func (m Multi) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}
