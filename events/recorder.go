package events

import "sync"

// Recorder keeps emitted events in memory, optionally bounded to the most
// recent Limit entries.
type Recorder struct {
	Limit int

	mu     sync.RWMutex
	events []Event
}

func NewRecorder(limit int) *Recorder {
	return &Recorder{Limit: limit}
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e.Clone())
	if r.Limit > 0 && len(r.events) > r.Limit {
		drop := len(r.events) - r.Limit
		r.events = append([]Event(nil), r.events[drop:]...)
	}
}

// Events returns a copy of the recorded events in emission order.
func (r *Recorder) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Event, len(r.events))
	for i, e := range r.events {
		out[i] = e.Clone()
	}
	return out
}

// Since returns events with Seq greater than seq.
func (r *Recorder) Since(seq uint64) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Event
	for _, e := range r.events {
		if e.Seq > seq {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
