package events

import "github.com/rs/zerolog"

// LogSink writes one structured log line per event.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Emit(e Event) {
	ev := s.Logger.Info().
		Str("event", string(e.Kind)).
		Str("event_id", e.ID).
		Uint64("seq", e.Seq).
		Str("actor", e.Actor.String()).
		Time("at", e.At)
	if e.PaperID != 0 {
		ev = ev.Uint64("paper_id", e.PaperID)
	}
	if !e.Auditor.IsZero() {
		ev = ev.Str("auditor", e.Auditor.String())
	}
	if e.Version != nil {
		ev = ev.Int("version_index", e.VersionIndex).
			Str("content_id", e.Version.ContentID).
			Str("content_hash", e.Version.ContentHash.String())
	}
	ev.Msg("ledger event")
}
