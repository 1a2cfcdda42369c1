package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"xdao.co/paperledger/events"
)

// Journal durably records ledger events.
//
// Append is called under the ledger's write lock before the event is applied;
// an error aborts the mutation. Events returns the full journal ordered by Seq.
type Journal interface {
	Append(ctx context.Context, e events.Event) error
	Events(ctx context.Context) ([]events.Event, error)
}

// Options configures a Ledger. The zero value is an in-memory ledger with no
// sink, wall-clock time and a disabled logger.
type Options struct {
	Journal Journal
	Sink    events.Sink
	Clock   func() time.Time
	NewID   func() string
	Logger  *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}
