// Package processor orchestrates validate → enrich → persist for a single
// event. Validation failures return before any side effect; only validated
// events reach the log or session state.
package processor

import (
	"github.com/benbjohnson/clock"

	"github.com/hooklog/hooklog/internal/domain"
	"github.com/hooklog/hooklog/internal/logstore"
	"github.com/hooklog/hooklog/internal/session"
	"github.com/hooklog/hooklog/internal/validate"
)

// OutcomeKind is the tri-state result of processing one event.
type OutcomeKind string

const (
	// Accepted: validated, enriched, durably appended.
	Accepted OutcomeKind = "accepted"
	// Rejected: the caller sent bad input; the log was not touched.
	Rejected OutcomeKind = "rejected"
	// Failed: the input was fine but the system could not persist it.
	Failed OutcomeKind = "failed"
)

// Outcome reports what happened to one event.
type Outcome struct {
	Kind  OutcomeKind
	Seq   uint64        // set when Accepted
	Event *domain.Event // set when validation passed
	Err   error         // set when Rejected or Failed
}

// Processor wires the validator, the append log, and the session state
// store together. Sequence allocation happens inside the store's append
// critical section, so outcomes from concurrent processors (or goroutines)
// are still totally ordered.
type Processor struct {
	validator *validate.Validator
	store     *logstore.Store
	sessions  *session.Store // optional
	clk       clock.Clock
}

// New creates a Processor. sessions may be nil to skip session-state upkeep.
func New(v *validate.Validator, store *logstore.Store, sessions *session.Store, clk clock.Clock) *Processor {
	if clk == nil {
		clk = clock.New()
	}
	return &Processor{validator: v, store: store, sessions: sessions, clk: clk}
}

// Process runs one raw payload through the pipeline.
func (p *Processor) Process(raw []byte) Outcome {
	ev, err := p.validator.Validate(raw)
	if err != nil {
		return Outcome{Kind: Rejected, Err: err}
	}

	rec := domain.NewLogRecord(ev, p.clk.Now())
	seq, err := p.store.Append(rec)
	if err != nil {
		return Outcome{Kind: Failed, Event: ev, Err: err}
	}

	if p.sessions != nil {
		if err := p.sessions.Apply(ev, seq); err != nil {
			// The record is durable; a state-write fault is still a system
			// failure the caller must hear about.
			return Outcome{Kind: Failed, Seq: seq, Event: ev, Err: err}
		}
	}

	return Outcome{Kind: Accepted, Seq: seq, Event: ev}
}
