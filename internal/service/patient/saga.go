package patient

import (
	"context"
	"log/slog"
	"time"
)

const compensationTimeout = 30 * time.Second

// saga records the completed steps of a multi-record write so they can be
// undone in reverse order. Every compensation must treat an already missing
// record as success.
type saga struct {
	name  string
	steps []sagaStep
}

type sagaStep struct {
	record     string
	compensate func(ctx context.Context) error
}

func newSaga(name string) *saga {
	return &saga{name: name}
}

// done registers a completed step and how to undo it.
func (s *saga) done(record string, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, sagaStep{record: record, compensate: compensate})
}

// rollback undoes every completed step, newest first, and returns the
// records that could not be removed.
func (s *saga) rollback(ctx context.Context, log *slog.Logger, cause error) []string {
	// Run even if the request was cancelled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var leftover []string
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if err := step.compensate(ctx); err != nil {
			log.Error("saga compensation failed", "saga", s.name, "record", step.record, "error", err)
			leftover = append(leftover, step.record)
		}
	}

	if len(leftover) > 0 {
		log.Error("patient saga left partial state", "saga", s.name, "leftover", leftover, "cause", cause)
	} else {
		log.Warn("patient saga rolled back", "saga", s.name, "steps", len(s.steps), "cause", cause)
	}
	return leftover
}
