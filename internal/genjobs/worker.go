package genjobs

import (
	"context"
	"time"

	"github.com/riverqueue/river"

	"github.com/draftforge/draftforge/internal/generation"
	"github.com/draftforge/draftforge/internal/store"
)

const (
	JobTimeout = 30 * time.Minute
)

// ComposeWorker adapts the Processor to the River worker contract.
// Deliveries are at-least-once; the processor tolerates duplicates.
type ComposeWorker struct {
	river.WorkerDefaults[ComposeArgs]
	processor *Processor
	policy    RetryPolicy
}

func NewComposeWorker(s store.Store, producer generation.Producer, emitter Emitter, sectionMaxAttempts int, workerID string, policy RetryPolicy) *ComposeWorker {
	return &ComposeWorker{
		processor: NewProcessor(s, producer, emitter, sectionMaxAttempts, workerID),
		policy:    policy,
	}
}

func (w *ComposeWorker) Timeout(job *river.Job[ComposeArgs]) time.Duration {
	return JobTimeout
}

// NextRetry applies the explicit backoff policy instead of River's
// default schedule.
func (w *ComposeWorker) NextRetry(job *river.Job[ComposeArgs]) time.Time {
	return time.Now().Add(w.policy.Backoff(job.Attempt))
}

func (w *ComposeWorker) Work(ctx context.Context, job *river.Job[ComposeArgs]) error {
	// Check for cancellation before touching the store
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.processor.Process(ctx, job.Args)
}
