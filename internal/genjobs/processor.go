package genjobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draftforge/draftforge/internal/compose"
	"github.com/draftforge/draftforge/internal/events"
	"github.com/draftforge/draftforge/internal/generation"
	"github.com/draftforge/draftforge/internal/store"
	"github.com/draftforge/draftforge/internal/store/model"
	"github.com/draftforge/draftforge/pkg/metrics"
)

// Emitter publishes job lifecycle events. Satisfied by
// events.EventProducer; nil disables emission.
type Emitter interface {
	Write(ctx context.Context, kind string, body io.Reader) error
}

// Processor drives one delivered compose job to completion. It owns the
// execution contract: merge on (re-)submission, advance section by
// section, persist after every transition under the job's update
// sequence guard, and tolerate redelivery of already finished work.
//
// Sections within a job are processed sequentially; a lost
// compare-and-write means another delivery of the same job is active,
// in which case the processor re-reads fresh state and continues from
// there.
type Processor struct {
	store              store.Store
	producer           generation.Producer
	emitter            Emitter
	sectionMaxAttempts int
	workerID           string
}

func NewProcessor(s store.Store, producer generation.Producer, emitter Emitter, sectionMaxAttempts int, workerID string) *Processor {
	if sectionMaxAttempts <= 0 {
		sectionMaxAttempts = 3
	}
	return &Processor{
		store:              s,
		producer:           producer,
		emitter:            emitter,
		sectionMaxAttempts: sectionMaxAttempts,
		workerID:           workerID,
	}
}

// Process is the entrypoint for a delivery. Returning an error yields
// the job back to the broker for redelivery; validation failures are
// recorded on the job and not retried.
func (p *Processor) Process(ctx context.Context, args ComposeArgs) error {
	logger := zap.S().Named("compose_processor")

	job, err := p.loadOrCreateJob(ctx, args)
	if err != nil {
		return err
	}

	// redelivery of a finished job is a no-op; an explicit resubmission
	// reopens it and reconciles against the recorded progress
	if job.Terminal() && len(args.Sections) == 0 {
		logger.Infow("skipping terminal job", "job_id", job.ID, "status", job.Status)
		return nil
	}

	state := compose.ResumableState{}
	if job.ResumableState != nil {
		state = job.ResumableState.Data
	}

	if len(args.Sections) > 0 {
		merged, mergeErr := compose.Merge(state, args.Sections)
		if mergeErr != nil {
			// malformed submission: fail the job, don't redeliver
			if _, failErr := p.failJob(ctx, job, state, mergeErr); failErr != nil {
				return failErr
			}
			logger.Warnw("rejected submission", "job_id", job.ID, "error", mergeErr)
			return nil
		}
		state = merged
	}

	job, err = p.claim(ctx, job, state)
	if err != nil {
		return err
	}
	state = job.ResumableState.Data

	for {
		i, ok := state.Next(p.sectionMaxAttempts)
		if !ok {
			break
		}
		job, state, err = p.processSection(ctx, job, state, i)
		if err != nil {
			return err
		}
		if job.Terminal() {
			// another delivery finished the job while we were racing it
			return nil
		}
	}

	return p.finalize(ctx, job, state)
}

func (p *Processor) loadOrCreateJob(ctx context.Context, args ComposeArgs) (*model.Job, error) {
	job, err := p.store.Job().Get(ctx, args.JobID)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	created, err := p.store.Job().Create(ctx, model.Job{
		ID:      args.JobID,
		OrgID:   args.OrgID,
		JobType: model.JobTypeCompose,
		Status:  model.JobStatusQueued,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			// racing delivery created it first
			return p.store.Job().Get(ctx, args.JobID)
		}
		return nil, err
	}
	return created, nil
}

// claim marks the job in progress under this worker and persists the
// merged state. Losing the guard means a concurrent delivery claimed
// it; the fresh row is used instead.
func (p *Processor) claim(ctx context.Context, job *model.Job, state compose.ResumableState) (*model.Job, error) {
	job.Status = model.JobStatusInProgress
	job.WorkerID = &p.workerID
	job.Progress = state.Progress()
	job.LastError = nil
	job.CompletedAt = nil
	job.ResumableState = model.MakeJSONField(state)
	appendLog(job, "info", "job claimed", "")

	updated, err := p.store.Job().Update(ctx, *job)
	if errors.Is(err, store.ErrConcurrentUpdate) {
		return p.store.Job().Get(ctx, job.ID)
	}
	if err != nil {
		return nil, err
	}

	p.emit(ctx, events.JobStartedKind, events.JobEvent{JobID: job.ID.String(), OrgID: job.OrgID, Status: updated.Status, Progress: updated.Progress})
	return updated, nil
}

// processSection drives a single section: count the attempt, call the
// producer, then commit the outcome. The completion write is
// transactional across document, version snapshot and job state, so a
// section is never marked completed without its document existing.
func (p *Processor) processSection(ctx context.Context, job *model.Job, state compose.ResumableState, i int) (*model.Job, compose.ResumableState, error) {
	logger := zap.S().Named("compose_processor")
	section := state.Sections[i]

	state.MarkProcessing(i)
	appendLog(job, "info", fmt.Sprintf("section attempt %d", state.Sections[i].Attempts), section.Key)
	job, state, conflicted, err := p.persist(ctx, job, state)
	if err != nil {
		return nil, state, err
	}
	if conflicted {
		return job, state, nil
	}

	materials, err := p.loadMaterials(ctx, section.Request.MaterialIDs)
	if err != nil {
		return nil, state, err
	}

	start := time.Now()
	content, produceErr := p.producer.Produce(ctx, section.Request, materials)
	metrics.ObserveSectionGenerationDuration(section.Request.Type, time.Since(start))

	if produceErr != nil {
		logger.Warnw("section production failed",
			"job_id", job.ID,
			"section", section.Key,
			"attempt", state.Sections[i].Attempts,
			"error", produceErr,
		)
		if !errors.Is(produceErr, generation.ErrTransient) {
			// permanent failure burns the remaining budget
			state.Sections[i].Attempts = p.sectionMaxAttempts
		}
		terminal := state.MarkFailed(i, produceErr, p.sectionMaxAttempts)
		level := "warn"
		if terminal {
			level = "error"
		}
		appendLog(job, level, fmt.Sprintf("section failed: %v", produceErr), section.Key)
		metrics.IncSectionsGenerated(string(compose.SectionStatusFailed))

		job, state, _, err = p.persist(ctx, job, state)
		return job, state, err
	}

	return p.commitSection(ctx, job, state, i, *content)
}

// commitSection writes the produced document, its first version
// snapshot and the advanced job state atomically.
func (p *Processor) commitSection(ctx context.Context, job *model.Job, state compose.ResumableState, i int, content model.DocumentContent) (*model.Job, compose.ResumableState, error) {
	section := state.Sections[i]

	txCtx, err := p.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, state, err
	}
	defer func() {
		_, _ = store.Rollback(txCtx)
	}()

	document, err := p.store.Document().Create(txCtx, model.Document{
		ID:             uuid.New(),
		OrgID:          job.OrgID,
		Title:          sectionTitle(section.Request),
		Status:         model.DocumentStatusGenerated,
		CurrentVersion: 1,
		Content:        model.MakeJSONField(content),
	})
	if err != nil {
		return nil, state, err
	}

	if err := p.store.DocumentVersion().Snapshot(txCtx, model.DocumentVersion{
		DocumentID: document.ID,
		Version:    1,
		Status:     document.Status,
		Content:    model.MakeJSONField(content),
	}); err != nil {
		return nil, state, err
	}

	state.MarkCompleted(i, document.ID)
	job.Progress = state.Progress()
	job.ResumableState = model.MakeJSONField(state)
	appendLog(job, "info", "section completed", section.Key)

	updated, err := p.store.Job().Update(txCtx, *job)
	if errors.Is(err, store.ErrConcurrentUpdate) {
		// lost the race: the document write rolls back with the tx,
		// fresh state decides whether this section still needs work
		_, _ = store.Rollback(txCtx)
		return p.reload(ctx, job.ID, state)
	}
	if err != nil {
		return nil, state, err
	}

	if _, err := store.Commit(txCtx); err != nil {
		return nil, state, err
	}

	metrics.IncSectionsGenerated(string(compose.SectionStatusCompleted))
	p.emit(ctx, events.SectionCompletedKind, events.SectionEvent{
		JobID:      job.ID.String(),
		SectionKey: section.Key,
		DocumentID: document.ID.String(),
		Progress:   updated.Progress,
	})

	return updated, updated.ResumableState.Data, nil
}

func (p *Processor) finalize(ctx context.Context, job *model.Job, state compose.ResumableState) error {
	if failed := state.FailedRequired(p.sectionMaxAttempts); failed != nil {
		_, err := p.failJob(ctx, job, state, fmt.Errorf("section %s: %s", failed.Key, failed.LastError))
		return err
	}

	now := time.Now()
	job.Status = model.JobStatusCompleted
	job.Progress = 1.0
	job.CompletedAt = &now
	job.ResumableState = model.MakeJSONField(state)
	appendLog(job, "info", "job completed", "")

	updated, err := p.store.Job().Update(ctx, *job)
	if errors.Is(err, store.ErrConcurrentUpdate) {
		// someone else finalized; nothing left to do
		return nil
	}
	if err != nil {
		return err
	}

	metrics.IncJobsProcessed(model.JobTypeCompose, model.JobStatusCompleted)
	p.emit(ctx, events.JobCompletedKind, events.JobEvent{JobID: job.ID.String(), OrgID: job.OrgID, Status: updated.Status, Progress: updated.Progress})
	return nil
}

func (p *Processor) failJob(ctx context.Context, job *model.Job, state compose.ResumableState, cause error) (*model.Job, error) {
	now := time.Now()
	msg := cause.Error()
	job.Status = model.JobStatusFailed
	job.LastError = &msg
	job.Progress = state.Progress()
	job.CompletedAt = &now
	job.ResumableState = model.MakeJSONField(state)
	appendLog(job, "error", msg, "")

	updated, err := p.store.Job().Update(ctx, *job)
	if errors.Is(err, store.ErrConcurrentUpdate) {
		return p.store.Job().Get(ctx, job.ID)
	}
	if err != nil {
		return nil, err
	}

	metrics.IncJobsProcessed(model.JobTypeCompose, model.JobStatusFailed)
	p.emit(ctx, events.JobFailedKind, events.JobEvent{JobID: job.ID.String(), OrgID: job.OrgID, Status: updated.Status, Progress: updated.Progress, Error: msg})
	return updated, nil
}

// persist writes state under the guard. A lost guard re-reads fresh
// state and reports the conflict so the caller restarts from it.
func (p *Processor) persist(ctx context.Context, job *model.Job, state compose.ResumableState) (*model.Job, compose.ResumableState, bool, error) {
	job.Progress = state.Progress()
	job.ResumableState = model.MakeJSONField(state)

	updated, err := p.store.Job().Update(ctx, *job)
	if errors.Is(err, store.ErrConcurrentUpdate) {
		fresh, freshState, reloadErr := p.reload(ctx, job.ID, state)
		return fresh, freshState, true, reloadErr
	}
	if err != nil {
		return nil, state, false, err
	}
	return updated, updated.ResumableState.Data, false, nil
}

func (p *Processor) reload(ctx context.Context, jobID uuid.UUID, fallback compose.ResumableState) (*model.Job, compose.ResumableState, error) {
	fresh, err := p.store.Job().Get(ctx, jobID)
	if err != nil {
		return nil, fallback, err
	}
	if fresh.ResumableState == nil {
		return fresh, fallback, nil
	}
	return fresh, fresh.ResumableState.Data, nil
}

func (p *Processor) loadMaterials(ctx context.Context, ids []string) (model.MaterialList, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		parsedID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid material id %q: %w", id, err)
		}
		parsed = append(parsed, parsedID)
	}
	return p.store.Material().GetByIDs(ctx, parsed)
}

func (p *Processor) emit(ctx context.Context, kind string, payload any) {
	if p.emitter == nil {
		return
	}
	body, err := encodeEvent(payload)
	if err != nil {
		zap.S().Named("compose_processor").Warnw("failed to encode event", "kind", kind, "error", err)
		return
	}
	if err := p.emitter.Write(ctx, kind, body); err != nil {
		zap.S().Named("compose_processor").Warnw("failed to emit event", "kind", kind, "error", err)
	}
}

func sectionTitle(req compose.SectionRequest) string {
	if req.Title != "" {
		return req.Title
	}
	return req.Type
}

func appendLog(job *model.Job, level, message, section string) {
	entry := model.JobLogEntry{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Section: section,
	}
	if job.Log == nil {
		job.Log = model.MakeJSONField([]model.JobLogEntry{entry})
		return
	}
	job.Log.Data = append(job.Log.Data, entry)
}
