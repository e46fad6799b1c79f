package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/draftforge/draftforge/api/v1alpha1"
	"github.com/draftforge/draftforge/internal/compose"
	"github.com/draftforge/draftforge/internal/genjobs"
	"github.com/draftforge/draftforge/internal/service/mappers"
	"github.com/draftforge/draftforge/internal/store"
	"github.com/draftforge/draftforge/internal/store/model"
)

// JobQueue enqueues compose work for asynchronous processing.
// Satisfied by genjobs.Client.
type JobQueue interface {
	InsertJob(ctx context.Context, args genjobs.ComposeArgs) (int64, error)
}

type JobService struct {
	store store.Store
	queue JobQueue
}

func NewJobService(store store.Store, queue JobQueue) *JobService {
	return &JobService{store: store, queue: queue}
}

// SubmitJob accepts a compose request and enqueues it. Submitting an
// existing job id is a resubmission: the worker reconciles the new
// section list against persisted progress, so completed sections whose
// identity is unchanged are not redone.
func (s *JobService) SubmitJob(ctx context.Context, orgID string, request *api.SubmitJobRequest) (*model.Job, error) {
	jobID := uuid.New()
	if request.ID != nil {
		parsed, err := uuid.Parse(*request.ID)
		if err != nil {
			return nil, NewErrInvalidRequest("invalid job id %q", *request.ID)
		}
		jobID = parsed
	}

	// ownership is settled before material validation so a caller
	// probing another organization's job learns nothing about materials
	job, err := s.store.Job().Get(ctx, jobID)
	switch {
	case err == nil:
		if job.OrgID != orgID {
			return nil, NewErrJobAccessForbidden(jobID)
		}
	case errors.Is(err, store.ErrRecordNotFound):
		job = nil
	default:
		return nil, err
	}

	sections := mappers.SectionRequestsFromApi(request.Sections)
	if err := s.checkMaterials(ctx, orgID, sections); err != nil {
		return nil, err
	}

	if job == nil {
		job, err = s.store.Job().Create(ctx, model.Job{
			ID:      jobID,
			OrgID:   orgID,
			JobType: model.JobTypeCompose,
			Status:  model.JobStatusQueued,
		})
		if errors.Is(err, store.ErrDuplicateKey) {
			// racing submission created it first
			job, err = s.store.Job().Get(ctx, jobID)
			if err == nil && job.OrgID != orgID {
				return nil, NewErrJobAccessForbidden(jobID)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	if _, err := s.queue.InsertJob(ctx, genjobs.ComposeArgs{
		JobID:    jobID,
		OrgID:    orgID,
		Title:    request.Title,
		Sections: sections,
	}); err != nil {
		zap.S().Named("job_service").Errorw("failed to enqueue job", "job_id", jobID, "error", err)
		return nil, err
	}

	return job, nil
}

func (s *JobService) GetJob(ctx context.Context, orgID string, id uuid.UUID) (*model.Job, error) {
	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}

	if job.OrgID != orgID {
		return nil, NewErrJobAccessForbidden(id)
	}

	return job, nil
}

// ListFilter narrows a job listing. Zero values leave the listing
// unfiltered.
type ListFilter struct {
	Status  string
	JobType string
	Limit   int
	Offset  int
}

func (s *JobService) ListJobs(ctx context.Context, orgID string, filter ListFilter) ([]model.Job, error) {
	qf := store.NewJobQueryFilter().ByOrgID(orgID)
	if filter.Status != "" {
		qf = qf.ByStatus(filter.Status)
	}
	if filter.JobType != "" {
		qf = qf.ByJobType(filter.JobType)
	}
	if filter.Limit > 0 {
		qf = qf.WithLimit(filter.Limit)
	}
	if filter.Offset > 0 {
		qf = qf.WithOffset(filter.Offset)
	}
	return s.store.Job().List(ctx, qf)
}

// checkMaterials rejects a submission referencing materials that do not
// exist in the caller's organization. The check is advisory, the worker
// reloads materials when it generates a section.
func (s *JobService) checkMaterials(ctx context.Context, orgID string, sections []compose.SectionRequest) error {
	seen := make(map[string]struct{})
	ids := []uuid.UUID{}
	for _, section := range sections {
		for _, raw := range section.MaterialIDs {
			if _, ok := seen[raw]; ok {
				continue
			}
			seen[raw] = struct{}{}

			id, err := uuid.Parse(raw)
			if err != nil {
				return NewErrInvalidRequest("invalid material id %q", raw)
			}
			ids = append(ids, id)
		}
	}

	materials, err := s.store.Material().GetByIDs(ctx, ids)
	if err != nil {
		return err
	}

	found := make(map[string]struct{}, len(materials))
	for _, m := range materials {
		if m.OrgID == orgID {
			found[m.ID.String()] = struct{}{}
		}
	}
	for _, id := range ids {
		if _, ok := found[id.String()]; !ok {
			return NewErrMaterialMissing(id.String())
		}
	}

	return nil
}
