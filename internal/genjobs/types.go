package genjobs

import (
	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/draftforge/draftforge/internal/compose"
	"github.com/draftforge/draftforge/internal/store/model"
)

const (
	DefaultQueue = "compose"
)

// ComposeArgs is the payload delivered to the compose worker. It is
// stored in river_job.args as JSON. Sections is nil on bare
// redeliveries; when set it carries a (possibly re-)submitted request
// that is merged against persisted progress before processing.
type ComposeArgs struct {
	JobID    uuid.UUID                `json:"jobId"`
	OrgID    string                   `json:"orgId"`
	Title    string                   `json:"title,omitempty"`
	Sections []compose.SectionRequest `json:"sections,omitempty"`
}

func (ComposeArgs) Kind() string {
	return model.JobTypeCompose
}

func (ComposeArgs) InsertOpts() river.InsertOpts {
	policy := DefaultRetryPolicy()
	return river.InsertOpts{
		Queue:       DefaultQueue,
		MaxAttempts: policy.MaxAttempts,
	}
}
