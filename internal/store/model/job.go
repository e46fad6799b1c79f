package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/draftforge/internal/compose"
)

// Job status constants
const (
	JobStatusQueued     = "queued"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Job kinds, namespacing work types on the queue.
const (
	JobTypeCompose = "document_compose"
)

type Job struct {
	ID          uuid.UUID `gorm:"primaryKey;type:VARCHAR(255);"`
	OrgID       string    `gorm:"not null;index:jobs_org_id_idx"`
	JobType     string    `gorm:"not null;type:VARCHAR(100)"`
	Status      string    `gorm:"not null;type:VARCHAR(50)"`
	Progress    float64   `gorm:"not null;default:0"`
	WorkerID    *string   `gorm:"type:VARCHAR(255)"`
	LastError   *string
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   *time.Time
	CompletedAt *time.Time

	// UpdateSeq guards concurrent writers: updates are conditional on the
	// sequence read, a losing writer gets ErrConcurrentUpdate.
	UpdateSeq int64 `gorm:"not null;default:0"`

	ResumableState *JSONField[compose.ResumableState] `gorm:"type:jsonb"`
	Log            *JSONField[[]JobLogEntry]          `gorm:"type:jsonb"`
}

// JobLogEntry is one line of the job's structured activity log.
type JobLogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Section string    `json:"section,omitempty"`
}

type JobList []Job

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}

// Terminal reports whether the job reached a terminal status. Terminal
// jobs never mutate their resumable state again.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
