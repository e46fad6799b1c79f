package v1alpha1

import (
	"net/http"
	"time"
)

type Error struct {
	Message   string  `json:"message"`
	RequestID *string `json:"request_id,omitempty"`
}

func (e Error) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// SectionSpec is one requested unit of work inside a job submission.
// Type and MaterialIDs define the section identity; the remaining
// fields are presentation hints and may change between submissions.
type SectionSpec struct {
	Type         string   `json:"type" validate:"required,section_type"`
	MaterialIDs  []string `json:"material_ids" validate:"required,material_refs"`
	Title        string   `json:"title,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	TargetWords  int      `json:"target_words,omitempty" validate:"gte=0"`
	Optional     bool     `json:"optional,omitempty"`
}

type SubmitJobRequest struct {
	ID       *string       `json:"id,omitempty" validate:"omitempty,uuid4"`
	Title    string        `json:"title" validate:"required,job_title"`
	Sections []SectionSpec `json:"sections" validate:"required,min=1,dive"`
}

type SectionStateReply struct {
	Key         string   `json:"key"`
	Type        string   `json:"type"`
	Title       string   `json:"title,omitempty"`
	MaterialIDs []string `json:"material_ids"`
	Status      string   `json:"status"`
	Attempts    int      `json:"attempts"`
	DocumentID  *string  `json:"document_id,omitempty"`
	LastError   string   `json:"last_error,omitempty"`
}

type JobReply struct {
	ID          string              `json:"id"`
	Status      string              `json:"status"`
	Progress    float64             `json:"progress"`
	Sections    []SectionStateReply `json:"sections,omitempty"`
	LastError   *string             `json:"last_error,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   *time.Time          `json:"updated_at,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

func (j JobReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type JobListReply struct {
	Jobs []JobReply `json:"jobs"`
}

func (j JobListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type DocumentReply struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Status         string     `json:"status"`
	CurrentVersion int        `json:"current_version"`
	Body           string     `json:"body"`
	SectionType    string     `json:"section_type"`
	MaterialIDs    []string   `json:"material_ids"`
	WordCount      int        `json:"word_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

func (d DocumentReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type DocumentVersionReply struct {
	DocumentID string    `json:"document_id"`
	Version    int       `json:"version"`
	Status     string    `json:"status"`
	Body       string    `json:"body"`
	WordCount  int       `json:"word_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func (d DocumentVersionReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type DocumentVersionListReply struct {
	Versions []DocumentVersionReply `json:"versions"`
}

func (d DocumentVersionListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type RollbackRequest struct {
	TargetVersion int `json:"target_version" validate:"required,gte=1"`
}

type CreateMaterialRequest struct {
	Name string `json:"name" validate:"required,material_name"`
	Kind string `json:"kind" validate:"required,material_kind"`
	Body string `json:"body" validate:"required"`
}

type MaterialReply struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (m MaterialReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type MaterialListReply struct {
	Materials []MaterialReply `json:"materials"`
}

func (m MaterialListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
