package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Document status constants
const (
	DocumentStatusDraft     = "draft"
	DocumentStatusGenerated = "generated"
	DocumentStatusArchived  = "archived"
)

// DocumentContent is the produced artifact payload: the generated text
// plus the generation inputs recorded for traceability.
type DocumentContent struct {
	Body        string   `json:"body"`
	SectionType string   `json:"sectionType,omitempty"`
	MaterialIDs []string `json:"materialIds,omitempty"`
	WordCount   int      `json:"wordCount,omitempty"`
}

// Document is the live artifact. Its lifecycle is independent of the job
// that produced it: a job dropping a section from a later submission
// never deletes the section's document.
type Document struct {
	ID             uuid.UUID `gorm:"primaryKey;type:VARCHAR(255);"`
	OrgID          string    `gorm:"not null;index:documents_org_id_idx"`
	Title          string    `gorm:"not null"`
	Status         string    `gorm:"not null;type:VARCHAR(50)"`
	CurrentVersion int       `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      *time.Time

	Content  *JSONField[DocumentContent] `gorm:"type:jsonb"`
	Versions []DocumentVersion           `gorm:"foreignKey:DocumentID;references:ID;constraint:OnDelete:CASCADE;"`
}

// DocumentVersion is an immutable snapshot of the document at a version.
// Rows are append-only: an existing (document id, version) pair is never
// updated or deleted, rollback writes a new forward version instead.
type DocumentVersion struct {
	DocumentID uuid.UUID `gorm:"primaryKey;type:VARCHAR(255);"`
	Version    int       `gorm:"primaryKey"`
	Status     string    `gorm:"not null;type:VARCHAR(50)"`
	CreatedAt  time.Time `gorm:"not null"`

	Content *JSONField[DocumentContent] `gorm:"type:jsonb;not null"`
}

type DocumentList []Document

func (d Document) String() string {
	val, _ := json.Marshal(d)
	return string(val)
}

func (v DocumentVersion) String() string {
	val, _ := json.Marshal(v)
	return string(val)
}
