package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Material kinds
const (
	MaterialKindNote       = "note"
	MaterialKindTranscript = "transcript"
	MaterialKindReference  = "reference"
)

// Material is a piece of curated source material sections are generated
// from. Section identity is derived from the set of material ids a
// section references.
type Material struct {
	ID        uuid.UUID `gorm:"primaryKey;type:VARCHAR(255);"`
	OrgID     string    `gorm:"not null;uniqueIndex:materials_org_id_name;index:materials_org_id_idx"`
	Name      string    `gorm:"not null;uniqueIndex:materials_org_id_name"`
	Kind      string    `gorm:"not null;type:VARCHAR(50)"`
	Body      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt *time.Time
}

type MaterialList []Material

func (m Material) String() string {
	val, _ := json.Marshal(m)
	return string(val)
}
