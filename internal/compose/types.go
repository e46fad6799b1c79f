package compose

import (
	"encoding/json"

	"github.com/google/uuid"
)

type SectionStatus string

const (
	SectionStatusPending    SectionStatus = "pending"
	SectionStatusProcessing SectionStatus = "processing"
	SectionStatusCompleted  SectionStatus = "completed"
	SectionStatusFailed     SectionStatus = "failed"
)

// Known section types. Submissions carrying any other type are rejected
// before the job touches persisted state.
const (
	SectionTypeOverview  = "overview"
	SectionTypeNarrative = "narrative"
	SectionTypeAnalysis  = "analysis"
	SectionTypeSummary   = "summary"
	SectionTypeAppendix  = "appendix"
)

var knownSectionTypes = map[string]struct{}{
	SectionTypeOverview:  {},
	SectionTypeNarrative: {},
	SectionTypeAnalysis:  {},
	SectionTypeSummary:   {},
	SectionTypeAppendix:  {},
}

// KnownSectionType reports whether t is a supported section type.
func KnownSectionType(t string) bool {
	_, ok := knownSectionTypes[t]
	return ok
}

// SectionRequest describes one requested section of the document.
// Type and MaterialIDs form the section's identity; the remaining
// fields are presentation hints and may change between submissions
// without changing the section's identity.
type SectionRequest struct {
	Type         string   `json:"type"`
	MaterialIDs  []string `json:"materialIds"`
	Title        string   `json:"title,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	TargetWords  int      `json:"targetWords,omitempty"`
	Optional     bool     `json:"optional,omitempty"`
}

// SectionState tracks one section across resubmissions, retries and
// worker crashes. DocumentID links the produced document; the document's
// lifecycle is independent of the job and is never cleared once set.
type SectionState struct {
	Key        string         `json:"key"`
	Request    SectionRequest `json:"request"`
	Status     SectionStatus  `json:"status"`
	Attempts   int            `json:"attempts"`
	DocumentID *uuid.UUID     `json:"documentId,omitempty"`
	LastError  string         `json:"lastError,omitempty"`
}

// ResumableState is the canonical job state: the reconciled ordered list
// of section states plus the cursor of the next section to attempt.
// It is persisted as a whole after every section transition.
type ResumableState struct {
	Sections []SectionState `json:"sections"`
	Cursor   int            `json:"cursor"`
}

func (s ResumableState) String() string {
	val, _ := json.Marshal(s)
	return string(val)
}

// Empty reports whether the state carries no sections, i.e. the job has
// never been merged with a submission.
func (s *ResumableState) Empty() bool {
	return len(s.Sections) == 0
}

// Progress is completed sections over total sections, in [0,1].
// Completed sections are never uncompleted by merges or advances, so
// successive values within one job run are non-decreasing.
func (s *ResumableState) Progress() float64 {
	if len(s.Sections) == 0 {
		return 0
	}
	completed := 0
	for i := range s.Sections {
		if s.Sections[i].Status == SectionStatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(s.Sections))
}
