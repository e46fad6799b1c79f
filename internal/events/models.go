package events

// JobEvent reports a job status transition.
type JobEvent struct {
	JobID    string  `json:"job_id"`
	OrgID    string  `json:"org_id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`
}

// SectionEvent reports a completed section and the document it produced.
type SectionEvent struct {
	JobID      string  `json:"job_id"`
	SectionKey string  `json:"section_key"`
	DocumentID string  `json:"document_id"`
	Progress   float64 `json:"progress"`
}
