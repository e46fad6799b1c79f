package compose

import "github.com/google/uuid"

// Next selects the index of the next attemptable section in submission
// order starting at the cursor, wrapping once so retry-eligible sections
// earlier in the list are picked up after the first pass. Attemptable
// means pending, processing (an in-flight section left behind by a
// crashed worker is simply re-attempted), or failed with attempts left.
// Completed and terminally failed sections are skipped, which is what
// makes redelivery of the same job idempotent. Returns false when no
// section remains to attempt.
func (s *ResumableState) Next(maxAttempts int) (int, bool) {
	n := len(s.Sections)
	if n == 0 {
		return 0, false
	}
	start := s.Cursor
	if start < 0 || start >= n {
		start = 0
	}
	for off := 0; off < n; off++ {
		i := (start + off) % n
		if s.attemptable(i, maxAttempts) {
			s.Cursor = i
			return i, true
		}
	}
	return 0, false
}

func (s *ResumableState) attemptable(i, maxAttempts int) bool {
	switch s.Sections[i].Status {
	case SectionStatusPending, SectionStatusProcessing:
		return true
	case SectionStatusFailed:
		return s.Sections[i].Attempts < maxAttempts
	default:
		return false
	}
}

// MarkProcessing records that the worker picked up the section and
// counts the attempt.
func (s *ResumableState) MarkProcessing(i int) {
	s.Sections[i].Status = SectionStatusProcessing
	s.Sections[i].Attempts++
}

// MarkCompleted records the produced document and advances the cursor.
// Completed is terminal for a section: no later merge or advance ever
// clears the status or the document reference.
func (s *ResumableState) MarkCompleted(i int, documentID uuid.UUID) {
	s.Sections[i].Status = SectionStatusCompleted
	s.Sections[i].DocumentID = &documentID
	s.Sections[i].LastError = ""
	s.Cursor = i + 1
}

// MarkFailed records a production failure. Below the attempt budget the
// section returns to pending, eligible for the next retry cycle; at the
// budget it fails terminally. Reports whether the failure is terminal.
func (s *ResumableState) MarkFailed(i int, cause error, maxAttempts int) bool {
	s.Sections[i].LastError = cause.Error()
	if s.Sections[i].Attempts < maxAttempts {
		s.Sections[i].Status = SectionStatusPending
		s.Cursor = i + 1
		return false
	}
	s.Sections[i].Status = SectionStatusFailed
	s.Cursor = i + 1
	return true
}

// FailedRequired returns the first non-optional section that failed
// terminally, if any. A job fails as a whole only when a required
// section exhausts its attempt budget; optional sections failing leaves
// the job completable.
func (s *ResumableState) FailedRequired(maxAttempts int) *SectionState {
	for i := range s.Sections {
		sec := &s.Sections[i]
		if sec.Status == SectionStatusFailed && sec.Attempts >= maxAttempts && !sec.Request.Optional {
			return sec
		}
	}
	return nil
}

// Completed reports whether every required section completed.
func (s *ResumableState) Completed() bool {
	for i := range s.Sections {
		if s.Sections[i].Request.Optional {
			continue
		}
		if s.Sections[i].Status != SectionStatusCompleted {
			return false
		}
	}
	return len(s.Sections) > 0
}
