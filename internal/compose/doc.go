// Package compose implements the resumable state engine for document
// composition jobs: section identity, reconciliation of resubmitted
// requests against persisted progress, the per-section state machine
// and progress accounting.
//
// The package is pure. It never touches the store or the queue; callers
// persist the ResumableState it returns after every transition.
package compose
