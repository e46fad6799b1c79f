package store

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")

	// ErrConcurrentUpdate is returned when a conditional write loses the
	// race against another writer. The caller must re-read and retry.
	ErrConcurrentUpdate = errors.New("concurrent update detected")
)
