package compose

import "fmt"

// ValidationError rejects a malformed or ambiguous submission before it
// touches persisted state.
type ValidationError struct {
	error
}

func NewErrDuplicateSection(key string) *ValidationError {
	return &ValidationError{fmt.Errorf("two submitted sections resolve to the same identity key %s", key)}
}

func NewErrNoMaterials(index int) *ValidationError {
	return &ValidationError{fmt.Errorf("section at index %d has no material references", index)}
}

func NewErrUnknownSectionType(sectionType string) *ValidationError {
	return &ValidationError{fmt.Errorf("unknown section type %q", sectionType)}
}
