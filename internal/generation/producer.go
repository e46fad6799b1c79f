// Package generation wraps the opaque section content provider. The
// state engine never sees the provider directly; workers call Produce
// and convert failures into section attempt accounting.
package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/draftforge/draftforge/internal/compose"
	"github.com/draftforge/draftforge/internal/store/model"
)

// Producer turns a section request plus its source material into
// section content. Implementations may be slow and may fail
// transiently; callers own retry policy.
type Producer interface {
	Produce(ctx context.Context, req compose.SectionRequest, materials model.MaterialList) (*model.DocumentContent, error)
}

// ErrTransient marks provider failures worth retrying. Wrapped into
// provider errors so workers can tell retryable failures from permanent
// ones.
var ErrTransient = errors.New("transient generation failure")

// ProviderError carries the provider's failure with retryability intact.
type ProviderError struct {
	StatusCode int
	Message    string
	transient  bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("generation provider: %s (status %d)", e.Message, e.StatusCode)
}

func (e *ProviderError) Unwrap() error {
	if e.transient {
		return ErrTransient
	}
	return nil
}

func NewProviderError(statusCode int, message string, transient bool) *ProviderError {
	return &ProviderError{StatusCode: statusCode, Message: message, transient: transient}
}
