package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrJobNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job")
}

func NewErrDocumentNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "document")
}

func NewErrMaterialNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "material")
}

type ErrVersionNotFound struct {
	error
}

func NewErrVersionNotFound(documentID uuid.UUID, version int) *ErrVersionNotFound {
	return &ErrVersionNotFound{fmt.Errorf("document %s has no version %d", documentID, version)}
}

type ErrInvalidRequest struct {
	error
}

func NewErrInvalidRequest(format string, args ...any) *ErrInvalidRequest {
	return &ErrInvalidRequest{fmt.Errorf(format, args...)}
}

func NewErrMaterialMissing(id string) *ErrInvalidRequest {
	return NewErrInvalidRequest("material %s does not exist", id)
}

type ErrJobAccessForbidden struct {
	error
}

func NewErrJobAccessForbidden(id uuid.UUID) *ErrJobAccessForbidden {
	return &ErrJobAccessForbidden{fmt.Errorf("forbidden to access job %s", id)}
}

type ErrDocumentConflict struct {
	error
}

func NewErrDocumentConflict(id uuid.UUID) *ErrDocumentConflict {
	return &ErrDocumentConflict{fmt.Errorf("document %s was updated concurrently, retry the operation", id)}
}

type ErrMaterialConflict struct {
	error
}

func NewErrDuplicateMaterialName(name string) *ErrMaterialConflict {
	return &ErrMaterialConflict{fmt.Errorf("material named %q already exists", name)}
}
