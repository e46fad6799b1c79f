package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draftforge/draftforge/internal/store"
	"github.com/draftforge/draftforge/internal/store/model"
)

type DocumentService struct {
	store store.Store
}

func NewDocumentService(store store.Store) *DocumentService {
	return &DocumentService{store: store}
}

func (s *DocumentService) GetDocument(ctx context.Context, orgID string, id uuid.UUID) (*model.Document, error) {
	document, err := s.store.Document().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrDocumentNotFound(id)
		}
		return nil, err
	}

	if document.OrgID != orgID {
		return nil, NewErrDocumentNotFound(id)
	}

	return document, nil
}

func (s *DocumentService) ListDocuments(ctx context.Context, orgID string, status string, titleQuery string) ([]model.Document, error) {
	filter := store.NewDocumentQueryFilter().ByOrgID(orgID)
	if status != "" {
		filter = filter.ByStatus(status)
	}
	if titleQuery != "" {
		filter = filter.ByTitleLike(titleQuery)
	}
	return s.store.Document().List(ctx, filter)
}

func (s *DocumentService) ListVersions(ctx context.Context, orgID string, id uuid.UUID) ([]model.DocumentVersion, error) {
	if _, err := s.GetDocument(ctx, orgID, id); err != nil {
		return nil, err
	}
	return s.store.DocumentVersion().List(ctx, id)
}

func (s *DocumentService) GetVersion(ctx context.Context, orgID string, id uuid.UUID, version int) (*model.DocumentVersion, error) {
	if _, err := s.GetDocument(ctx, orgID, id); err != nil {
		return nil, err
	}

	v, err := s.store.DocumentVersion().Get(ctx, id, version)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrVersionNotFound(id, version)
		}
		return nil, err
	}

	return v, nil
}

// DeleteDocument removes the document and, through the cascade, its
// version history. Jobs that produced the document keep their record of
// it; only the artifact goes away.
func (s *DocumentService) DeleteDocument(ctx context.Context, orgID string, id uuid.UUID) error {
	if _, err := s.GetDocument(ctx, orgID, id); err != nil {
		return err
	}
	return s.store.Document().Delete(ctx, id)
}

// Rollback restores the content of targetVersion as a new forward
// version. History stays append-only: the live document is updated to
// the target's content under version current+1 and that state is
// snapshotted, nothing is rewritten or deleted. Rolling back twice to
// the same target yields two distinct versions with identical content.
func (s *DocumentService) Rollback(ctx context.Context, orgID string, id uuid.UUID, targetVersion int) (*model.Document, error) {
	document, err := s.GetDocument(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	target, err := s.store.DocumentVersion().Get(ctx, id, targetVersion)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrVersionNotFound(id, targetVersion)
		}
		return nil, err
	}

	ctx, err = s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Document().UpdateContent(ctx, id, target.Content.Data, target.Status, document.CurrentVersion)
	if err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrConcurrentUpdate) {
			return nil, NewErrDocumentConflict(id)
		}
		return nil, err
	}

	if err := s.store.DocumentVersion().Snapshot(ctx, model.DocumentVersion{
		DocumentID: id,
		Version:    updated.CurrentVersion,
		Status:     updated.Status,
		Content:    updated.Content,
	}); err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	zap.S().Named("document_service").Infow("document rolled back",
		"document_id", id,
		"target_version", targetVersion,
		"new_version", updated.CurrentVersion,
		"previous_version", document.CurrentVersion,
	)

	return updated, nil
}
