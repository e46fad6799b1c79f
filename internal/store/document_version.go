package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftforge/draftforge/internal/store/model"
)

// DocumentVersion is the append-only version history. The interface
// deliberately exposes no update or delete: an existing
// (document id, version) pair is immutable once written.
type DocumentVersion interface {
	// Snapshot records the version if absent. Snapshotting an already
	// recorded version is a no-op, never an overwrite.
	Snapshot(ctx context.Context, version model.DocumentVersion) error
	Get(ctx context.Context, documentID uuid.UUID, version int) (*model.DocumentVersion, error)
	List(ctx context.Context, documentID uuid.UUID) ([]model.DocumentVersion, error)
	Count(ctx context.Context, documentID uuid.UUID) (int64, error)
}

type DocumentVersionStore struct {
	db *gorm.DB
}

// Make sure we conform to DocumentVersion interface
var _ DocumentVersion = (*DocumentVersionStore)(nil)

func NewDocumentVersionStore(db *gorm.DB) DocumentVersion {
	return &DocumentVersionStore{db: db}
}

func (s *DocumentVersionStore) Snapshot(ctx context.Context, version model.DocumentVersion) error {
	var existing model.DocumentVersion
	err := s.getDB(ctx).
		First(&existing, "document_id = ? AND version = ?", version.DocumentID, version.Version).Error
	if err == nil {
		// already recorded; history is immutable
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.getDB(ctx).Create(&version).Error
}

func (s *DocumentVersionStore) Get(ctx context.Context, documentID uuid.UUID, version int) (*model.DocumentVersion, error) {
	var row model.DocumentVersion
	result := s.getDB(ctx).First(&row, "document_id = ? AND version = ?", documentID, version)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &row, nil
}

func (s *DocumentVersionStore) List(ctx context.Context, documentID uuid.UUID) ([]model.DocumentVersion, error) {
	var versions []model.DocumentVersion
	result := s.getDB(ctx).
		Where("document_id = ?", documentID).
		Order("version ASC").
		Find(&versions)
	if result.Error != nil {
		return nil, result.Error
	}
	return versions, nil
}

func (s *DocumentVersionStore) Count(ctx context.Context, documentID uuid.UUID) (int64, error) {
	var count int64
	result := s.getDB(ctx).
		Model(&model.DocumentVersion{}).
		Where("document_id = ?", documentID).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

func (s *DocumentVersionStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
