package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/draftforge/draftforge/internal/store/model"
)

type Document interface {
	Create(ctx context.Context, document model.Document) (*model.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Document, error)
	List(ctx context.Context, filter *DocumentQueryFilter) (model.DocumentList, error)
	// UpdateContent writes new content and status onto the live document
	// under version fromVersion+1 and returns the updated row. The write
	// is conditional on fromVersion still being current; a losing
	// concurrent writer gets ErrConcurrentUpdate and must re-read. The
	// caller snapshots the new version in the same transaction.
	UpdateContent(ctx context.Context, id uuid.UUID, content model.DocumentContent, status string, fromVersion int) (*model.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type DocumentStore struct {
	db *gorm.DB
}

// Make sure we conform to Document interface
var _ Document = (*DocumentStore)(nil)

func NewDocumentStore(db *gorm.DB) Document {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) Create(ctx context.Context, document model.Document) (*model.Document, error) {
	if document.CurrentVersion == 0 {
		document.CurrentVersion = 1
	}
	result := s.getDB(ctx).Clauses(clause.Returning{}).Create(&document)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating document: %w", result.Error)
	}
	return &document, nil
}

func (s *DocumentStore) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var document model.Document
	result := s.getDB(ctx).First(&document, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &document, nil
}

func (s *DocumentStore) List(ctx context.Context, filter *DocumentQueryFilter) (model.DocumentList, error) {
	var documents model.DocumentList
	tx := s.getDB(ctx).Model(&documents).Order("created_at DESC")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	result := tx.Find(&documents)
	if result.Error != nil {
		return nil, result.Error
	}
	return documents, nil
}

func (s *DocumentStore) UpdateContent(ctx context.Context, id uuid.UUID, content model.DocumentContent, status string, fromVersion int) (*model.Document, error) {
	document, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	document.Content = model.MakeJSONField(content)
	document.Status = status
	document.CurrentVersion = fromVersion + 1
	document.UpdatedAt = &now

	result := s.getDB(ctx).
		Model(&model.Document{}).
		Where("id = ? AND current_version = ?", id, fromVersion).
		Select("Content", "Status", "CurrentVersion", "UpdatedAt").
		Updates(document)
	if result.Error != nil {
		return nil, fmt.Errorf("updating document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// row exists (Get above succeeded), so the version moved under us
		return nil, ErrConcurrentUpdate
	}
	return document, nil
}

func (s *DocumentStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.getDB(ctx).Delete(&model.Document{}, "id = ?", id.String())
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (s *DocumentStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
