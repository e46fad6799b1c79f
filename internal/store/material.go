package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/draftforge/draftforge/internal/store/model"
)

type Material interface {
	Create(ctx context.Context, material model.Material) (*model.Material, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Material, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (model.MaterialList, error)
	List(ctx context.Context, filter *MaterialQueryFilter) (model.MaterialList, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type MaterialStore struct {
	db *gorm.DB
}

// Make sure we conform to Material interface
var _ Material = (*MaterialStore)(nil)

func NewMaterialStore(db *gorm.DB) Material {
	return &MaterialStore{db: db}
}

func (s *MaterialStore) Create(ctx context.Context, material model.Material) (*model.Material, error) {
	result := s.getDB(ctx).Clauses(clause.Returning{}).Create(&material)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating material: %w", result.Error)
	}
	return &material, nil
}

func (s *MaterialStore) Get(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	var material model.Material
	result := s.getDB(ctx).First(&material, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &material, nil
}

func (s *MaterialStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (model.MaterialList, error) {
	var materials model.MaterialList
	result := s.getDB(ctx).Where("id IN ?", ids).Find(&materials)
	if result.Error != nil {
		return nil, result.Error
	}
	return materials, nil
}

func (s *MaterialStore) List(ctx context.Context, filter *MaterialQueryFilter) (model.MaterialList, error) {
	var materials model.MaterialList
	tx := s.getDB(ctx).Model(&materials).Order("created_at DESC")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	result := tx.Find(&materials)
	if result.Error != nil {
		return nil, result.Error
	}
	return materials, nil
}

func (s *MaterialStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.getDB(ctx).Delete(&model.Material{}, "id = ?", id.String())
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (s *MaterialStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
