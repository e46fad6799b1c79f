package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/draftforge/draftforge/internal/store/model"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Job() Job
	Document() Document
	DocumentVersion() DocumentVersion
	Material() Material
	Migrate() error
	Close() error
}

type DataStore struct {
	db              *gorm.DB
	job             Job
	document        Document
	documentVersion DocumentVersion
	material        Material
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:              db,
		job:             NewJobStore(db),
		document:        NewDocumentStore(db),
		documentVersion: NewDocumentVersionStore(db),
		material:        NewMaterialStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Job() Job {
	return s.job
}

func (s *DataStore) Document() Document {
	return s.document
}

func (s *DataStore) DocumentVersion() DocumentVersion {
	return s.documentVersion
}

func (s *DataStore) Material() Material {
	return s.material
}

// Migrate creates the schema on dialects without goose migrations;
// production deployments run pkg/migrations instead.
func (s *DataStore) Migrate() error {
	return s.db.AutoMigrate(
		&model.Job{},
		&model.Document{},
		&model.DocumentVersion{},
		&model.Material{},
	)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
