package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	api "github.com/draftforge/draftforge/api/v1alpha1"
	"github.com/draftforge/draftforge/internal/service/mappers"
	"github.com/draftforge/draftforge/internal/store"
	"github.com/draftforge/draftforge/internal/store/model"
)

type MaterialService struct {
	store store.Store
}

func NewMaterialService(store store.Store) *MaterialService {
	return &MaterialService{store: store}
}

func (s *MaterialService) CreateMaterial(ctx context.Context, orgID string, request *api.CreateMaterialRequest) (*model.Material, error) {
	material, err := s.store.Material().Create(ctx, mappers.MaterialFromApi(uuid.New(), orgID, request))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, NewErrDuplicateMaterialName(request.Name)
		}
		return nil, err
	}
	return material, nil
}

func (s *MaterialService) GetMaterial(ctx context.Context, orgID string, id uuid.UUID) (*model.Material, error) {
	material, err := s.store.Material().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrMaterialNotFound(id)
		}
		return nil, err
	}

	if material.OrgID != orgID {
		return nil, NewErrMaterialNotFound(id)
	}

	return material, nil
}

func (s *MaterialService) ListMaterials(ctx context.Context, orgID string, kind string, nameQuery string) ([]model.Material, error) {
	filter := store.NewMaterialQueryFilter().ByOrgID(orgID)
	if kind != "" {
		filter = filter.ByKind(kind)
	}
	if nameQuery != "" {
		filter = filter.ByNameLike(nameQuery)
	}
	return s.store.Material().List(ctx, filter)
}

func (s *MaterialService) DeleteMaterial(ctx context.Context, orgID string, id uuid.UUID) error {
	if _, err := s.GetMaterial(ctx, orgID, id); err != nil {
		return err
	}
	return s.store.Material().Delete(ctx, id)
}
