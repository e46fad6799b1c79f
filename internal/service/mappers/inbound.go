package mappers

import (
	"github.com/google/uuid"

	api "github.com/draftforge/draftforge/api/v1alpha1"
	"github.com/draftforge/draftforge/internal/compose"
	"github.com/draftforge/draftforge/internal/store/model"
)

func SectionRequestsFromApi(sections []api.SectionSpec) []compose.SectionRequest {
	out := make([]compose.SectionRequest, 0, len(sections))
	for _, s := range sections {
		out = append(out, compose.SectionRequest{
			Type:         s.Type,
			MaterialIDs:  s.MaterialIDs,
			Title:        s.Title,
			Instructions: s.Instructions,
			TargetWords:  s.TargetWords,
			Optional:     s.Optional,
		})
	}
	return out
}

func MaterialFromApi(id uuid.UUID, orgID string, resource *api.CreateMaterialRequest) model.Material {
	return model.Material{
		ID:    id,
		OrgID: orgID,
		Name:  resource.Name,
		Kind:  resource.Kind,
		Body:  resource.Body,
	}
}
