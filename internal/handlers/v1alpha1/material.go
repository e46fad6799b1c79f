package v1alpha1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/draftforge/draftforge/api/v1alpha1"
	"github.com/draftforge/draftforge/internal/service"
	"github.com/draftforge/draftforge/internal/service/mappers"
)

func (h *ServiceHandler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	var request api.CreateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if err := h.materialValidator.Struct(request); err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	material, err := h.materialSrv.CreateMaterial(r.Context(), orgID(r), &request)
	if err != nil {
		switch err.(type) {
		case *service.ErrMaterialConflict:
			renderError(w, r, http.StatusConflict, err.Error())
		default:
			zap.S().Named("material_handler").Errorw("failed to create material", "error", err)
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to create material: %v", err))
		}
		return
	}

	render.Status(r, http.StatusCreated)
	_ = render.Render(w, r, mappers.MaterialToApi(*material))
}

func (h *ServiceHandler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid material id")
		return
	}

	material, err := h.materialSrv.GetMaterial(r.Context(), orgID(r), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			zap.S().Named("material_handler").Errorw("failed to get material", "material_id", id, "error", err)
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get material: %v", err))
		}
		return
	}

	_ = render.Render(w, r, mappers.MaterialToApi(*material))
}

func (h *ServiceHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.materialSrv.ListMaterials(r.Context(), orgID(r), r.URL.Query().Get("kind"), r.URL.Query().Get("name"))
	if err != nil {
		zap.S().Named("material_handler").Errorw("failed to list materials", "error", err)
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list materials: %v", err))
		return
	}

	_ = render.Render(w, r, mappers.MaterialListToApi(materials))
}

func (h *ServiceHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid material id")
		return
	}

	if err := h.materialSrv.DeleteMaterial(r.Context(), orgID(r), id); err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			zap.S().Named("material_handler").Errorw("failed to delete material", "material_id", id, "error", err)
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to delete material: %v", err))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
