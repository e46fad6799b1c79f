package v1alpha1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/draftforge/draftforge/api/v1alpha1"
	"github.com/draftforge/draftforge/internal/service"
	"github.com/draftforge/draftforge/internal/service/mappers"
)

func (h *ServiceHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}

	document, err := h.documentSrv.GetDocument(r.Context(), orgID(r), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			zap.S().Named("document_handler").Errorw("failed to get document", "document_id", id, "error", err)
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get document: %v", err))
		}
		return
	}

	_ = render.Render(w, r, mappers.DocumentToApi(*document))
}

func (h *ServiceHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	documents, err := h.documentSrv.ListDocuments(r.Context(), orgID(r), r.URL.Query().Get("status"), r.URL.Query().Get("title"))
	if err != nil {
		zap.S().Named("document_handler").Errorw("failed to list documents", "error", err)
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list documents: %v", err))
		return
	}

	replies := make([]api.DocumentReply, 0, len(documents))
	for _, d := range documents {
		replies = append(replies, mappers.DocumentToApi(d))
	}
	render.JSON(w, r, replies)
}

func (h *ServiceHandler) ListDocumentVersions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}

	versions, err := h.documentSrv.ListVersions(r.Context(), orgID(r), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			zap.S().Named("document_handler").Errorw("failed to list versions", "document_id", id, "error", err)
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list versions: %v", err))
		}
		return
	}

	_ = render.Render(w, r, mappers.DocumentVersionListToApi(versions))
}

func (h *ServiceHandler) GetDocumentVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}

	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || version < 1 {
		renderError(w, r, http.StatusBadRequest, "invalid version number")
		return
	}

	v, err := h.documentSrv.GetVersion(r.Context(), orgID(r), id, version)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound, *service.ErrVersionNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			zap.S().Named("document_handler").Errorw("failed to get version", "document_id", id, "version", version, "error", err)
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get version: %v", err))
		}
		return
	}

	_ = render.Render(w, r, mappers.DocumentVersionToApi(*v))
}

func (h *ServiceHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := h.documentSrv.DeleteDocument(r.Context(), orgID(r), id); err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			zap.S().Named("document_handler").Errorw("failed to delete document", "document_id", id, "error", err)
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to delete document: %v", err))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ServiceHandler) RollbackDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}

	var request api.RollbackRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if request.TargetVersion < 1 {
		renderError(w, r, http.StatusBadRequest, "target_version must be >= 1")
		return
	}

	document, err := h.documentSrv.Rollback(r.Context(), orgID(r), id, request.TargetVersion)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound, *service.ErrVersionNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		case *service.ErrDocumentConflict:
			renderError(w, r, http.StatusConflict, err.Error())
		default:
			zap.S().Named("document_handler").Errorw("failed to rollback document", "document_id", id, "target_version", request.TargetVersion, "error", err)
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to rollback document: %v", err))
		}
		return
	}

	_ = render.Render(w, r, mappers.DocumentToApi(*document))
}
