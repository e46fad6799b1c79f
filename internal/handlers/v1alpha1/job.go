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

func (h *ServiceHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var request api.SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if err := h.jobValidator.Struct(request); err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.jobSrv.SubmitJob(r.Context(), orgID(r), &request)
	if err != nil {
		switch err.(type) {
		case *service.ErrInvalidRequest:
			renderError(w, r, http.StatusBadRequest, err.Error())
		case *service.ErrJobAccessForbidden:
			renderError(w, r, http.StatusForbidden, err.Error())
		default:
			zap.S().Named("job_handler").Errorw("failed to submit job", "error", err)
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to submit job: %v", err))
		}
		return
	}

	render.Status(r, http.StatusCreated)
	_ = render.Render(w, r, mappers.JobToApi(*job))
}

func (h *ServiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.jobSrv.GetJob(r.Context(), orgID(r), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		case *service.ErrJobAccessForbidden:
			renderError(w, r, http.StatusForbidden, err.Error())
		default:
			zap.S().Named("job_handler").Errorw("failed to get job", "job_id", id, "error", err)
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get job: %v", err))
		}
		return
	}

	_ = render.Render(w, r, mappers.JobToApi(*job))
}

func (h *ServiceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := service.ListFilter{
		Status:  r.URL.Query().Get("status"),
		JobType: r.URL.Query().Get("job_type"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			renderError(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			renderError(w, r, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = offset
	}

	jobs, err := h.jobSrv.ListJobs(r.Context(), orgID(r), filter)
	if err != nil {
		zap.S().Named("job_handler").Errorw("failed to list jobs", "error", err)
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list jobs: %v", err))
		return
	}

	_ = render.Render(w, r, mappers.JobListToApi(jobs))
}
