package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	api "github.com/draftforge/draftforge/api/v1alpha1"
	"github.com/draftforge/draftforge/internal/handlers/validator"
	"github.com/draftforge/draftforge/internal/service"
	"github.com/draftforge/draftforge/pkg/requestid"
)

// OrgIDHeader carries the caller's organization. Requests without it
// fall into the default organization.
const (
	OrgIDHeader  = "X-Org-ID"
	defaultOrgID = "default"
)

type ServiceHandler struct {
	jobSrv      *service.JobService
	documentSrv *service.DocumentService
	materialSrv *service.MaterialService

	jobValidator      *validator.Validator
	materialValidator *validator.Validator
}

func NewServiceHandler(jobSrv *service.JobService, documentSrv *service.DocumentService, materialSrv *service.MaterialService) *ServiceHandler {
	jobValidator := validator.NewValidator()
	jobValidator.Register(validator.NewJobValidationRules()...)

	materialValidator := validator.NewValidator()
	materialValidator.Register(validator.NewMaterialValidationRules()...)

	return &ServiceHandler{
		jobSrv:            jobSrv,
		documentSrv:       documentSrv,
		materialSrv:       materialSrv,
		jobValidator:      jobValidator,
		materialValidator: materialValidator,
	}
}

func (h *ServiceHandler) RegisterRoutes(router chi.Router) {
	router.Route("/api/v1alpha1", func(r chi.Router) {
		r.Post("/jobs", h.SubmitJob)
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.GetJob)

		r.Get("/documents", h.ListDocuments)
		r.Get("/documents/{id}", h.GetDocument)
		r.Get("/documents/{id}/versions", h.ListDocumentVersions)
		r.Get("/documents/{id}/versions/{version}", h.GetDocumentVersion)
		r.Post("/documents/{id}/rollback", h.RollbackDocument)
		r.Delete("/documents/{id}", h.DeleteDocument)

		r.Post("/materials", h.CreateMaterial)
		r.Get("/materials", h.ListMaterials)
		r.Get("/materials/{id}", h.GetMaterial)
		r.Delete("/materials/{id}", h.DeleteMaterial)
	})

	router.Get("/health", h.Health)
}

func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func orgID(r *http.Request) string {
	if org := r.Header.Get(OrgIDHeader); org != "" {
		return org
	}
	return defaultOrgID
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	_ = render.Render(w, r, api.Error{Message: message, RequestID: requestid.FromContextPtr(r.Context())})
}
