package service_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/draftforge/draftforge/api/v1alpha1"
	"github.com/draftforge/draftforge/internal/config"
	"github.com/draftforge/draftforge/internal/genjobs"
	"github.com/draftforge/draftforge/internal/service"
	"github.com/draftforge/draftforge/internal/store"
	"github.com/draftforge/draftforge/internal/store/model"
)

var _ = Describe("job service", Ordered, func() {
	var (
		s          store.Store
		gormdb     *gorm.DB
		queue      *fakeQueue
		srv        *service.JobService
		materialID string
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.Migrate()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		queue = &fakeQueue{}
		srv = service.NewJobService(s, queue)

		material, err := s.Material().Create(context.TODO(), model.Material{
			ID:    uuid.New(),
			OrgID: "org-1",
			Name:  "notes-" + uuid.NewString()[:8],
			Kind:  "note",
			Body:  "body",
		})
		Expect(err).To(BeNil())
		materialID = material.ID.String()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM jobs;")
		gormdb.Exec("DELETE FROM materials;")
	})

	newRequest := func() *api.SubmitJobRequest {
		return &api.SubmitJobRequest{
			Title: "report",
			Sections: []api.SectionSpec{
				{Type: "overview", MaterialIDs: []string{materialID}},
			},
		}
	}

	Context("submit", func() {
		It("creates a queued job and enqueues the request", func() {
			job, err := srv.SubmitJob(context.TODO(), "org-1", newRequest())
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusQueued))
			Expect(queue.inserted()).To(HaveLen(1))
			Expect(queue.inserted()[0].Sections).To(HaveLen(1))
		})

		It("reuses the job row on resubmission with the same id", func() {
			id := uuid.NewString()
			request := newRequest()
			request.ID = &id

			job, err := srv.SubmitJob(context.TODO(), "org-1", request)
			Expect(err).To(BeNil())

			again, err := srv.SubmitJob(context.TODO(), "org-1", request)
			Expect(err).To(BeNil())
			Expect(again.ID).To(Equal(job.ID))
			Expect(queue.inserted()).To(HaveLen(2))

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) from jobs;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("rejects a resubmission from another organization", func() {
			id := uuid.NewString()
			request := newRequest()
			request.ID = &id

			_, err := srv.SubmitJob(context.TODO(), "org-1", request)
			Expect(err).To(BeNil())

			_, err = srv.SubmitJob(context.TODO(), "org-2", request)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrJobAccessForbidden{}))
		})

		It("rejects unknown material references", func() {
			request := newRequest()
			request.Sections[0].MaterialIDs = []string{uuid.NewString()}

			_, err := srv.SubmitJob(context.TODO(), "org-1", request)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidRequest{}))
			Expect(queue.inserted()).To(HaveLen(0))
		})
	})

	Context("get", func() {
		It("returns a not found error for an unknown job", func() {
			_, err := srv.GetJob(context.TODO(), "org-1", uuid.New())
			Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
		})

		It("hides jobs of other organizations", func() {
			job, err := srv.SubmitJob(context.TODO(), "org-1", newRequest())
			Expect(err).To(BeNil())

			_, err = srv.GetJob(context.TODO(), "org-2", job.ID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrJobAccessForbidden{}))
		})
	})
})

type fakeQueue struct {
	mu   sync.Mutex
	args []genjobs.ComposeArgs
}

func (f *fakeQueue) InsertJob(_ context.Context, args genjobs.ComposeArgs) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.args = append(f.args, args)
	return int64(len(f.args)), nil
}

func (f *fakeQueue) inserted() []genjobs.ComposeArgs {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]genjobs.ComposeArgs{}, f.args...)
}
