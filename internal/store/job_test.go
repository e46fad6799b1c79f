package store_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/draftforge/draftforge/internal/compose"
	"github.com/draftforge/draftforge/internal/config"
	st "github.com/draftforge/draftforge/internal/store"
	"github.com/draftforge/draftforge/internal/store/model"
)

var _ = Describe("job store", Ordered, func() {
	var (
		s      st.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		cfg := config.NewDefault()
		db, err := st.InitDB(cfg)
		Expect(err).To(BeNil())

		s = st.NewStore(db)
		gormdb = db
		Expect(s.Migrate()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM jobs;")
	})

	newJob := func() model.Job {
		return model.Job{
			ID:      uuid.New(),
			OrgID:   "org-1",
			JobType: model.JobTypeCompose,
			Status:  model.JobStatusQueued,
		}
	}

	Context("create and get", func() {
		It("creates a job and reads it back", func() {
			created, err := s.Job().Create(context.TODO(), newJob())
			Expect(err).To(BeNil())

			job, err := s.Job().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusQueued))
			Expect(job.UpdateSeq).To(Equal(int64(0)))
		})

		It("returns ErrRecordNotFound for an unknown id", func() {
			_, err := s.Job().Get(context.TODO(), uuid.New())
			Expect(err).To(Equal(st.ErrRecordNotFound))
		})

		It("returns ErrDuplicateKey when the id already exists", func() {
			job := newJob()
			_, err := s.Job().Create(context.TODO(), job)
			Expect(err).To(BeNil())

			_, err = s.Job().Create(context.TODO(), job)
			Expect(err).To(Equal(st.ErrDuplicateKey))
		})
	})

	Context("list", func() {
		It("filters by org id", func() {
			first := newJob()
			_, err := s.Job().Create(context.TODO(), first)
			Expect(err).To(BeNil())

			other := newJob()
			other.OrgID = "org-2"
			_, err = s.Job().Create(context.TODO(), other)
			Expect(err).To(BeNil())

			jobs, err := s.Job().List(context.TODO(), st.NewJobQueryFilter().ByOrgID("org-1"))
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].ID).To(Equal(first.ID))
		})

		It("filters by status", func() {
			job := newJob()
			_, err := s.Job().Create(context.TODO(), job)
			Expect(err).To(BeNil())

			jobs, err := s.Job().List(context.TODO(), st.NewJobQueryFilter().ByStatus(model.JobStatusCompleted))
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(0))
		})
	})

	Context("update", func() {
		It("bumps the update sequence on every write", func() {
			created, err := s.Job().Create(context.TODO(), newJob())
			Expect(err).To(BeNil())

			created.Status = model.JobStatusInProgress
			updated, err := s.Job().Update(context.TODO(), *created)
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(model.JobStatusInProgress))
			Expect(updated.UpdateSeq).To(Equal(int64(1)))
		})

		It("persists the resumable state", func() {
			created, err := s.Job().Create(context.TODO(), newJob())
			Expect(err).To(BeNil())

			created.ResumableState = model.MakeJSONField(compose.ResumableState{
				Sections: []compose.SectionState{
					{
						Key:     "abc",
						Status:  compose.SectionStatusPending,
						Request: compose.SectionRequest{Type: "overview", MaterialIDs: []string{"m1"}},
					},
				},
			})
			_, err = s.Job().Update(context.TODO(), *created)
			Expect(err).To(BeNil())

			job, err := s.Job().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(job.ResumableState).ToNot(BeNil())
			Expect(job.ResumableState.Data.Sections).To(HaveLen(1))
			Expect(job.ResumableState.Data.Sections[0].Key).To(Equal("abc"))
		})

		It("rejects a write based on a stale read", func() {
			created, err := s.Job().Create(context.TODO(), newJob())
			Expect(err).To(BeNil())

			// two readers pick up the same row
			first, err := s.Job().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			second, err := s.Job().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())

			first.Status = model.JobStatusInProgress
			_, err = s.Job().Update(context.TODO(), *first)
			Expect(err).To(BeNil())

			// the slower writer loses the guard
			second.Status = model.JobStatusFailed
			_, err = s.Job().Update(context.TODO(), *second)
			Expect(err).To(Equal(st.ErrConcurrentUpdate))

			job, err := s.Job().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusInProgress))
		})

		It("returns ErrRecordNotFound when updating a missing job", func() {
			job := newJob()
			_, err := s.Job().Update(context.TODO(), job)
			Expect(err).To(Equal(st.ErrRecordNotFound))
		})
	})
})
