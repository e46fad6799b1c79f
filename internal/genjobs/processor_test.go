package genjobs_test

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/draftforge/draftforge/internal/compose"
	"github.com/draftforge/draftforge/internal/config"
	"github.com/draftforge/draftforge/internal/generation"
	"github.com/draftforge/draftforge/internal/genjobs"
	"github.com/draftforge/draftforge/internal/store"
	"github.com/draftforge/draftforge/internal/store/model"
)

var _ = Describe("compose processor", Ordered, func() {
	var (
		s          store.Store
		gormdb     *gorm.DB
		producer   *fakeProducer
		emitter    *fakeEmitter
		materialID string
	)

	BeforeAll(func() {
		cfg := config.NewDefault()
		db, err := store.InitDB(cfg)
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.Migrate()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		producer = newFakeProducer()
		emitter = &fakeEmitter{}

		material, err := s.Material().Create(context.TODO(), model.Material{
			ID:    uuid.New(),
			OrgID: "org-1",
			Name:  fmt.Sprintf("material-%s", uuid.NewString()[:8]),
			Kind:  "note",
			Body:  "the source material",
		})
		Expect(err).To(BeNil())
		materialID = material.ID.String()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM jobs;")
		gormdb.Exec("DELETE FROM document_versions;")
		gormdb.Exec("DELETE FROM documents;")
		gormdb.Exec("DELETE FROM materials;")
	})

	newArgs := func(jobID uuid.UUID, types ...string) genjobs.ComposeArgs {
		sections := make([]compose.SectionRequest, 0, len(types))
		for _, t := range types {
			sections = append(sections, compose.SectionRequest{
				Type:        t,
				MaterialIDs: []string{materialID},
			})
		}
		return genjobs.ComposeArgs{
			JobID:    jobID,
			OrgID:    "org-1",
			Title:    "report",
			Sections: sections,
		}
	}

	Context("process", func() {
		It("runs a two section job to completion", func() {
			p := genjobs.NewProcessor(s, producer, emitter, 3, "worker-1")

			jobID := uuid.New()
			err := p.Process(context.TODO(), newArgs(jobID, "overview", "summary"))
			Expect(err).To(BeNil())

			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusCompleted))
			Expect(job.Progress).To(Equal(1.0))
			Expect(job.CompletedAt).ToNot(BeNil())

			state := job.ResumableState.Data
			Expect(state.Sections).To(HaveLen(2))
			for _, section := range state.Sections {
				Expect(section.Status).To(Equal(compose.SectionStatusCompleted))
				Expect(section.DocumentID).ToNot(BeNil())

				document, err := s.Document().Get(context.TODO(), *section.DocumentID)
				Expect(err).To(BeNil())
				Expect(document.CurrentVersion).To(Equal(1))

				versions, err := s.DocumentVersion().List(context.TODO(), document.ID)
				Expect(err).To(BeNil())
				Expect(versions).To(HaveLen(1))
			}

			Expect(producer.calls("overview")).To(Equal(1))
			Expect(producer.calls("summary")).To(Equal(1))
			Expect(emitter.kinds()).To(ContainElements(
				"draftforge.jobs.events.started",
				"draftforge.jobs.events.section_completed",
				"draftforge.jobs.events.completed",
			))
		})

		It("ignores a bare redelivery of a finished job", func() {
			p := genjobs.NewProcessor(s, producer, emitter, 3, "worker-1")

			jobID := uuid.New()
			Expect(p.Process(context.TODO(), newArgs(jobID, "overview"))).To(BeNil())
			Expect(producer.calls("overview")).To(Equal(1))

			// broker redelivers without a request payload
			err := p.Process(context.TODO(), genjobs.ComposeArgs{JobID: jobID, OrgID: "org-1"})
			Expect(err).To(BeNil())
			Expect(producer.calls("overview")).To(Equal(1))
		})

		It("does not redo completed sections on a resubmission", func() {
			producer.failPermanently("analysis")
			p := genjobs.NewProcessor(s, producer, emitter, 3, "worker-1")

			jobID := uuid.New()
			Expect(p.Process(context.TODO(), newArgs(jobID, "overview", "analysis"))).To(BeNil())

			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusFailed))
			Expect(job.Progress).To(Equal(0.5))
			Expect(producer.calls("overview")).To(Equal(1))

			// the resubmission swaps the failed section's material set,
			// giving it a fresh identity and a fresh attempt budget; the
			// completed overview keeps its document and is not reproduced
			completedDoc := job.ResumableState.Data.Sections[0].DocumentID
			producer.heal("analysis")

			other, err := s.Material().Create(context.TODO(), model.Material{
				ID:    uuid.New(),
				OrgID: "org-1",
				Name:  "replacement-material",
				Kind:  "note",
				Body:  "better source material",
			})
			Expect(err).To(BeNil())

			args := newArgs(jobID, "overview", "analysis")
			args.Sections[1].MaterialIDs = []string{other.ID.String()}
			Expect(p.Process(context.TODO(), args)).To(BeNil())

			job, err = s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusCompleted))
			Expect(job.Progress).To(Equal(1.0))
			Expect(producer.calls("overview")).To(Equal(1))
			Expect(producer.calls("analysis")).To(Equal(2))
			Expect(job.ResumableState.Data.Sections[0].DocumentID).To(Equal(completedDoc))
			Expect(job.ResumableState.Data.Sections[1].Attempts).To(Equal(1))
		})

		It("keeps a job failed when an identical resubmission retains the exhausted section", func() {
			producer.failPermanently("analysis")
			p := genjobs.NewProcessor(s, producer, emitter, 3, "worker-1")

			jobID := uuid.New()
			Expect(p.Process(context.TODO(), newArgs(jobID, "overview", "analysis"))).To(BeNil())

			// identity unchanged, so the merge retains the exhausted
			// attempts and the job fails again without producer calls
			producer.heal("analysis")
			Expect(p.Process(context.TODO(), newArgs(jobID, "overview", "analysis"))).To(BeNil())

			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusFailed))
			Expect(producer.calls("analysis")).To(Equal(1))
		})

		It("retries a transiently failing section up to the attempt budget", func() {
			producer.failTransiently("narrative", 2)
			p := genjobs.NewProcessor(s, producer, emitter, 3, "worker-1")

			jobID := uuid.New()
			Expect(p.Process(context.TODO(), newArgs(jobID, "narrative"))).To(BeNil())

			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusCompleted))
			// two failed attempts plus the successful third
			Expect(producer.calls("narrative")).To(Equal(3))
			Expect(job.ResumableState.Data.Sections[0].Attempts).To(Equal(3))
		})

		It("fails the job when a required section exhausts its budget", func() {
			producer.failTransiently("narrative", 10)
			p := genjobs.NewProcessor(s, producer, emitter, 3, "worker-1")

			jobID := uuid.New()
			Expect(p.Process(context.TODO(), newArgs(jobID, "overview", "narrative"))).To(BeNil())

			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusFailed))
			Expect(job.LastError).ToNot(BeNil())
			Expect(producer.calls("narrative")).To(Equal(3))

			state := job.ResumableState.Data
			Expect(state.Sections[0].Status).To(Equal(compose.SectionStatusCompleted))
			Expect(state.Sections[1].Status).To(Equal(compose.SectionStatusFailed))
			Expect(emitter.kinds()).To(ContainElement("draftforge.jobs.events.failed"))
		})

		It("completes the job when only an optional section fails", func() {
			producer.failPermanently("appendix")
			p := genjobs.NewProcessor(s, producer, emitter, 3, "worker-1")

			jobID := uuid.New()
			args := newArgs(jobID, "overview", "appendix")
			args.Sections[1].Optional = true
			Expect(p.Process(context.TODO(), args)).To(BeNil())

			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusCompleted))
			// permanent failures burn the budget in one call
			Expect(producer.calls("appendix")).To(Equal(1))
		})

		It("fails the job on an ambiguous submission without retrying", func() {
			p := genjobs.NewProcessor(s, producer, emitter, 3, "worker-1")

			jobID := uuid.New()
			// same type and identical material set resolve to one identity
			Expect(p.Process(context.TODO(), newArgs(jobID, "overview", "overview"))).To(BeNil())

			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusFailed))
			Expect(producer.total()).To(Equal(0))
		})

		It("resumes from persisted progress after a crashed delivery", func() {
			p := genjobs.NewProcessor(s, producer, emitter, 3, "worker-1")

			jobID := uuid.New()
			Expect(p.Process(context.TODO(), newArgs(jobID, "overview", "summary"))).To(BeNil())

			// simulate a crash after the first section by rewriting the
			// job as in-progress with the second section pending again
			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			state := job.ResumableState.Data
			state.Sections[1].Status = compose.SectionStatusProcessing
			state.Sections[1].DocumentID = nil
			state.Cursor = 1
			job.Status = model.JobStatusInProgress
			job.CompletedAt = nil
			job.ResumableState = model.MakeJSONField(state)
			_, err = s.Job().Update(context.TODO(), *job)
			Expect(err).To(BeNil())

			Expect(p.Process(context.TODO(), genjobs.ComposeArgs{JobID: jobID, OrgID: "org-1"})).To(BeNil())

			job, err = s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusCompleted))
			// first section untouched, second reproduced once more
			Expect(producer.calls("overview")).To(Equal(1))
			Expect(producer.calls("summary")).To(Equal(2))
		})

		It("keeps one document when two deliveries of the same job overlap", func() {
			p := genjobs.NewProcessor(s, producer, emitter, 3, "worker-1")

			jobID := uuid.New()

			// a second worker picks up a redelivery while the first is
			// mid-generation and finishes the section first; the first
			// worker's completion write must lose the guard and its
			// document must roll back with the transaction
			producer.interceptNext(func() {
				second := genjobs.NewProcessor(s, producer, emitter, 3, "worker-2")
				Expect(second.Process(context.TODO(), genjobs.ComposeArgs{JobID: jobID, OrgID: "org-1"})).To(BeNil())
			})

			Expect(p.Process(context.TODO(), newArgs(jobID, "overview"))).To(BeNil())

			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusCompleted))
			Expect(job.Progress).To(Equal(1.0))

			// one produce per delivery
			Expect(producer.calls("overview")).To(Equal(2))

			var documents int64
			Expect(gormdb.Raw("SELECT COUNT(*) FROM documents").Scan(&documents).Error).To(BeNil())
			Expect(documents).To(Equal(int64(1)))

			var versions int64
			Expect(gormdb.Raw("SELECT COUNT(*) FROM document_versions").Scan(&versions).Error).To(BeNil())
			Expect(versions).To(Equal(int64(1)))

			// the surviving state points at the winner's document
			section := job.ResumableState.Data.Sections[0]
			Expect(section.Status).To(Equal(compose.SectionStatusCompleted))
			Expect(section.DocumentID).ToNot(BeNil())
			document, err := s.Document().Get(context.TODO(), *section.DocumentID)
			Expect(err).To(BeNil())
			Expect(document.CurrentVersion).To(Equal(1))
		})
	})
})

type fakeProducer struct {
	mu        sync.Mutex
	callCount map[string]int
	transient map[string]int
	permanent map[string]bool
	onProduce func()
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{
		callCount: map[string]int{},
		transient: map[string]int{},
		permanent: map[string]bool{},
	}
}

func (f *fakeProducer) failTransiently(sectionType string, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transient[sectionType] = times
}

func (f *fakeProducer) failPermanently(sectionType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.permanent[sectionType] = true
}

func (f *fakeProducer) heal(sectionType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.transient, sectionType)
	delete(f.permanent, sectionType)
}

// interceptNext runs hook inside the next Produce call, before the
// content is returned. Consumed once.
func (f *fakeProducer) interceptNext(hook func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onProduce = hook
}

func (f *fakeProducer) calls(sectionType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount[sectionType]
}

func (f *fakeProducer) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.callCount {
		total += n
	}
	return total
}

func (f *fakeProducer) Produce(_ context.Context, req compose.SectionRequest, materials model.MaterialList) (*model.DocumentContent, error) {
	f.mu.Lock()
	f.callCount[req.Type]++
	hook := f.onProduce
	f.onProduce = nil
	permanent := f.permanent[req.Type]
	transient := f.transient[req.Type] > 0
	if transient {
		f.transient[req.Type]--
	}
	f.mu.Unlock()

	// runs without the lock held so the hook may call back into the fake
	if hook != nil {
		hook()
	}

	if permanent {
		return nil, generation.NewProviderError(400, "bad request", false)
	}
	if transient {
		return nil, generation.NewProviderError(503, "provider unavailable", true)
	}

	body := fmt.Sprintf("generated %s from %d materials", req.Type, len(materials))
	return &model.DocumentContent{
		Body:        body,
		SectionType: req.Type,
		MaterialIDs: req.MaterialIDs,
		WordCount:   len(body),
	}, nil
}

type fakeEmitter struct {
	mu   sync.Mutex
	seen []string
}

func (f *fakeEmitter) Write(_ context.Context, kind string, _ io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, kind)
	return nil
}

func (f *fakeEmitter) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.seen...)
}
