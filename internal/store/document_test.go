package store_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/draftforge/draftforge/internal/config"
	st "github.com/draftforge/draftforge/internal/store"
	"github.com/draftforge/draftforge/internal/store/model"
)

var _ = Describe("document store", Ordered, func() {
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
		gormdb.Exec("DELETE FROM document_versions;")
		gormdb.Exec("DELETE FROM documents;")
	})

	newDocument := func() model.Document {
		return model.Document{
			ID:             uuid.New(),
			OrgID:          "org-1",
			Title:          "overview",
			Status:         model.DocumentStatusGenerated,
			CurrentVersion: 1,
			Content: model.MakeJSONField(model.DocumentContent{
				Body:        "first draft",
				SectionType: "overview",
				WordCount:   2,
			}),
		}
	}

	Context("documents", func() {
		It("creates and reads back a document", func() {
			created, err := s.Document().Create(context.TODO(), newDocument())
			Expect(err).To(BeNil())

			document, err := s.Document().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(document.CurrentVersion).To(Equal(1))
			Expect(document.Content.Data.Body).To(Equal("first draft"))
		})

		It("bumps the live version on content update", func() {
			created, err := s.Document().Create(context.TODO(), newDocument())
			Expect(err).To(BeNil())

			updated, err := s.Document().UpdateContent(context.TODO(), created.ID, model.DocumentContent{
				Body:      "second draft",
				WordCount: 2,
			}, model.DocumentStatusGenerated, 1)
			Expect(err).To(BeNil())
			Expect(updated.CurrentVersion).To(Equal(2))
			Expect(updated.Content.Data.Body).To(Equal("second draft"))
		})

		It("rejects a content update from a stale version read", func() {
			created, err := s.Document().Create(context.TODO(), newDocument())
			Expect(err).To(BeNil())

			_, err = s.Document().UpdateContent(context.TODO(), created.ID, model.DocumentContent{
				Body: "second draft",
			}, model.DocumentStatusGenerated, 1)
			Expect(err).To(BeNil())

			// writer still holding version 1 lost the race
			_, err = s.Document().UpdateContent(context.TODO(), created.ID, model.DocumentContent{
				Body: "competing draft",
			}, model.DocumentStatusGenerated, 1)
			Expect(err).To(MatchError(st.ErrConcurrentUpdate))

			document, err := s.Document().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(document.CurrentVersion).To(Equal(2))
			Expect(document.Content.Data.Body).To(Equal("second draft"))
		})
	})

	Context("versions", func() {
		It("snapshots versions and lists them in order", func() {
			document, err := s.Document().Create(context.TODO(), newDocument())
			Expect(err).To(BeNil())

			for v := 1; v <= 3; v++ {
				err := s.DocumentVersion().Snapshot(context.TODO(), model.DocumentVersion{
					DocumentID: document.ID,
					Version:    v,
					Status:     model.DocumentStatusGenerated,
					Content:    model.MakeJSONField(model.DocumentContent{Body: "draft"}),
				})
				Expect(err).To(BeNil())
			}

			versions, err := s.DocumentVersion().List(context.TODO(), document.ID)
			Expect(err).To(BeNil())
			Expect(versions).To(HaveLen(3))
			for i, v := range versions {
				Expect(v.Version).To(Equal(i + 1))
			}

			count, err := s.DocumentVersion().Count(context.TODO(), document.ID)
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(3)))
		})

		It("keeps the first snapshot when the same version is written twice", func() {
			document, err := s.Document().Create(context.TODO(), newDocument())
			Expect(err).To(BeNil())

			err = s.DocumentVersion().Snapshot(context.TODO(), model.DocumentVersion{
				DocumentID: document.ID,
				Version:    1,
				Status:     model.DocumentStatusGenerated,
				Content:    model.MakeJSONField(model.DocumentContent{Body: "original"}),
			})
			Expect(err).To(BeNil())

			// a redelivered worker writing the same pair is a no-op
			err = s.DocumentVersion().Snapshot(context.TODO(), model.DocumentVersion{
				DocumentID: document.ID,
				Version:    1,
				Status:     model.DocumentStatusGenerated,
				Content:    model.MakeJSONField(model.DocumentContent{Body: "rewritten"}),
			})
			Expect(err).To(BeNil())

			version, err := s.DocumentVersion().Get(context.TODO(), document.ID, 1)
			Expect(err).To(BeNil())
			Expect(version.Content.Data.Body).To(Equal("original"))
		})

		It("returns ErrRecordNotFound for a missing version", func() {
			document, err := s.Document().Create(context.TODO(), newDocument())
			Expect(err).To(BeNil())

			_, err = s.DocumentVersion().Get(context.TODO(), document.ID, 7)
			Expect(err).To(Equal(st.ErrRecordNotFound))
		})
	})
})
