package store_test

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mediafetch/video-downloader/internal/config"
	st "github.com/mediafetch/video-downloader/internal/store"
	"github.com/mediafetch/video-downloader/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func newTestStore() (st.Store, *gorm.DB) {
	cfg, err := config.New()
	Expect(err).To(BeNil())
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = filepath.Join(GinkgoT().TempDir(), "store.db")

	db, err := st.InitDB(cfg)
	Expect(err).To(BeNil())

	s := st.NewStore(db)
	Expect(s.InitialMigration(context.TODO())).To(Succeed())
	return s, db
}

var _ = Describe("Store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
	)

	BeforeAll(func() {
		store, gormDB = newTestStore()
	})

	AfterAll(func() {
		store.Close()
	})

	AfterEach(func() {
		gormDB.Exec("DELETE FROM jobs;")
	})

	Context("transaction", func() {
		It("insert a job successfully", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			job, err := store.Job().Create(ctx, model.Job{
				ID:     uuid.New(),
				URL:    "https://example.com/watch?v=1",
				Format: "mp4",
				Status: model.JobStatusPending,
			})
			Expect(err).To(BeNil())
			Expect(job).ToNot(BeNil())

			_, cerr := st.Commit(ctx)
			Expect(cerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from jobs;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("rollback a job successfully", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			_, err = store.Job().Create(ctx, model.Job{
				ID:     uuid.New(),
				URL:    "https://example.com/watch?v=2",
				Format: "mp3",
				Status: model.JobStatusPending,
			})
			Expect(err).To(BeNil())

			// visible in the same transaction
			jobs, err := store.Job().List(ctx, st.NewJobQueryFilter(), nil)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))

			_, rerr := st.Rollback(ctx)
			Expect(rerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from jobs;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(0))
		})

		It("joins an outer transaction", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			inner, err := store.NewTransactionContext(ctx)
			Expect(err).To(BeNil())
			Expect(st.FromContext(inner)).To(BeIdenticalTo(st.FromContext(ctx)))

			_, err = st.Rollback(ctx)
			Expect(err).To(BeNil())
		})
	})

	Context("job", func() {
		It("returns ErrRecordNotFound for an unknown id", func() {
			_, err := store.Job().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})

		It("refuses duplicated ids", func() {
			id := uuid.New()
			_, err := store.Job().Create(context.TODO(), model.Job{ID: id, URL: "https://a", Format: "mp4", Status: model.JobStatusPending})
			Expect(err).To(BeNil())

			_, err = store.Job().Create(context.TODO(), model.Job{ID: id, URL: "https://b", Format: "mp4", Status: model.JobStatusPending})
			Expect(err).To(MatchError(st.ErrDuplicateKey))
		})

		It("updates status, file and timestamps", func() {
			id := uuid.New()
			_, err := store.Job().Create(context.TODO(), model.Job{ID: id, URL: "https://a", Format: "mp3", Status: model.JobStatusPending})
			Expect(err).To(BeNil())

			started := time.Now().Add(-time.Minute)
			completed := time.Now()
			updated, err := store.Job().Update(context.TODO(), model.Job{
				ID:          id,
				Status:      model.JobStatusDone,
				File:        "song.mp3",
				StartedAt:   &started,
				CompletedAt: &completed,
			})
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(model.JobStatusDone))
			Expect(updated.File).To(Equal("song.mp3"))
			Expect(updated.URL).To(Equal("https://a"))
			Expect(updated.Duration()).To(BeNumerically("~", time.Minute, time.Second))
		})

		It("fails to update an unknown job", func() {
			_, err := store.Job().Update(context.TODO(), model.Job{ID: uuid.New(), Status: model.JobStatusError})
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})

		It("lists jobs by status", func() {
			for _, status := range []string{model.JobStatusPending, model.JobStatusDownloading, model.JobStatusDone} {
				_, err := store.Job().Create(context.TODO(), model.Job{ID: uuid.New(), URL: "https://a", Format: "mp4", Status: status})
				Expect(err).To(BeNil())
			}

			jobs, err := store.Job().List(context.TODO(), st.NewJobQueryFilter().ByStatus(model.JobStatusPending, model.JobStatusDownloading), nil)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(2))

			jobs, err = store.Job().List(context.TODO(), nil, st.NewJobQueryOptions().WithNewestFirst().WithLimit(1))
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
		})

		It("deletes old jobs", func() {
			old := uuid.New()
			tx := gormDB.Create(&model.Job{ID: old, URL: "https://a", Format: "mp4", Status: model.JobStatusDone, CreatedAt: time.Now().Add(-48 * time.Hour)})
			Expect(tx.Error).To(BeNil())
			_, err := store.Job().Create(context.TODO(), model.Job{ID: uuid.New(), URL: "https://b", Format: "mp4", Status: model.JobStatusDone})
			Expect(err).To(BeNil())

			n, err := store.Job().DeleteCreatedBefore(context.TODO(), time.Now().Add(-24*time.Hour))
			Expect(err).To(BeNil())
			Expect(n).To(Equal(int64(1)))

			_, err = store.Job().Get(context.TODO(), old)
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})
	})
})
