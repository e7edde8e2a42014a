package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mediafetch/video-downloader/internal/config"
	"github.com/mediafetch/video-downloader/internal/service"
	"github.com/mediafetch/video-downloader/internal/storage"
	"github.com/mediafetch/video-downloader/internal/store"
	"github.com/mediafetch/video-downloader/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeDispatcher struct {
	mu   sync.Mutex
	jobs []model.Job
	err  error
}

func (f *fakeDispatcher) Submit(job model.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func newTestStore() store.Store {
	cfg, err := config.New()
	Expect(err).To(BeNil())
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = filepath.Join(GinkgoT().TempDir(), "service.db")

	db, err := store.InitDB(cfg)
	Expect(err).To(BeNil())
	s := store.NewStore(db)
	Expect(s.InitialMigration(context.TODO())).To(Succeed())
	return s
}

var _ = Describe("download service", func() {
	var (
		s          store.Store
		dispatcher *fakeDispatcher
		folder     string
		srv        *service.DownloadService
		ctx        context.Context
	)

	BeforeEach(func() {
		ctx = context.TODO()
		s = newTestStore()
		dispatcher = &fakeDispatcher{}
		folder = GinkgoT().TempDir()
		local := storage.NewLocal(folder)
		srv = service.NewDownloadService(s, dispatcher, local, service.NewCleaner(local, s, 24*time.Hour))
	})

	AfterEach(func() {
		s.Close()
	})

	Context("NormalizeForm", func() {
		It("trims the url and lower cases the format", func() {
			form := service.NormalizeForm("  https://v.example/1 \n", " MP3 ")
			Expect(form.URL).To(Equal("https://v.example/1"))
			Expect(form.Format).To(Equal("mp3"))
		})

		It("defaults to mp4", func() {
			Expect(service.NormalizeForm("https://v.example/1", "").Format).To(Equal("mp4"))
		})
	})

	Context("StartDownload", func() {
		It("stores a pending job and dispatches it", func() {
			job, err := srv.StartDownload(ctx, service.NormalizeForm("https://v.example/1", "mp3"), "1.2.3.4")
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.JobStatusPending))

			stored, err := s.Job().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.URL).To(Equal("https://v.example/1"))
			Expect(stored.Format).To(Equal("mp3"))
			Expect(stored.ClientIP).To(Equal("1.2.3.4"))

			Expect(dispatcher.jobs).To(HaveLen(1))
			Expect(dispatcher.jobs[0].ID).To(Equal(job.ID))
		})

		It("refuses an invalid url", func() {
			_, err := srv.StartDownload(ctx, service.NormalizeForm("www.example.com", "mp4"), "")
			Expect(err).To(MatchError("Invalid URL provided"))

			var e *service.ErrInvalidURL
			Expect(errors.As(err, &e)).To(BeTrue())
			Expect(dispatcher.jobs).To(BeEmpty())
		})

		It("refuses an empty url", func() {
			_, err := srv.StartDownload(ctx, service.NormalizeForm("   ", "mp4"), "")
			var e *service.ErrInvalidURL
			Expect(errors.As(err, &e)).To(BeTrue())
		})

		It("refuses an unsupported format", func() {
			_, err := srv.StartDownload(ctx, service.NormalizeForm("https://v.example/1", "AVI"), "")
			Expect(err).To(MatchError("Unsupported format: avi"))

			var e *service.ErrUnsupportedFormat
			Expect(errors.As(err, &e)).To(BeTrue())
		})

		It("marks the job failed when it cannot be dispatched", func() {
			dispatcher.err = errors.New("worker pool stopped")

			_, err := srv.StartDownload(ctx, service.NormalizeForm("https://v.example/1", "mp4"), "")
			Expect(err).NotTo(BeNil())

			jobs, err := s.Job().List(ctx, store.NewJobQueryFilter().ByStatus(model.JobStatusError), nil)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Error).To(Equal("worker pool stopped"))
		})

		It("cleans up old files before starting", func() {
			old := filepath.Join(folder, "old.mp4")
			Expect(os.WriteFile(old, []byte("x"), 0o644)).To(Succeed())
			Expect(os.Chtimes(old, time.Now().Add(-48*time.Hour), time.Now().Add(-48*time.Hour))).To(Succeed())

			_, err := srv.StartDownload(ctx, service.NormalizeForm("https://v.example/1", "mp4"), "")
			Expect(err).To(BeNil())

			_, err = os.Stat(old)
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})

	Context("GetStatus", func() {
		It("returns the stored job", func() {
			job, err := srv.StartDownload(ctx, service.NormalizeForm("https://v.example/1", "mp4"), "")
			Expect(err).To(BeNil())

			got, err := srv.GetStatus(ctx, job.ID.String())
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.JobStatusPending))
		})

		It("reports unknown ids as not found", func() {
			for _, id := range []string{uuid.NewString(), "not-a-uuid", ""} {
				_, err := srv.GetStatus(ctx, id)
				var e *service.ErrJobNotFound
				Expect(errors.As(err, &e)).To(BeTrue(), id)
			}
		})
	})

	Context("OpenFile", func() {
		It("opens a finished download", func() {
			Expect(os.WriteFile(filepath.Join(folder, "clip.mp4"), []byte("video"), 0o644)).To(Succeed())

			f, err := srv.OpenFile(ctx, "clip.mp4")
			Expect(err).To(BeNil())
			defer f.Close()
			data, err := io.ReadAll(f)
			Expect(err).To(BeNil())
			Expect(string(data)).To(Equal("video"))
		})

		It("refuses path elements", func() {
			for _, name := range []string{"../secret", "a/b.mp4", "..", ""} {
				_, err := srv.OpenFile(ctx, name)
				var e *service.ErrInvalidFilename
				Expect(errors.As(err, &e)).To(BeTrue(), name)
			}
		})

		It("reports missing files", func() {
			_, err := srv.OpenFile(ctx, "missing.mp4")
			var e *service.ErrFileNotFound
			Expect(errors.As(err, &e)).To(BeTrue())
		})

		It("refuses directories", func() {
			Expect(os.Mkdir(filepath.Join(folder, "dir.mp4"), 0o755)).To(Succeed())
			_, err := srv.OpenFile(ctx, "dir.mp4")
			var e *service.ErrNotAFile
			Expect(errors.As(err, &e)).To(BeTrue())
		})
	})

	Context("RecoverInterrupted", func() {
		It("fails the unfinished jobs", func() {
			for _, status := range []string{model.JobStatusPending, model.JobStatusDownloading, model.JobStatusDone} {
				_, err := s.Job().Create(ctx, model.Job{ID: uuid.New(), URL: "https://a", Format: "mp4", Status: status})
				Expect(err).To(BeNil())
			}

			n, err := srv.RecoverInterrupted(ctx)
			Expect(err).To(BeNil())
			Expect(n).To(Equal(2))

			failed, err := s.Job().List(ctx, store.NewJobQueryFilter().ByStatus(model.JobStatusError), nil)
			Expect(err).To(BeNil())
			Expect(failed).To(HaveLen(2))
			Expect(failed[0].CompletedAt).NotTo(BeNil())

			n, err = srv.RecoverInterrupted(ctx)
			Expect(err).To(BeNil())
			Expect(n).To(BeZero())
		})
	})
})
