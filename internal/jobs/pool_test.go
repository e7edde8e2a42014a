package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mediafetch/video-downloader/internal/config"
	"github.com/mediafetch/video-downloader/internal/events"
	"github.com/mediafetch/video-downloader/internal/store"
	"github.com/mediafetch/video-downloader/internal/store/model"
	"github.com/mediafetch/video-downloader/internal/tracking"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fetchFunc func(ctx context.Context, url, format string) (string, error)

func (f fetchFunc) Fetch(ctx context.Context, url, format string) (string, error) {
	return f(ctx, url, format)
}

type recordingPublisher struct {
	mu    sync.Mutex
	kinds []string
	jobs  []events.JobEvent
}

func (r *recordingPublisher) Write(_ context.Context, kind string, body io.Reader) error {
	var e events.JobEvent
	if err := json.NewDecoder(body).Decode(&e); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
	r.jobs = append(r.jobs, e)
	return nil
}

func (r *recordingPublisher) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.kinds...)
}

type recordingRecorder struct {
	mu      sync.Mutex
	entries []tracking.DownloadLog
	budgets []time.Duration
}

func (r *recordingRecorder) Record(ctx context.Context, e tracking.DownloadLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	if deadline, ok := ctx.Deadline(); ok {
		r.budgets = append(r.budgets, time.Until(deadline))
	}
	return nil
}

func (r *recordingRecorder) Budgets() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration{}, r.budgets...)
}

func (r *recordingRecorder) Close() {}

func (r *recordingRecorder) Entries() []tracking.DownloadLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tracking.DownloadLog{}, r.entries...)
}

type recordingMirror struct {
	mu      sync.Mutex
	paths   []string
	budgets []time.Duration
}

func (m *recordingMirror) Upload(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
	if deadline, ok := ctx.Deadline(); ok {
		m.budgets = append(m.budgets, time.Until(deadline))
	}
	return nil
}

func (m *recordingMirror) Budgets() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration{}, m.budgets...)
}

func (m *recordingMirror) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.paths...)
}

var _ = Describe("worker pool", func() {
	var (
		s   store.Store
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.TODO()
		cfg, err := config.New()
		Expect(err).To(BeNil())
		cfg.Database.Type = "sqlite"
		cfg.Database.Name = filepath.Join(GinkgoT().TempDir(), "jobs.db")

		db, err := store.InitDB(cfg)
		Expect(err).To(BeNil())
		s = store.NewStore(db)
		Expect(s.InitialMigration(ctx)).To(Succeed())
	})

	AfterEach(func() {
		s.Close()
	})

	newJob := func(format string) model.Job {
		job, err := s.Job().Create(ctx, model.Job{
			ID:       uuid.New(),
			URL:      "https://v.example/watch",
			Format:   format,
			Status:   model.JobStatusPending,
			ClientIP: "1.2.3.4",
		})
		Expect(err).To(BeNil())
		return *job
	}

	statusOf := func(id uuid.UUID) func() string {
		return func() string {
			job, err := s.Job().Get(ctx, id)
			if err != nil {
				return ""
			}
			return job.Status
		}
	}

	It("runs a job to done and fans out the outcome", func() {
		pub := &recordingPublisher{}
		rec := &recordingRecorder{}
		mirror := &recordingMirror{}
		pool := NewPool(s, fetchFunc(func(ctx context.Context, url, format string) (string, error) {
			return "clip.mp4", nil
		}), WithPublisher(pub), WithRecorder(rec), WithMirror(mirror, func(name string) string {
			return filepath.Join("downloads", name)
		}))

		job := newJob("mp4")
		Expect(pool.Submit(job)).To(Succeed())
		Expect(pool.Stop(ctx)).To(Succeed())

		stored, err := s.Job().Get(ctx, job.ID)
		Expect(err).To(BeNil())
		Expect(stored.Status).To(Equal(model.JobStatusDone))
		Expect(stored.File).To(Equal("clip.mp4"))
		Expect(stored.StartedAt).NotTo(BeNil())
		Expect(stored.CompletedAt).NotTo(BeNil())

		Expect(pub.Kinds()).To(Equal([]string{events.JobStartedKind, events.JobDoneKind}))
		Expect(mirror.Paths()).To(Equal([]string{filepath.Join("downloads", "clip.mp4")}))

		entries := rec.Entries()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].IP).To(Equal("1.2.3.4"))
		Expect(entries[0].Filename).To(Equal("clip.mp4"))
		Expect(entries[0].Format).To(Equal("mp4"))
	})

	It("stores the fetch error", func() {
		pub := &recordingPublisher{}
		rec := &recordingRecorder{}
		pool := NewPool(s, fetchFunc(func(ctx context.Context, url, format string) (string, error) {
			return "", errors.New("yt-dlp command failed: ERROR: Unsupported URL")
		}), WithPublisher(pub), WithRecorder(rec))

		job := newJob("mp3")
		Expect(pool.Submit(job)).To(Succeed())
		Expect(pool.Stop(ctx)).To(Succeed())

		stored, err := s.Job().Get(ctx, job.ID)
		Expect(err).To(BeNil())
		Expect(stored.Status).To(Equal(model.JobStatusError))
		Expect(stored.Error).To(Equal("yt-dlp command failed: ERROR: Unsupported URL"))
		Expect(pub.Kinds()).To(Equal([]string{events.JobStartedKind, events.JobFailedKind}))
		Expect(rec.Entries()).To(BeEmpty())
	})

	It("turns a panicking fetcher into an error status", func() {
		pool := NewPool(s, fetchFunc(func(ctx context.Context, url, format string) (string, error) {
			panic("boom")
		}))

		job := newJob("mp4")
		Expect(pool.Submit(job)).To(Succeed())
		Expect(pool.Stop(ctx)).To(Succeed())

		stored, err := s.Job().Get(ctx, job.ID)
		Expect(err).To(BeNil())
		Expect(stored.Status).To(Equal(model.JobStatusError))
		Expect(stored.Error).To(Equal("Unexpected error: boom"))
	})

	It("marks the job as downloading while the fetcher runs", func() {
		release := make(chan struct{})
		pool := NewPool(s, fetchFunc(func(ctx context.Context, url, format string) (string, error) {
			<-release
			return "a.mp3", nil
		}))

		job := newJob("mp3")
		Expect(pool.Submit(job)).To(Succeed())
		Eventually(statusOf(job.ID)).Should(Equal(model.JobStatusDownloading))

		close(release)
		Eventually(statusOf(job.ID)).Should(Equal(model.JobStatusDone))
		Expect(pool.Stop(ctx)).To(Succeed())
	})

	It("limits concurrency", func() {
		var running, maxRunning int32
		release := make(chan struct{})
		pool := NewPool(s, fetchFunc(func(ctx context.Context, url, format string) (string, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				m := atomic.LoadInt32(&maxRunning)
				if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&running, -1)
			return "a.mp4", nil
		}), WithMaxConcurrent(2))

		for i := 0; i < 5; i++ {
			Expect(pool.Submit(newJob("mp4"))).To(Succeed())
		}

		Eventually(func() int32 { return atomic.LoadInt32(&running) }).Should(Equal(int32(2)))
		Consistently(func() int32 { return atomic.LoadInt32(&running) }, 200*time.Millisecond).Should(Equal(int32(2)))

		close(release)
		Expect(pool.Stop(ctx)).To(Succeed())
		Expect(atomic.LoadInt32(&maxRunning)).To(Equal(int32(2)))
	})

	It("applies the job timeout", func() {
		pool := NewPool(s, fetchFunc(func(ctx context.Context, url, format string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}), WithJobTimeout(50*time.Millisecond))

		job := newJob("mp4")
		Expect(pool.Submit(job)).To(Succeed())
		Eventually(statusOf(job.ID)).Should(Equal(model.JobStatusError))
		Expect(pool.Stop(ctx)).To(Succeed())
	})

	It("cancels running jobs when the stop deadline passes and refuses new ones", func() {
		started := make(chan struct{})
		pool := NewPool(s, fetchFunc(func(ctx context.Context, url, format string) (string, error) {
			close(started)
			<-ctx.Done()
			return "", ctx.Err()
		}))

		job := newJob("mp4")
		Expect(pool.Submit(job)).To(Succeed())
		<-started

		stopCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		Expect(pool.Stop(stopCtx)).To(MatchError(context.DeadlineExceeded))

		Eventually(statusOf(job.ID)).Should(Equal(model.JobStatusError))
		Expect(pool.Submit(newJob("mp4"))).To(MatchError(ErrPoolStopped))
	})

	It("drains accepted jobs on stop", func() {
		pool := NewPool(s, fetchFunc(func(ctx context.Context, url, format string) (string, error) {
			select {
			case <-time.After(20 * time.Millisecond):
				return "a.mp4", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}), WithMaxConcurrent(1))

		var ids []uuid.UUID
		for i := 0; i < 3; i++ {
			job := newJob("mp4")
			ids = append(ids, job.ID)
			Expect(pool.Submit(job)).To(Succeed())
		}
		Expect(pool.Stop(ctx)).To(Succeed())

		for _, id := range ids {
			Expect(statusOf(id)()).To(Equal(model.JobStatusDone))
		}
	})

	It("gives the mirror upload the job budget and tracking its own", func() {
		rec := &recordingRecorder{}
		mirror := &recordingMirror{}
		pool := NewPool(s, fetchFunc(func(ctx context.Context, url, format string) (string, error) {
			return "clip.mp4", nil
		}), WithJobTimeout(time.Hour), WithRecorder(rec), WithMirror(mirror, func(name string) string {
			return name
		}))

		Expect(pool.Submit(newJob("mp4"))).To(Succeed())
		Expect(pool.Stop(ctx)).To(Succeed())

		Expect(mirror.Budgets()).To(HaveLen(1))
		Expect(mirror.Budgets()[0]).To(BeNumerically(">", 30*time.Minute))
		Expect(rec.Budgets()).To(HaveLen(1))
		Expect(rec.Budgets()[0]).To(BeNumerically(">", 5*time.Second))
		Expect(rec.Budgets()[0]).To(BeNumerically("<=", recordTimeout))
	})

	It("uses the injected clock for durations", func() {
		t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		var calls int32
		rec := &recordingRecorder{}
		pool := NewPool(s, fetchFunc(func(ctx context.Context, url, format string) (string, error) {
			return "a.mp3", nil
		}), WithRecorder(rec), withClock(func() time.Time {
			n := atomic.AddInt32(&calls, 1)
			return t0.Add(time.Duration(n-1) * 30 * time.Second)
		}))

		Expect(pool.Submit(newJob("mp3"))).To(Succeed())
		Expect(pool.Stop(ctx)).To(Succeed())

		entries := rec.Entries()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].DurationSeconds()).To(Equal(30))
	})
})
