package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mediafetch/video-downloader/internal/events"
	"github.com/mediafetch/video-downloader/internal/store"
	"github.com/mediafetch/video-downloader/internal/store/model"
	"github.com/mediafetch/video-downloader/internal/tracking"
	"github.com/mediafetch/video-downloader/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultJobTimeout    = 30 * time.Minute
	DefaultMaxConcurrent = 4

	storeTimeout  = 10 * time.Second
	recordTimeout = 10 * time.Second
)

var ErrPoolStopped = errors.New("worker pool stopped")

// Fetcher downloads url in the given format and returns the produced file name.
type Fetcher interface {
	Fetch(ctx context.Context, url, format string) (string, error)
}

// Mirror copies finished files to secondary storage.
type Mirror interface {
	Upload(ctx context.Context, path string) error
}

type Publisher interface {
	Write(ctx context.Context, kind string, body io.Reader) error
}

type PoolOption func(p *Pool)

func WithMaxConcurrent(n int64) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.sem = semaphore.NewWeighted(n)
		}
	}
}

func WithJobTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithRecorder(r tracking.Recorder) PoolOption {
	return func(p *Pool) {
		p.recorder = r
	}
}

func WithPublisher(pub Publisher) PoolOption {
	return func(p *Pool) {
		p.events = pub
	}
}

// WithMirror uploads finished files; pathFn maps a file name to its local path.
func WithMirror(m Mirror, pathFn func(name string) string) PoolOption {
	return func(p *Pool) {
		p.mirror = m
		p.pathFn = pathFn
	}
}

func withClock(now func() time.Time) PoolOption {
	return func(p *Pool) {
		p.now = now
	}
}

// Pool runs download jobs in the background with bounded concurrency.
type Pool struct {
	store    store.Store
	fetcher  Fetcher
	sem      *semaphore.Weighted
	timeout  time.Duration
	recorder tracking.Recorder
	events   Publisher
	mirror   Mirror
	pathFn   func(name string) string
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
	log    *zap.SugaredLogger
}

func NewPool(s store.Store, fetcher Fetcher, opts ...PoolOption) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		store:    s,
		fetcher:  fetcher,
		sem:      semaphore.NewWeighted(DefaultMaxConcurrent),
		timeout:  DefaultJobTimeout,
		recorder: tracking.NoopRecorder{},
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		log:      zap.S().Named("worker_pool"),
	}

	for _, o := range opts {
		o(p)
	}
	return p
}

// Submit schedules the job. It never blocks on the download itself.
func (p *Pool) Submit(job model.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolStopped
	}

	p.wg.Add(1)
	go p.run(job)
	return nil
}

// Stop refuses new jobs and waits for the accepted ones to finish. When ctx
// is done first, the remaining downloads are cancelled and ctx.Err() is returned.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.log.Warnw("cancelling unfinished downloads", "error", ctx.Err())
		p.cancel()
		return ctx.Err()
	}
}

func (p *Pool) run(job model.Job) {
	defer p.wg.Done()

	log := p.log.With("file_id", job.ID.String(), "format", job.Format)

	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		p.finish(job, "", fmt.Errorf("download cancelled: %w", err), log)
		return
	}
	defer p.sem.Release(1)

	started := p.now()
	job.Status = model.JobStatusDownloading
	job.StartedAt = &started
	if _, err := p.store.Job().Update(context.Background(), job); err != nil {
		log.Errorw("failed to mark job as downloading", "error", err)
	}
	p.publish(events.JobStartedKind, job, 0)

	metrics.IncActiveDownloads()
	defer metrics.DecActiveDownloads()

	log.Infow("starting download", "url", job.URL)

	file, err := p.fetch(job)
	p.finish(job, file, err, log)
}

func (p *Pool) fetch(job model.Job) (file string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("Unexpected error: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	return p.fetcher.Fetch(ctx, job.URL, job.Format)
}

func (p *Pool) finish(job model.Job, file string, fetchErr error, log *zap.SugaredLogger) {
	completed := p.now()
	job.CompletedAt = &completed
	if job.StartedAt == nil {
		job.StartedAt = &completed
	}

	if fetchErr != nil {
		job.Status = model.JobStatusError
		job.Error = fetchErr.Error()
		log.Errorw("download failed", "error", fetchErr)
	} else {
		job.Status = model.JobStatusDone
		job.File = file
		log.Infow("download completed", "file", file, "duration", job.Duration())
	}

	// the pool context may already be cancelled; the outcome must still be stored
	storeCtx, storeCancel := context.WithTimeout(context.Background(), storeTimeout)
	defer storeCancel()

	if _, err := p.store.Job().Update(storeCtx, job); err != nil {
		log.Errorw("failed to store job outcome", "error", err)
	}

	metrics.IncreaseDownloadsTotalMetric(job.Format, job.Status)
	metrics.ObserveDownloadDuration(job.Format, job.Duration().Seconds())

	if job.Status != model.JobStatusDone {
		p.publish(events.JobFailedKind, job, job.Duration())
		return
	}
	p.publish(events.JobDoneKind, job, job.Duration())

	if p.mirror != nil && p.pathFn != nil {
		uploadCtx, uploadCancel := context.WithTimeout(p.ctx, p.timeout)
		if err := p.mirror.Upload(uploadCtx, p.pathFn(file)); err != nil {
			log.Warnw("failed to mirror file", "file", file, "error", err)
		}
		uploadCancel()
	}

	recordCtx, recordCancel := context.WithTimeout(context.Background(), recordTimeout)
	defer recordCancel()

	if err := p.recorder.Record(recordCtx, tracking.DownloadLog{
		IP:         job.ClientIP,
		Format:     job.Format,
		Filename:   file,
		StartedAt:  *job.StartedAt,
		FinishedAt: completed,
	}); err != nil {
		log.Warnw("failed to record download", "error", err)
	}
}

func (p *Pool) publish(kind string, job model.Job, d time.Duration) {
	if p.events == nil {
		return
	}

	data, err := json.Marshal(events.JobEvent{
		FileID:   job.ID.String(),
		Format:   job.Format,
		Status:   job.Status,
		File:     job.File,
		Error:    job.Error,
		Duration: d.Seconds(),
	})
	if err != nil {
		return
	}

	if err := p.events.Write(context.Background(), kind, bytes.NewReader(data)); err != nil {
		p.log.Warnw("failed to publish event", "kind", kind, "error", err)
	}
}
