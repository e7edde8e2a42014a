package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mediafetch/video-downloader/internal/handlers/validator"
	"github.com/mediafetch/video-downloader/internal/storage"
	"github.com/mediafetch/video-downloader/internal/store"
	"github.com/mediafetch/video-downloader/internal/store/model"
	"github.com/mediafetch/video-downloader/pkg/metrics"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"
)

const (
	DefaultFormat = "mp4"

	interruptedError = "download interrupted by server restart"
)

// StartDownloadForm is the validated input of a new job.
type StartDownloadForm struct {
	URL    string `validate:"video_url"`
	Format string `validate:"media_format"`
}

// NormalizeForm trims the url, lower cases the format and applies the default format.
func NormalizeForm(rawURL, rawFormat string) StartDownloadForm {
	format := strings.ToLower(strings.TrimSpace(rawFormat))
	if format == "" {
		format = DefaultFormat
	}
	return StartDownloadForm{
		URL:    strings.TrimSpace(rawURL),
		Format: format,
	}
}

// Dispatcher runs jobs in the background.
type Dispatcher interface {
	Submit(job model.Job) error
}

type DownloadService struct {
	store      store.Store
	dispatcher Dispatcher
	files      storage.Reader
	cleaner    *Cleaner
	validator  *validator.Validator
	now        func() time.Time
	log        *zap.SugaredLogger
}

func NewDownloadService(s store.Store, dispatcher Dispatcher, files storage.Reader, cleaner *Cleaner) *DownloadService {
	v := validator.NewValidator()
	v.Register(validator.NewDownloadValidationRules()...)

	return &DownloadService{
		store:      s,
		dispatcher: dispatcher,
		files:      files,
		cleaner:    cleaner,
		validator:  v,
		now:        time.Now,
		log:        zap.S().Named("download_service"),
	}
}

// StartDownload validates the form, stores a pending job and hands it to the dispatcher.
func (s *DownloadService) StartDownload(ctx context.Context, form StartDownloadForm, clientIP string) (*model.Job, error) {
	if err := s.validator.Struct(form); err != nil {
		failed := validator.FailedFields(err)
		switch {
		case funk.ContainsString(failed, "URL"):
			return nil, NewErrInvalidURL()
		case funk.ContainsString(failed, "Format"):
			return nil, NewErrUnsupportedFormat(form.Format)
		default:
			return nil, err
		}
	}

	if s.cleaner != nil {
		if _, err := s.cleaner.Run(ctx); err != nil {
			s.log.Errorw("error during cleanup", "error", err)
		}
	}

	job, err := s.store.Job().Create(ctx, model.Job{
		ID:       uuid.New(),
		URL:      form.URL,
		Format:   form.Format,
		Status:   model.JobStatusPending,
		ClientIP: clientIP,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store job: %w", err)
	}

	if err := s.dispatcher.Submit(*job); err != nil {
		now := s.now()
		job.Status = model.JobStatusError
		job.Error = err.Error()
		job.CompletedAt = &now
		if _, uerr := s.store.Job().Update(ctx, *job); uerr != nil {
			s.log.Errorw("failed to mark job as failed", "file_id", job.ID, "error", uerr)
		}
		return nil, fmt.Errorf("failed to schedule job: %w", err)
	}

	if clientIP != "" {
		metrics.UniqueClientsPerDay.Observe(clientIP, s.now())
	}

	s.log.Infow("download started", "file_id", job.ID, "format", job.Format)
	return job, nil
}

func (s *DownloadService) GetStatus(ctx context.Context, fileID string) (*model.Job, error) {
	id, err := uuid.Parse(fileID)
	if err != nil {
		return nil, NewErrJobNotFound(fileID)
	}

	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(fileID)
		}
		return nil, err
	}
	return job, nil
}

// OpenFile opens a finished download. Names with path elements are refused.
func (s *DownloadService) OpenFile(ctx context.Context, name string) (*storage.File, error) {
	if name == "" || strings.Contains(name, "..") || strings.Contains(name, "/") {
		return nil, NewErrInvalidFilename(name)
	}

	f, err := s.files.Open(ctx, name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, NewErrFileNotFound(name)
		case errors.Is(err, storage.ErrNotAFile):
			return nil, NewErrNotAFile(name)
		default:
			return nil, err
		}
	}
	return f, nil
}

// RecoverInterrupted fails the jobs left unfinished by a previous run.
func (s *DownloadService) RecoverInterrupted(ctx context.Context) (int, error) {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return 0, err
	}

	jobs, err := s.store.Job().List(ctx, store.NewJobQueryFilter().ByStatus(model.JobStatusPending, model.JobStatusDownloading), nil)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return 0, err
	}

	now := s.now()
	for _, job := range jobs {
		job.Status = model.JobStatusError
		job.Error = interruptedError
		job.CompletedAt = &now
		if _, err := s.store.Job().Update(ctx, job); err != nil {
			_, _ = store.Rollback(ctx)
			return 0, err
		}
	}

	if _, err := store.Commit(ctx); err != nil {
		return 0, err
	}

	if len(jobs) > 0 {
		s.log.Warnw("marked interrupted jobs as failed", "count", len(jobs))
	}
	return len(jobs), nil
}
