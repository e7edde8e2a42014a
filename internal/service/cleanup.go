package service

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"github.com/mediafetch/video-downloader/internal/storage"
	"github.com/mediafetch/video-downloader/internal/store"
	"github.com/mediafetch/video-downloader/pkg/metrics"
	"go.uber.org/zap"
)

const DefaultRetention = 24 * time.Hour

type remover interface {
	Remove(ctx context.Context, name string) error
}

// Cleaner removes downloads and job records older than the retention period.
type Cleaner struct {
	files     *storage.Local
	store     store.Store
	mirror    remover
	retention time.Duration
	now       func() time.Time
	log       *zap.SugaredLogger
}

func NewCleaner(files *storage.Local, s store.Store, retention time.Duration) *Cleaner {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Cleaner{
		files:     files,
		store:     s,
		retention: retention,
		now:       time.Now,
		log:       zap.S().Named("cleaner"),
	}
}

// WithMirror also removes the mirrored copies of expired files.
func (c *Cleaner) WithMirror(m remover) *Cleaner {
	c.mirror = m
	return c
}

// Run performs one cleanup pass and returns the names of the removed files.
func (c *Cleaner) Run(ctx context.Context) ([]string, error) {
	cutoff := c.now().Add(-c.retention)

	removed, err := c.files.RemoveOlderThan(cutoff)
	if err != nil {
		return nil, err
	}
	for _, name := range removed {
		c.log.Infow("cleaned up old file", "file", name)
		if c.mirror != nil {
			if err := c.mirror.Remove(ctx, name); err != nil {
				c.log.Warnw("failed to remove mirrored file", "file", name, "error", err)
			}
		}
	}
	metrics.AddCleanedFiles(len(removed))

	if c.store != nil {
		n, err := c.store.Job().DeleteCreatedBefore(ctx, cutoff)
		if err != nil {
			return removed, err
		}
		if n > 0 {
			c.log.Debugw("expired job records removed", "count", n)
		}
	}

	return removed, nil
}

// Start runs Run on a jittered interval until ctx is cancelled.
func (c *Cleaner) Start(ctx context.Context, interval time.Duration) {
	ticker := jitterbug.New(interval, &jitterbug.Norm{Stdev: interval / 20, Mean: 0})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			if _, err := c.Run(ctx); err != nil {
				c.log.Errorw("error during cleanup", "error", err)
			}
		}
	}()
}
