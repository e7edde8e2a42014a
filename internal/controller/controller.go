package controller

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	api "github.com/mediafetch/video-downloader/api/v1alpha1"
	"github.com/mediafetch/video-downloader/internal/client"
	"go.uber.org/zap"
	"k8s.io/utils/clock"
)

const (
	ProgressInterval = 700 * time.Millisecond
	DotInterval      = 500 * time.Millisecond
	PollDelay        = 1500 * time.Millisecond

	// ProgressCeiling is the highest value the simulated bar reaches on its own.
	ProgressCeiling = 95.0

	DefaultFormat = string(api.FormatMP4)
)

const (
	MsgEnterURL       = "Please enter a video URL."
	MsgStarting       = "Starting download..."
	MsgDownloading    = "⏳ Downloading"
	MsgStartFailed    = "❌ Error starting download."
	MsgDownloadFailed = "❌ Download failed."
	MsgStatusFailed   = "⚠️ Error checking status."
	MsgDownloadLink   = "Download video"
)

var ErrEmptyURL = errors.New("empty url")

// View renders the controller state. Calls are serialized by the controller
// and must not block.
type View interface {
	SetStatus(text string)
	ShowDownloadLink(href, label string)
	SetProgress(percent float64)
	SetProgressVisible(visible bool)
	SetDownloadButtonVisible(visible bool)
	Alert(message string)
}

// Client is the part of the download API the controller needs.
type Client interface {
	StartDownload(ctx context.Context, url, format string) (string, error)
	GetStatus(ctx context.Context, fileID string) (*api.StatusResponse, error)
}

// Random is the source of the simulated progress increments.
type Random interface {
	Float64() float64
}

type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StatePolling  State = "polling"
	StateDone     State = "done"
	StateError    State = "error"
)

func (s State) IsTerminal() bool {
	return s == StateDone || s == StateError
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	State    State
	URL      string
	Format   string
	Progress float64
	DotCount int
	FileID   string
	File     string
	Status   string
	Err      error
}

type Option func(c *Controller)

func WithClock(clk clock.WithTicker) Option {
	return func(c *Controller) {
		c.clock = clk
	}
}

func WithRandom(r Random) Option {
	return func(c *Controller) {
		c.rand = r
	}
}

// lifecycle is one download attempt. A new StartDownload replaces the
// current lifecycle and every callback bound to the old one becomes a no-op.
type lifecycle struct {
	ctx      context.Context
	cancel   context.CancelFunc
	finished chan struct{}

	progressTask *Task
	dotTask      *Task
	pollTask     *Task
}

func (l *lifecycle) stopAnimations() {
	l.progressTask.Stop()
	l.dotTask.Stop()
}

func (l *lifecycle) end() {
	l.stopAnimations()
	l.pollTask.Stop()
	l.cancel()
	select {
	case <-l.finished:
	default:
		close(l.finished)
	}
}

type Controller struct {
	client Client
	view   View
	clock  clock.WithTicker
	rand   Random
	log    *zap.SugaredLogger

	mu       sync.Mutex
	current  *lifecycle
	url      string
	format   string
	state    State
	progress float64
	dotCount int
	fileID   string
	file     string
	status   string
	err      error
}

func New(c Client, v View, opts ...Option) *Controller {
	ctrl := &Controller{
		client: c,
		view:   v,
		clock:  clock.RealClock{},
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		log:    zap.S().Named("controller"),
		format: DefaultFormat,
		state:  StateIdle,
	}

	for _, o := range opts {
		o(ctrl)
	}
	return ctrl
}

// SetURL stores the url input and toggles the download button.
func (c *Controller) SetURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.url = url
	c.view.SetDownloadButtonVisible(url != "")
}

// SetFormat stores the selected format. Empty selects mp4.
func (c *Controller) SetFormat(format string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if format == "" {
		format = DefaultFormat
	}
	c.format = format
}

// HandleKey starts a download on enter and ignores every other key.
func (c *Controller) HandleKey(key string) error {
	if key != "enter" {
		return nil
	}
	return c.StartDownload()
}

// StartDownload begins a new lifecycle with the current input. It returns
// once the request is in flight.
func (c *Controller) StartDownload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.url == "" {
		c.view.Alert(MsgEnterURL)
		return ErrEmptyURL
	}

	if c.current != nil {
		c.log.Debug("superseding previous download")
		c.current.end()
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc := &lifecycle{ctx: ctx, cancel: cancel, finished: make(chan struct{})}
	c.current = lc

	c.state = StateStarting
	c.progress = 0
	c.dotCount = 0
	c.fileID = ""
	c.file = ""
	c.err = nil

	c.setStatus(MsgStarting)
	c.view.SetProgress(0)
	c.view.SetProgressVisible(true)

	lc.dotTask = Every(ctx, c.clock, DotInterval, func(tctx context.Context) { c.dotTick(lc, tctx) })
	lc.progressTask = Every(ctx, c.clock, ProgressInterval, func(tctx context.Context) { c.progressTick(lc, tctx) })

	url, format := c.url, c.format
	go c.create(lc, url, format)

	return nil
}

// Wait blocks until the current lifecycle ends or ctx is done.
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	lc := c.current
	c.mu.Unlock()

	if lc != nil {
		select {
		case <-lc.finished:
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		}
	}
	return c.Snapshot(), nil
}

// Close stops the current lifecycle.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.current.end()
		c.current = nil
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:    c.state,
		URL:      c.url,
		Format:   c.format,
		Progress: c.displayedProgress(),
		DotCount: c.dotCount,
		FileID:   c.fileID,
		File:     c.file,
		Status:   c.status,
		Err:      c.err,
	}
}

func (c *Controller) create(lc *lifecycle, url, format string) {
	fileID, err := c.client.StartDownload(lc.ctx, url, format)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != lc {
		return
	}

	if err != nil {
		c.log.Warnw("failed to start download", "url", url, "error", err)
		c.fail(lc, StateIdle, MsgStartFailed, err)
		return
	}

	c.state = StatePolling
	c.fileID = fileID
	lc.pollTask = Until(lc.ctx, c.clock, PollDelay, func(tctx context.Context) bool {
		return c.checkStatus(lc, tctx, fileID)
	})
}

// checkStatus polls once and reports whether polling continues.
func (c *Controller) checkStatus(lc *lifecycle, ctx context.Context, fileID string) bool {
	resp, err := c.client.GetStatus(ctx, fileID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != lc || ctx.Err() != nil {
		return false
	}

	if err != nil {
		c.log.Warnw("failed to check status", "file_id", fileID, "error", err)
		c.fail(lc, StateError, MsgStatusFailed, err)
		return false
	}

	switch resp.Status {
	case api.JobStatusDone:
		lc.stopAnimations()
		c.dotCount = 0
		c.state = StateDone
		c.progress = 100
		c.file = resp.File
		c.view.SetProgress(100)
		c.status = MsgDownloadLink
		c.view.ShowDownloadLink(client.DownloadPath(resp.File), MsgDownloadLink)
		c.view.SetProgressVisible(false)
		lc.end()
		return false
	case api.JobStatusError:
		reason := resp.Error
		if reason == "" {
			reason = "download failed"
		}
		c.fail(lc, StateError, MsgDownloadFailed, errors.New(reason))
		return false
	default:
		return true
	}
}

func (c *Controller) fail(lc *lifecycle, state State, msg string, err error) {
	lc.stopAnimations()
	c.dotCount = 0
	c.state = state
	c.err = err
	c.view.SetProgressVisible(false)
	c.setStatus(msg)
	lc.end()
}

func (c *Controller) progressTick(lc *lifecycle, ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != lc || ctx.Err() != nil {
		return
	}

	if c.progress < ProgressCeiling {
		c.progress += c.rand.Float64()*2 + 1
		c.view.SetProgress(c.displayedProgress())
	}
}

func (c *Controller) dotTick(lc *lifecycle, ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != lc || ctx.Err() != nil {
		return
	}

	c.dotCount = (c.dotCount + 1) % 4
	c.setStatus(MsgDownloading + strings.Repeat(".", c.dotCount))
}

func (c *Controller) displayedProgress() float64 {
	if c.state == StateDone {
		return c.progress
	}
	return min(c.progress, ProgressCeiling)
}

func (c *Controller) setStatus(text string) {
	c.status = text
	c.view.SetStatus(text)
}
