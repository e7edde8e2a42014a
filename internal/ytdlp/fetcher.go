package ytdlp

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrNoOutputFile = errors.New("No output file found")

type Fetcher struct {
	opts           Options
	commandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
	log            *zap.SugaredLogger
}

func NewFetcher(opts Options) *Fetcher {
	if opts.Binary == "" {
		opts.Binary = "yt-dlp"
	}
	return &Fetcher{
		opts:           opts,
		commandContext: exec.CommandContext,
		log:            zap.S().Named("ytdlp"),
	}
}

// Fetch runs yt-dlp and returns the base name of the produced file.
func (f *Fetcher) Fetch(ctx context.Context, url, format string) (string, error) {
	if err := os.MkdirAll(f.opts.Folder, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create download folder")
	}

	opts := f.opts
	if opts.CookiesFile != "" {
		if _, err := os.Stat(opts.CookiesFile); err != nil {
			f.log.Debugw("cookies file not found, running without it", "path", opts.CookiesFile)
			opts.CookiesFile = ""
		}
	}

	args, err := BuildArgs(opts, url, format)
	if err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd := f.commandContext(ctx, opts.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	f.log.Debugw("running downloader", "binary", opts.Binary, "args", args)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), "download interrupted")
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", errors.Errorf("yt-dlp command failed: %s", strings.TrimSpace(stderr.String()))
		}
		return "", errors.Wrap(err, "failed to run yt-dlp")
	}
	f.log.Debugf("download command output: %s", stdout.String())

	return OutputFile(stdout.String(), opts.Folder)
}

// OutputFile returns the base name of the file yt-dlp reported as its final
// output. The file must exist in folder.
func OutputFile(output, folder string) (string, error) {
	var last string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			last = line
		}
	}
	if last == "" {
		return "", ErrNoOutputFile
	}

	name := filepath.Base(last)
	info, err := os.Stat(filepath.Join(folder, name))
	if err != nil || info.IsDir() {
		return "", ErrNoOutputFile
	}
	return name, nil
}
