package ytdlp

import (
	"fmt"
	"path/filepath"
)

const (
	FormatMP4 = "mp4"
	FormatMP3 = "mp3"

	outputTemplate = "%(title).300s.%(ext)s"
	mp4Selector    = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]"

	// prints the final path once merging and post-processing are done
	printFinalPath = "after_move:filepath"
)

type Options struct {
	Binary      string
	Folder      string
	CookiesFile string
	MaxFileSize string
}

// BuildArgs returns the yt-dlp arguments used to fetch url in the given format.
func BuildArgs(opts Options, url, format string) ([]string, error) {
	args := []string{}
	if opts.CookiesFile != "" {
		args = append(args, "--cookies", opts.CookiesFile)
	}
	if opts.MaxFileSize != "" {
		args = append(args, "--max-filesize", opts.MaxFileSize)
	}
	args = append(args, "-o", filepath.Join(opts.Folder, outputTemplate))

	switch format {
	case FormatMP4:
		args = append(args, "-f", mp4Selector, "--merge-output-format", FormatMP4)
	case FormatMP3:
		args = append(args, "-x", "--audio-format", FormatMP3)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	return append(args, "--print", printFinalPath, url), nil
}
