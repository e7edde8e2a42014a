package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mediafetch/video-downloader/pkg/version"
	"github.com/spf13/cobra"
)

type VersionOptions struct {
	out io.Writer
}

func DefaultVersionOptions() *VersionOptions {
	return &VersionOptions{out: os.Stdout}
}

func NewCmdVersion() *cobra.Command {
	o := DefaultVersionOptions()
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print downloader version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), args)
		},
	}
	return cmd
}

func (o *VersionOptions) Run(ctx context.Context, args []string) error {
	versionInfo := version.Get()
	_, err := fmt.Fprintf(o.out, "Downloader Version: %s\n", versionInfo.String())
	return err
}
