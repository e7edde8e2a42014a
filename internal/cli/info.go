package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mediafetch/video-downloader/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type InfoOptions struct {
	GlobalOptions
	Output string
	Remote bool
}

func DefaultInfoOptions() *InfoOptions {
	return &InfoOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Output:        "",
		Remote:        false,
	}
}

func NewCmdInfo() *cobra.Command {
	o := DefaultInfoOptions()
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print downloader information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *InfoOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
	fs.BoolVar(&o.Remote, "remote", o.Remote, "Get information from the remote service")
}

func (o *InfoOptions) Validate() error {
	if err := o.GlobalOptions.Validate([]string{}); err != nil {
		return err
	}
	return validateOutput(o.Output)
}

// InfoResponse represents the information we want to display
type InfoResponse struct {
	GitCommit   string `json:"gitCommit"`
	VersionName string `json:"versionName"`
}

func (o *InfoOptions) Run(ctx context.Context, args []string) error {
	var info InfoResponse

	if o.Remote {
		c, err := o.Client()
		if err != nil {
			return err
		}
		remote, err := c.GetInfo(ctx)
		if err != nil {
			return fmt.Errorf("failed to get remote info: %w", err)
		}
		info = InfoResponse{GitCommit: remote.GitCommit, VersionName: remote.VersionName}
	} else {
		versionInfo := version.Get()
		info = InfoResponse{
			GitCommit:   versionInfo.GitCommit,
			VersionName: versionInfo.GitVersion,
		}
	}

	printed, err := printStructured(o.writer(), o.Output, info)
	if printed || err != nil {
		return err
	}

	source := "Local CLI"
	if o.Remote {
		source = "Remote Service"
	}
	w := o.writer()
	fmt.Fprintf(w, "Video Downloader %s Information:\n", source)
	fmt.Fprintf(w, "  Version Name: %s\n", info.VersionName)
	fmt.Fprintf(w, "  Git Commit:   %s\n", info.GitCommit)
	return nil
}
