package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	api "github.com/mediafetch/video-downloader/api/v1alpha1"
	"github.com/mediafetch/video-downloader/internal/controller"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
)

var legalFormats = []string{string(api.FormatMP4), string(api.FormatMP3)}

type GetOptions struct {
	GlobalOptions

	Format    string
	OutputDir string
	NoFetch   bool
	Output    string
}

func DefaultGetOptions() *GetOptions {
	return &GetOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Format:        string(api.FormatMP4),
		OutputDir:     ".",
	}
}

func NewCmdGet() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:   "get URL",
		Short: "Download a video through the server.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *GetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Format, "format", "f", o.Format, fmt.Sprintf("Media format. One of: (%s).", strings.Join(legalFormats, ", ")))
	fs.StringVarP(&o.OutputDir, "output-dir", "d", o.OutputDir, "Directory the finished file is saved to")
	fs.BoolVar(&o.NoFetch, "no-fetch", o.NoFetch, "Only print the download link")
	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *GetOptions) Complete(cmd *cobra.Command, args []string) error {
	o.Format = strings.ToLower(o.Format)
	return o.GlobalOptions.Complete(cmd, args)
}

func (o *GetOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if !funk.ContainsString(legalFormats, o.Format) {
		return fmt.Errorf("format must be one of %s", strings.Join(legalFormats, ", "))
	}
	return validateOutput(o.Output)
}

type GetResult struct {
	FileID string `json:"fileId"`
	Status string `json:"status"`
	File   string `json:"file,omitempty"`
	Link   string `json:"link,omitempty"`
	Path   string `json:"path,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (o *GetOptions) Run(ctx context.Context, args []string) error {
	c, err := o.Client()
	if err != nil {
		return err
	}

	// keep stdout clean for structured output
	var progressOut io.Writer = o.writer()
	if o.Output != "" {
		progressOut = os.Stderr
	}

	ctrl := controller.New(c, NewLineView(progressOut, o.ServerUrl))
	defer ctrl.Close()

	ctrl.SetURL(args[0])
	ctrl.SetFormat(o.Format)
	if err := ctrl.StartDownload(); err != nil {
		return err
	}

	snap, err := ctrl.Wait(ctx)
	if err != nil {
		return err
	}

	result := GetResult{FileID: snap.FileID, Status: string(snap.State), File: snap.File}
	if snap.State != controller.StateDone {
		if snap.Err != nil {
			result.Error = snap.Err.Error()
		}
		if printed, perr := printStructured(o.writer(), o.Output, result); printed && perr != nil {
			return perr
		}
		return fmt.Errorf("download failed: %s", result.Error)
	}
	result.Link = c.DownloadURL(snap.File)

	if !o.NoFetch {
		fetch := &FetchOptions{GlobalOptions: o.GlobalOptions, OutputDir: o.OutputDir, quiet: o.Output != ""}
		path, err := fetch.fetch(ctx, snap.File)
		if err != nil {
			return err
		}
		result.Path = path
	}

	printed, err := printStructured(o.writer(), o.Output, result)
	if printed || err != nil {
		return err
	}
	if result.Path != "" {
		fmt.Fprintf(o.writer(), "Saved %s\n", result.Path)
	}
	return nil
}
