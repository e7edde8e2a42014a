package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mediafetch/video-downloader/internal/tui"
	"github.com/mediafetch/video-downloader/pkg/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type UIOptions struct {
	GlobalOptions

	LogFile  string
	LogLevel string
}

func DefaultUIOptions() *UIOptions {
	return &UIOptions{
		GlobalOptions: DefaultGlobalOptions(),
		LogFile:       filepath.Join(filepath.Dir(DefaultGlobalOptions().ConfigFile), "ui.log"),
		LogLevel:      "info",
	}
}

func NewCmdUI() *cobra.Command {
	o := DefaultUIOptions()
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the interactive terminal UI.",
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

func (o *UIOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVar(&o.LogFile, "log-file", o.LogFile, "File the UI logs to")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level")
}

func (o *UIOptions) Run(ctx context.Context, args []string) error {
	undo, err := o.initLog()
	if err != nil {
		return err
	}
	defer undo()

	c, err := o.Client()
	if err != nil {
		return err
	}
	return tui.Run(c, o.ServerUrl)
}

// initLog sends the global logger to the log file. The terminal belongs to
// the UI, so a log file that cannot be opened is an error.
func (o *UIOptions) initLog() (func(), error) {
	if o.LogFile == "" {
		return func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(o.LogFile), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	logger, err := log.InitFileLog(log.ParseLevel(o.LogLevel), o.LogFile)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", o.LogFile, err)
	}

	undo := zap.ReplaceGlobals(logger)
	return func() {
		_ = logger.Sync()
		undo()
	}, nil
}
