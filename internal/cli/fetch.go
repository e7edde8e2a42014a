package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type FetchOptions struct {
	GlobalOptions

	OutputDir string
	quiet     bool
}

func DefaultFetchOptions() *FetchOptions {
	return &FetchOptions{
		GlobalOptions: DefaultGlobalOptions(),
		OutputDir:     ".",
	}
}

func NewCmdFetch() *cobra.Command {
	o := DefaultFetchOptions()
	cmd := &cobra.Command{
		Use:   "fetch FILE",
		Short: "Save a finished download to disk.",
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

func (o *FetchOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.OutputDir, "output-dir", "d", o.OutputDir, "Directory the file is saved to")
}

func (o *FetchOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if strings.Contains(args[0], "/") || strings.Contains(args[0], "..") {
		return fmt.Errorf("invalid file name %q", args[0])
	}
	return nil
}

func (o *FetchOptions) Run(ctx context.Context, args []string) error {
	path, err := o.fetch(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(o.writer(), "Saved %s\n", path)
	return nil
}

// fetch writes the file next to a temporary name and renames it once complete.
func (o *FetchOptions) fetch(ctx context.Context, name string) (string, error) {
	c, err := o.fetchClient()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(o.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(o.OutputDir, filepath.Base(name))
	tmp, err := os.CreateTemp(o.OutputDir, ".fetch-*")
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	n, err := c.Fetch(ctx, name, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("saving file: %w", err)
	}
	if !o.quiet {
		fmt.Fprintf(o.writer(), "Fetched %d bytes\n", n)
	}
	return path, nil
}
