package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type StatusOptions struct {
	GlobalOptions

	Output string
}

func DefaultStatusOptions() *StatusOptions {
	return &StatusOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdStatus() *cobra.Command {
	o := DefaultStatusOptions()
	cmd := &cobra.Command{
		Use:   "status FILE_ID",
		Short: "Show the status of a download job.",
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

func (o *StatusOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *StatusOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	return validateOutput(o.Output)
}

func (o *StatusOptions) Run(ctx context.Context, args []string) error {
	c, err := o.Client()
	if err != nil {
		return err
	}

	status, err := c.GetStatus(ctx, args[0])
	if err != nil {
		return fmt.Errorf("getting status: %w", err)
	}

	printed, err := printStructured(o.writer(), o.Output, status)
	if printed || err != nil {
		return err
	}

	w := o.writer()
	fmt.Fprintf(w, "Status: %s\n", status.Status)
	if status.File != "" {
		fmt.Fprintf(w, "File:   %s\n", status.File)
		fmt.Fprintf(w, "Link:   %s\n", c.DownloadURL(status.File))
	}
	if status.Error != "" {
		fmt.Fprintf(w, "Error:  %s\n", status.Error)
	}
	return nil
}
