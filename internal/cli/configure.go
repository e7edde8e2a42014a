package cli

import (
	"context"
	"fmt"

	"github.com/mediafetch/video-downloader/internal/client"
	"github.com/spf13/cobra"
)

type ConfigureOptions struct {
	GlobalOptions
}

func DefaultConfigureOptions() *ConfigureOptions {
	return &ConfigureOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdConfigure() *cobra.Command {
	o := DefaultConfigureOptions()
	cmd := &cobra.Command{
		Use:   "configure SERVER_URL",
		Short: "Store the server address in the client config file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.ServerUrl = args[0]
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&o.ConfigFile, "config", o.ConfigFile, "Path to the client config file")
	return cmd
}

func (o *ConfigureOptions) Run(ctx context.Context, args []string) error {
	if err := client.WriteConfig(o.ConfigFile, o.ServerUrl); err != nil {
		return err
	}
	fmt.Fprintf(o.writer(), "Wrote %s\n", o.ConfigFile)
	return nil
}
