package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mediafetch/video-downloader/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type GlobalOptions struct {
	ServerUrl  string
	ConfigFile string
	Timeout    time.Duration

	out io.Writer
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ServerUrl:  "http://localhost:5000",
		ConfigFile: client.DefaultClientConfigPath(),
		Timeout:    30 * time.Second,
		out:        os.Stdout,
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ServerUrl, "server-url", "u", o.ServerUrl, "Address of the server")
	fs.StringVar(&o.ConfigFile, "config", o.ConfigFile, "Path to the client config file")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Timeout of a single request")
}

// Complete reads the server address from the config file unless it was
// given on the command line.
func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("server-url") || o.ConfigFile == "" {
		return nil
	}

	cfg, err := client.ParseConfigFile(o.ConfigFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	o.ServerUrl = cfg.Service.Server
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	cfg := o.config()
	return cfg.Validate()
}

func (o *GlobalOptions) config() *client.Config {
	cfg := client.NewDefault()
	cfg.Service = client.Service{Server: o.ServerUrl}
	if o.Timeout > 0 {
		cfg.Service.Timeout = o.Timeout.String()
	}
	return cfg
}

func (o *GlobalOptions) Client() (*client.DownloaderClient, error) {
	c, err := client.NewFromConfig(o.config())
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return c, nil
}

// fetchClient has no request timeout, finished files can be large.
func (o *GlobalOptions) fetchClient() (*client.DownloaderClient, error) {
	cfg := o.config()
	cfg.Service.Timeout = ""
	c, err := client.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return c, nil
}

func (o *GlobalOptions) writer() io.Writer {
	if o.out == nil {
		return os.Stdout
	}
	return o.out
}
