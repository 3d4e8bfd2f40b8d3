package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/sexpfmt/pkg/errors"
	"github.com/matzehuels/sexpfmt/pkg/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	layoutFlags
	addr         string
	maxBodyBytes int64
	timeout      time.Duration
	noCache      bool
}

// serveCommand creates the serve command, which exposes formatting over
// HTTP until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the formatting API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults, err := c.pipelineOptions(cmd, &opts.layoutFlags)
			if err != nil {
				return err
			}
			addr := c.Config.Server.Addr
			if cmd.Flags().Changed("addr") {
				addr = opts.addr
			}
			maxBody := c.Config.Server.MaxBodyBytes
			if cmd.Flags().Changed("max-body") {
				maxBody = opts.maxBodyBytes
			}
			timeout := c.Config.Server.RequestTimeout.Duration
			if cmd.Flags().Changed("timeout") {
				timeout = opts.timeout
			}
			if timeout < 0 {
				return errs.New(errs.ErrCodeInvalidInput, "--timeout must not be negative")
			}

			runner, err := c.newRunner(cmd.Context(), opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, server.Config{
				Addr:           addr,
				MaxBodyBytes:   maxBody,
				RequestTimeout: timeout,
				Defaults:       defaults,
				Logger:         c.Logger,
			})
			printInfo("Serving the formatting API")
			printKeyValue("Address", addr)
			printKeyValue("Cache", c.cacheLabel(opts.noCache))
			printKeyValue("Max body", fmt.Sprintf("%d bytes", maxBody))
			if timeout > 0 {
				printKeyValue("Timeout", timeout.String())
			}
			printDetail("POST /v1/format · POST /v1/check · GET /v1/forms · GET /healthz")
			return srv.ListenAndServe(cmd.Context())
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().Int64Var(&opts.maxBodyBytes, "max-body", 1<<20, "maximum source size in bytes")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", server.DefaultRequestTimeout, "wall-clock limit per request")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the output cache")

	return cmd
}
