package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solusd/internal/infra/config"
	"solusd/internal/infra/logging"
	"solusd/internal/platform/di"
)

// containerFactory builds the DI container. Tests inject their own.
type containerFactory func(ctx context.Context) (*di.Container, error)

type cli struct {
	jsonOut bool
	verbose bool

	build containerFactory
	cont  *di.Container
	out   io.Writer
}

func newRootCmd(build containerFactory) *cobra.Command {
	c := &cli{build: build}

	root := &cobra.Command{
		Use:   "solusdctl",
		Short: "SOLUSD devnet issuance CLI",
		Long: `solusdctl mints and burns SOLUSD through the same use cases as the API.

Configuration is read from the environment (and CONFIG_FILE) exactly like the
API server. Set SOLUSD_MINT_ADDRESS to reuse a mint across invocations;
otherwise the first mint of each process creates a new one.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.out = cmd.OutOrStdout()
			if c.cont != nil {
				return nil
			}
			if c.build == nil {
				c.build = c.defaultFactory
			}
			cont, err := c.build(c.ctx(cmd))
			if err != nil {
				return err
			}
			c.cont = cont
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.cont == nil {
				return nil
			}
			err := c.cont.Close()
			c.cont = nil
			return err
		},
	}

	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print results as JSON")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level to stderr")

	root.AddCommand(
		c.mintCmd(),
		c.burnCmd(),
		c.balanceCmd(),
		c.infoCmd(),
		c.historyCmd(),
		c.airdropCmd(),
		c.priceCmd(),
	)
	return root
}

func (c *cli) defaultFactory(ctx context.Context) (*di.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{Level: level, Format: "console", File: cfg.LogFile})
	if err != nil {
		return nil, err
	}
	return di.NewContainer(ctx, cfg, logger.WithOptions(zap.AddStacktrace(zap.FatalLevel)))
}

// print writes v as JSON with --json, otherwise runs text.
func (c *cli) print(v any, text func(w io.Writer)) error {
	if c.jsonOut {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(c.out)
	return nil
}

func (c *cli) ctx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func stderrf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
