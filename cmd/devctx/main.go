// devctx: development-context MCP server for a pnpm + Turborepo monorepo.
//
// devctx turns a short command such as "test partners add unit tests for
// auth flow" into a context-rich prompt for a coding agent, built from the
// monorepo's indexed documentation.
//
// Usage:
//
//	devctx serve                    # MCP over stdio
//	devctx serve --http :8080       # MCP over streamable HTTP, API-key guarded
//	devctx prompt dev rac booking   # print an assembled prompt
//	devctx index ./docs --watch     # index markdown into the knowledge base
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/devctx/internal/apperr"
	"github.com/HendryAvila/devctx/internal/config"
	"github.com/HendryAvila/devctx/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, apperr.Render(err))
		stop()
		os.Exit(1)
	}
}

// cli holds the global flags and output streams shared by every
// subcommand.
type cli struct {
	configPath string
	logLevel   string
	verbose    bool

	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "devctx",
		Short: "Development-context MCP server",
		Long: `devctx builds context-rich prompts for coding agents working in a
pnpm + Turborepo monorepo.

Commands take the form "[action] [scope] requirement", for example:

  dev rac booking search with date filters
  test partners add unit tests for auth flow
  fix web header overlaps on mobile`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "path to a YAML config file (default $"+config.EnvConfigFile+")")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "development logging at debug level")

	root.AddCommand(
		c.serveCmd(),
		c.promptCmd(),
		c.rulesCmd(),
		c.indexCmd(),
		c.scopesCmd(),
		c.statsCmd(),
		c.keysCmd(),
		c.versionCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger. Logs always go to
// stderr so stdout stays free for the stdio transport and command output.
func (c *cli) setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.verbose {
		cfg.LogLevel = "debug"
		cfg.Development = true
	}

	log, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		return nil, nil, apperr.Configuration([]string{config.EnvLogLevel}, err)
	}
	return cfg, log, nil
}
