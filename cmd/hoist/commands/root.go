// Package commands implements the CLI commands for hoist.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/hoist/internal/app"
	"go.trai.ch/hoist/internal/build"
	"go.trai.ch/hoist/internal/core/domain"
)

// CLI represents the command line interface for hoist.
type CLI struct {
	app     Application
	logs    LogControl
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Resolve(ctx context.Context, opts app.Options) (*app.Outcome, error)
	Install(ctx context.Context, opts app.Options) (*app.Outcome, domain.ApplyResult, error)
	Why(ctx context.Context, opts app.Options, consumer, name string) (domain.Explanation, error)
	Report(ctx context.Context, opts app.Options) (*domain.Report, error)
}

// LogControl adjusts the logger from command line flags.
type LogControl interface {
	SetVerbose(enable bool)
	SetJSON(enable bool)
}

// New creates a new CLI instance with the given app. logs may be nil.
func New(a Application, logs LogControl) *CLI {
	rootCmd := &cobra.Command{
		Use:           "hoist",
		Short:         "A workspace-aware dependency resolver and hoisting engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("dir", "C", "", "Start workspace discovery in this directory")
	flags.String("registry", "", "Offline registry directory (default .hoist/registry)")
	flags.Bool("no-lockfile", false, "Ignore hoist.lock.yaml and do not write it")
	flags.BoolP("verbose", "v", false, "Log debug output")
	flags.Bool("json-logs", false, "Write logs as JSON")

	c := &CLI{
		app:     a,
		logs:    logs,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = c.configureLogs

	rootCmd.AddCommand(c.newResolveCmd())
	rootCmd.AddCommand(c.newInstallCmd())
	rootCmd.AddCommand(c.newWhyCmd())
	rootCmd.AddCommand(c.newReportCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) configureLogs(cmd *cobra.Command, _ []string) {
	if c.logs == nil {
		return
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		c.logs.SetVerbose(true)
	}
	if jsonLogs, _ := cmd.Flags().GetBool("json-logs"); jsonLogs {
		c.logs.SetJSON(true)
	}
}

// options reads the persistent flags shared by every workspace command.
func options(cmd *cobra.Command) app.Options {
	dir, _ := cmd.Flags().GetString("dir")
	registry, _ := cmd.Flags().GetString("registry")
	noLockfile, _ := cmd.Flags().GetBool("no-lockfile")
	return app.Options{
		Dir:        dir,
		Registry:   registry,
		NoLockfile: noLockfile,
	}
}
