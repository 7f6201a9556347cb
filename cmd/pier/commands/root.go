// Package commands implements the pier CLI's cobra commands.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/bob/internal/app"
	"go.trai.ch/bob/internal/build"
	"go.trai.ch/bob/internal/core/ports"
)

// CLI is the command line interface for pier.
type CLI struct {
	app     *app.App
	loader  ports.ConfigLoader
	rootCmd *cobra.Command
}

// New creates a CLI wired against a and the recipe loader that turns
// pier.yaml into the Task graph the run command drives.
func New(a *app.App, loader ports.ConfigLoader) *CLI {
	rootCmd := &cobra.Command{
		Use:           "pier",
		Short:         "A content-addressed build engine for monorepos",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().BoolP("inspect", "i", false, "Has no effect: sandbox directories are always deleted after a build")

	c := &CLI{
		app:    a,
		loader: loader,
	}
	c.rootCmd = rootCmd

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newWriteCmd())
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

// SetOutput redirects the root command's stdout and stderr streams.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
