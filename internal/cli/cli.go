// Package cli implements the rrepr command-line interface.
//
// Commands:
//   - render: print a sampled constructor literal for each container document
//   - check: render, evaluate the literal back and compare it with the
//     reduced container
//
// All commands accept --verbose (-v) for debug logging. The logger travels
// through the command's context.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const appName = "rrepr"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var version = "dev"

// SetVersion sets the version reported by --version
func SetVersion(v string) {
	version = v
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "rrepr prints small, reproducible literals of labeled array containers",
		Long:         `rrepr samples a few positions along every dimension of a dataset or data array and prints constructor code that rebuilds the reduced container, ready to paste into a bug report or test.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(withLogger(ctx, c.Logger))
			return nil
		},
	}

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.checkCommand())
	return root
}
