package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/localhist/localhist/internal/printer"
)

type PruneCmd struct {
	flags *Flags
}

// NewPruneCmd creates a new prune command
func NewPruneCmd(flags *Flags) *PruneCmd {
	return &PruneCmd{flags: flags}
}

// Register adds the prune command to the application
func (cmd *PruneCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "prune",
		Usage:     "Apply the retention limit to all tracked files",
		UsageText: "localhist prune",
		Description: `Evicts the oldest entries of each tracked file down to the
max_file_entries limit and flushes the indexes.

Retention also runs automatically when a command finishes; prune forces
it immediately, picking up config edits without waiting.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *PruneCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if err := cmd.flags.Service.Compact(ctx); err != nil {
		return fmt.Errorf("prune history: %w", err)
	}

	p.Successf("History pruned")
	return nil
}
