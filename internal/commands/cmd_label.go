package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/localhist/localhist/internal/printer"
)

type LabelCmd struct {
	flags *Flags
}

// NewLabelCmd creates a new label command
func NewLabelCmd(flags *Flags) *LabelCmd {
	return &LabelCmd{flags: flags}
}

// Register adds the label command to the application
func (cmd *LabelCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "label",
		Usage:     "Change the source label of a history entry",
		UsageText: "localhist label FILE ENTRY_ID LABEL",
		Description: `Replaces the source label stored on an entry.

Labelling an entry that no longer exists is a no-op.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *LabelCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if c.Args().Len() != 3 {
		return fmt.Errorf("expected FILE, ENTRY_ID and LABEL. Run 'localhist label --help' for usage")
	}

	abs, err := filepath.Abs(c.Args().First())
	if err != nil {
		return fmt.Errorf("resolve %s: %w", c.Args().First(), err)
	}

	if err := cmd.flags.Service.UpdateEntry(ctx, abs, c.Args().Get(1), c.Args().Get(2)); err != nil {
		return fmt.Errorf("label entry: %w", err)
	}

	p.Successf("Labelled %s", c.Args().Get(1))
	return nil
}
