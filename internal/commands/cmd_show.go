package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/localhist/localhist/internal/core/history"
)

type ShowCmd struct {
	flags *Flags
}

// NewShowCmd creates a new show command
func NewShowCmd(flags *Flags) *ShowCmd {
	return &ShowCmd{flags: flags}
}

// Register adds the show command to the application
func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "show",
		Usage:       "Print the content of a history entry",
		UsageText:   "localhist show FILE ENTRY_ID",
		Description: "Writes the snapshot content of the given entry to stdout.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *ShowCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("expected FILE and ENTRY_ID. Run 'localhist show --help' for usage")
	}

	abs, err := filepath.Abs(c.Args().First())
	if err != nil {
		return fmt.Errorf("resolve %s: %w", c.Args().First(), err)
	}

	id := c.Args().Get(1)

	data, err := cmd.flags.Service.EntryContent(ctx, abs, id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("no entry %q for %s", id, c.Args().First())
		}
		return fmt.Errorf("read entry: %w", err)
	}

	_, err = c.Root().Writer.Write(data)
	return err
}
