package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/localhist/localhist/internal/printer"
)

type RmCmd struct {
	flags *Flags
}

// NewRmCmd creates a new rm command
func NewRmCmd(flags *Flags) *RmCmd {
	return &RmCmd{flags: flags}
}

// Register adds the rm command to the application
func (cmd *RmCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "rm",
		Usage:     "Remove history entries",
		UsageText: "localhist rm FILE ENTRY_ID | localhist rm --all [FILE]",
		Description: `Removes one entry and its snapshot.

With --all and a file, removes that file's entire history. With --all and
no file, removes the entire store: every entry of every tracked file.`,
		Action: cmd.run,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "remove a file's whole history, or everything if no file given",
			},
		},
	})

	return app
}

func (cmd *RmCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if c.Bool("all") {
		if c.Args().Len() == 0 {
			if err := cmd.flags.Service.RemoveAll(ctx); err != nil {
				return fmt.Errorf("remove all history: %w", err)
			}
			p.Successf("Removed all history")
			return nil
		}

		abs, err := filepath.Abs(c.Args().First())
		if err != nil {
			return fmt.Errorf("resolve %s: %w", c.Args().First(), err)
		}
		if err := cmd.flags.Service.RemoveResource(ctx, abs); err != nil {
			return fmt.Errorf("remove history: %w", err)
		}
		p.Successf("Removed history of %s", c.Args().First())
		return nil
	}

	if c.Args().Len() != 2 {
		return fmt.Errorf("expected FILE and ENTRY_ID. Run 'localhist rm --help' for usage")
	}

	abs, err := filepath.Abs(c.Args().First())
	if err != nil {
		return fmt.Errorf("resolve %s: %w", c.Args().First(), err)
	}

	removed, err := cmd.flags.Service.RemoveEntry(ctx, abs, c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("remove entry: %w", err)
	}

	if !removed {
		p.Infof("No entry %q for %s", c.Args().Get(1), c.Args().First())
		return nil
	}

	p.Successf("Removed %s", c.Args().Get(1))
	return nil
}
