package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/localhist/localhist/internal/localhist"
	"github.com/localhist/localhist/internal/printer"
)

type RecordCmd struct {
	flags *Flags
}

// NewRecordCmd creates a new record command
func NewRecordCmd(flags *Flags) *RecordCmd {
	return &RecordCmd{flags: flags}
}

// Register adds the record command to the application
func (cmd *RecordCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "record",
		Usage:     "Record a history entry for one or more files",
		UsageText: "localhist record [--source LABEL] FILE...",
		Description: `Snapshots the current content of each file into its history.

Excluded or unsupported files are skipped silently, so the command is
safe to wire into editor save hooks and scripts.`,
		Action: cmd.run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "source label stored on the new entries",
			},
		},
	})

	return app
}

func (cmd *RecordCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	paths := c.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("no files given. Run 'localhist record --help' for usage")
	}

	recorded := 0
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}

		entry, err := cmd.flags.Service.AddEntry(ctx, localhist.EntryDescriptor{
			Resource: abs,
			Source:   c.String("source"),
		})
		if err != nil {
			return fmt.Errorf("record %s: %w", path, err)
		}
		if entry == nil {
			p.Infof("Skipped %s (excluded or unsupported)", path)
			continue
		}

		recorded++
		p.Successf("Recorded %s (%s)", path, entry.ID)
	}

	if recorded == 0 {
		p.Warnf("No entries recorded")
	}

	return nil
}
