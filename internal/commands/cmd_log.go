package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/localhist/localhist/internal/printer"
)

type LogCmd struct {
	flags *Flags
}

// NewLogCmd creates a new log command
func NewLogCmd(flags *Flags) *LogCmd {
	return &LogCmd{flags: flags}
}

// Register adds the log command to the application
func (cmd *LogCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "log",
		Usage:       "Show the history of a file",
		UsageText:   "localhist log FILE",
		Description: "Displays the entries recorded for a file, newest first.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *LogCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one file. Run 'localhist log --help' for usage")
	}

	abs, err := filepath.Abs(c.Args().First())
	if err != nil {
		return fmt.Errorf("resolve %s: %w", c.Args().First(), err)
	}

	entries, err := cmd.flags.Service.Entries(ctx, abs)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	if len(entries) == 0 {
		p.Infof("No history for %s", c.Args().First())
		return nil
	}

	out := c.Root().Writer

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTIME\tSOURCE")

	// Newest first for reading; storage order is oldest first.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		source := e.Source
		if source == "" {
			source = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Time().Format(time.DateTime), source)
	}

	_ = w.Flush()

	return nil
}
