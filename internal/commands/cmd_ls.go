package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/localhist/localhist/internal/printer"
)

type LsCmd struct {
	flags *Flags
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags) *LsCmd {
	return &LsCmd{flags: flags}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "ls",
		Usage:       "List all tracked files",
		UsageText:   "localhist ls",
		Description: "Displays a table of every file that currently has history entries.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	copies, err := cmd.flags.Service.All(ctx)
	if err != nil {
		return fmt.Errorf("list tracked files: %w", err)
	}

	if len(copies) == 0 {
		p.Infof("No tracked files")
		return nil
	}

	out := c.Root().Writer

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tRESOURCE")
	for _, wc := range copies {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", wc.Name, wc.Resource)
	}
	_ = w.Flush()

	return nil
}
