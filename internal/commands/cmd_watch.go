package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/localhist/localhist/internal/printer"
	"github.com/localhist/localhist/internal/watcher"
)

type WatchCmd struct {
	flags *Flags
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags) *WatchCmd {
	return &WatchCmd{flags: flags}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Watch directories and record entries on file writes",
		UsageText: "localhist watch [PATH...]",
		Description: `Runs until interrupted, recording a history entry for each file after
its writes settle. Paths default to the watch.paths config setting.

Writes within the debounce window collapse into a single entry, so an
editor's save routine produces one snapshot, not several.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	paths := c.Args().Slice()
	if len(paths) == 0 {
		paths = cmd.flags.Config.Watch.Paths
	}
	if len(paths) == 0 {
		return fmt.Errorf("no paths to watch: pass them as arguments or set watch.paths in config")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	debounce := time.Duration(cmd.flags.Config.Watch.DebounceMS) * time.Millisecond
	w := watcher.New(cmd.flags.Service, paths, debounce, log.Logger)

	p.Infof("Watching %d path(s), press Ctrl-C to stop", len(paths))

	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	p.Infof("Watch stopped")
	return nil
}
