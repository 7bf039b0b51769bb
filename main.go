package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/localhist/localhist/internal/commands"
	"github.com/localhist/localhist/internal/core/config"
	"github.com/localhist/localhist/internal/core/fsys"
	"github.com/localhist/localhist/internal/core/ident"
	"github.com/localhist/localhist/internal/core/lifecycle"
	"github.com/localhist/localhist/internal/localhist"
	"github.com/localhist/localhist/internal/printer"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	if err := setupLogger("info", ""); err != nil {
		panic(err)
	}

	var (
		p     = printer.New(os.Stderr)
		ctx   = printer.NewContext(context.Background(), p)
		flags = &commands.Flags{}
	)

	app := &cli.Command{
		Name:      "localhist",
		Usage:     "Keep a local version history of your files",
		UsageText: "localhist [global options] command [command options]",
		Description: `Localhist records immutable snapshots of files as they are saved, so any
earlier version can be inspected or restored without a VCS.

Run 'localhist watch' to record saves automatically, or 'localhist record'
to snapshot files from scripts and editor hooks.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("LOCALHIST_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (optional)",
				Sources:     cli.EnvVars("LOCALHIST_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("LOCALHIST_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("LOCALHIST_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := setupLogger(flags.LogLevel, flags.LogFile); err != nil {
				return ctx, err
			}

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			matcher, err := ident.NewMatcher(cfg.Exclude)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			var (
				logger   = log.With().Str("component", "localhist").Logger()
				settings = config.NewLive(flags.ConfigPath, flags.DataDir, cfg, logger)
			)

			flags.Service = localhist.New(cfg.HistoryDir(), settings, fsys.OS{}, matcher, logger)
			flags.Lifecycle = lifecycle.New(logger)
			flags.Service.RegisterShutdown(flags.Lifecycle)

			return ctx, nil
		},
	}

	app = commands.NewRecordCmd(flags).Register(app)
	app = commands.NewWatchCmd(flags).Register(app)
	app = commands.NewLsCmd(flags).Register(app)
	app = commands.NewLogCmd(flags).Register(app)
	app = commands.NewShowCmd(flags).Register(app)
	app = commands.NewLabelCmd(flags).Register(app)
	app = commands.NewRmCmd(flags).Register(app)
	app = commands.NewPruneCmd(flags).Register(app)
	app = commands.NewDoctorCmd(flags).Register(app)

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Println()
		printer.Ctx(ctx).FatalError(err)
		exitCode = 1
	}

	// Retention and index flushes run once per invocation, on the way out.
	if flags.Lifecycle != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := flags.Lifecycle.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown incomplete")
			if exitCode == 0 {
				exitCode = 1
			}
		}
		cancel()
		flags.Service.Close()
	}

	os.Exit(exitCode)
}

func setupLogger(level string, logFile string) error {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}

	if logFile != "" {
		logDir := filepath.Dir(logFile)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		// Write to both console and file
		output = io.MultiWriter(
			zerolog.ConsoleWriter{Out: os.Stderr},
			file,
		)
	}

	log.Logger = log.Output(output).Level(parsedLevel)

	return nil
}
