package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	app "github.com/rocketscienceinc/tictactoe-engine/internal"
	"github.com/rocketscienceinc/tictactoe-engine/internal/config"
	"github.com/rocketscienceinc/tictactoe-engine/internal/stats"
)

const logFileName = "tictactoe.log"

// main - is the entry point of the application. It parses the command line and runs the chosen command.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "tictactoe",
		Usage: "tic-tac-toe rules engine with outcome statistics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yml",
				Usage:   "path to the yml config file",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP and WebSocket server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					conf, logger, err := setup(cmd)
					if err != nil {
						return err
					}

					return app.RunApp(ctx, logger, conf)
				},
			},
			{
				Name:  "play",
				Usage: "play hot-seat games in the terminal",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					conf, logger, err := setup(cmd)
					if err != nil {
						return err
					}

					drawPolicy, err := stats.ParseDrawPolicy(conf.Stats.DrawPolicy)
					if err != nil {
						return err
					}

					return app.Play(ctx, logger, drawPolicy, os.Stdin, os.Stdout)
				},
			},
			{
				Name:  "stats",
				Usage: "print the outcome counters from the configured store",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					conf, logger, err := setup(cmd)
					if err != nil {
						return err
					}

					playerStats, err := app.ListStats(ctx, logger, conf)
					if err != nil {
						return err
					}

					app.PrintStats(os.Stdout, playerStats)

					return nil
				},
			},
			{
				Name:  "migrate",
				Usage: "create the player_stats table for sql stats drivers",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					conf, logger, err := setup(cmd)
					if err != nil {
						return err
					}

					return app.Migrate(ctx, logger, conf)
				},
			},
		},
	}
}

func setup(cmd *cli.Command) (*config.Config, *slog.Logger, error) {
	conf, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}

	logger, err := initLogger(conf)
	if err != nil {
		return nil, nil, err
	}

	return conf, logger, nil
}

// initialize logger.
func initLogger(conf *config.Config) (*slog.Logger, error) {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var writer io.Writer = os.Stderr
	noColor := false

	if conf.Log.Dir != "" {
		if err := os.MkdirAll(conf.Log.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir failed: %w", err)
		}

		writer = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   filepath.Join(conf.Log.Dir, logFileName),
			MaxSize:    conf.Log.MaxSizeMB,
			MaxBackups: conf.Log.MaxBackups,
			MaxAge:     conf.Log.MaxAgeDays,
			Compress:   conf.Log.Compress,
		})
		noColor = true
	}

	logger := slog.New(tint.NewHandler(writer, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}))
	slog.SetDefault(logger)

	return logger, nil
}
