package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"marketplace/internal/interfaces/scheduler"
	"marketplace/internal/shared/config"
	"marketplace/internal/shared/logger"
	"marketplace/internal/shared/telemetry"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
)

type flags struct {
	LogLevel  string
	LogFormat string
	EnvFile   string

	Config *config.Config
}

func main() {
	if err := logger.Setup("info", "console", nil); err != nil {
		panic(err)
	}

	f := &flags{}

	app := &cli.Command{
		Name:    "marketplace",
		Usage:   "Serve the marketplace page and message form",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("LOG_LEVEL"),
				Value:       "info",
				Destination: &f.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "log format (console, json)",
				Sources:     cli.EnvVars("LOG_FORMAT"),
				Value:       "console",
				Destination: &f.LogFormat,
			},
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "path to a .env file, ignored when missing",
				Value:       ".env",
				Destination: &f.EnvFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := config.LoadEnvFile(f.EnvFile); err != nil {
				return ctx, err
			}

			cfg, err := config.Load()
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if c.IsSet("log-level") {
				cfg.Log.Level = f.LogLevel
			}
			if c.IsSet("log-format") {
				cfg.Log.Format = f.LogFormat
			}
			if err := logger.Setup(cfg.Log.Level, cfg.Log.Format, nil); err != nil {
				return ctx, err
			}

			f.Config = cfg
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server and the ledger pruning scheduler",
				Action: func(ctx context.Context, c *cli.Command) error { return serve(ctx, f.Config) },
			},
			{
				Name:   "prune",
				Usage:  "remove expired submission ledger entries and exit",
				Action: func(ctx context.Context, c *cli.Command) error { return prune(ctx, f.Config) },
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() > 0 {
				return fmt.Errorf("unknown command %q. Run 'marketplace --help' for usage", c.Args().First())
			}
			return serve(ctx, f.Config)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  cfg.Telemetry.Environment,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
		})
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("telemetry shutdown failed")
			}
		}()
	}

	deps, err := NewDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(scheduler.Config{
			ScheduleTimes: cfg.Scheduler.ScheduleTimes,
			WorkerCount:   cfg.Scheduler.WorkerCount,
			JobDelay:      cfg.Scheduler.JobDelay,
			QueueSize:     cfg.Scheduler.QueueSize,
			RunOnStartup:  cfg.Scheduler.RunOnStartup,
			JobProvider:   scheduler.PruneJobProvider(deps.Submissions),
		})
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
	} else {
		log.Info().Msg("scheduler is disabled")
	}

	handler := SetupRoutes(deps, cfg)
	srv, redirectSrv := StartServers(NewServerConfigFromConfig(handler, cfg))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	GracefulShutdown(srv, redirectSrv, sched, cfg.Server.ShutdownTimeout)
	return nil
}

func prune(ctx context.Context, cfg *config.Config) error {
	deps, err := NewDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	removed, err := deps.Submissions.PruneAll(ctx)
	if err != nil {
		return err
	}

	log.Info().Int64("removed", removed).Msg("submission ledger pruned")
	return nil
}
