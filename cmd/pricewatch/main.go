package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"pricewatch/internal/config"
	"pricewatch/internal/http/handlers"
	applog "pricewatch/internal/log"
	"pricewatch/internal/repos"
)

func main() {
	app := &cli.App{
		Name:   "pricewatch",
		Usage:  "marketplace price watchlist service",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:  "schema",
				Usage: "apply the database schema and exit",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "seed", Usage: "also insert demo products, prices and users"},
				},
				Action: schema,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		applog.Error(nil, "app.exit", err, nil)
		os.Exit(1)
	}
}

func setup() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	// a log file is teed to stdout so container logs still see events
	var extra []io.Writer
	switch cfg.LogFile {
	case "", "stdout", "stderr":
	default:
		extra = append(extra, os.Stdout)
	}
	if err := applog.Init(cfg.LogLevel, cfg.LogFile, extra...); err != nil {
		applog.Warn(nil, "log.file.unavailable", map[string]any{"path": cfg.LogFile, "err": err.Error()})
	}
	applog.Info(nil, "config.loaded", cfg.Fields())
	return cfg, nil
}

func serve(_ *cli.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.SeedDemo {
		if err := repos.SeedDemo(context.Background(), db, time.Now()); err != nil {
			return err
		}
	}

	app := handlers.NewApp(db, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		applog.Info(nil, "server.start", map[string]any{"port": cfg.Port})
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	applog.Info(nil, "server.stop", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func schema(c *cli.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Bool("seed") {
		if err := repos.SeedDemo(c.Context, db, time.Now()); err != nil {
			return err
		}
	}
	applog.Info(nil, "schema.applied", map[string]any{"dsn": cfg.DBDSN, "seeded": c.Bool("seed")})
	return nil
}
