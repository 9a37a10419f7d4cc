package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v3"

	"superloja/internal/cache"
	"superloja/internal/config"
	httpapi "superloja/internal/http"
	"superloja/internal/jobs"
	applog "superloja/internal/log"
	"superloja/internal/repos"
	"superloja/internal/services"
	"superloja/internal/storage"
)

func main() {
	root := &cli.Command{
		Name:  "superloja",
		Usage: "SuperLoja storefront and back-office server",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			closeAuctionsCommand(),
			importKBCommand(),
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			return runServer(ctx)
		},
	}
	if err := root.Run(context.Background(), os.Args); err != nil {
		applog.Std().WithError(err).Fatal("superloja.exit")
	}
}

// setup loads the environment config, points the logger at it and opens the database.
func setup() (config.Config, *sqlx.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("config: %w", err)
	}
	applog.Setup(cfg.LogLevel, cfg.LogFile, cfg.LogMaxMB)
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return cfg, nil, fmt.Errorf("open db: %w", err)
	}
	return cfg, db, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server and the auction sweep",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return runServer(ctx)
		},
	}
}

func runServer(ctx context.Context) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := cache.New(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer store.Close()

	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	media, err := storage.New(mediaDir, "/media")
	if err != nil {
		return fmt.Errorf("media: %w", err)
	}
	applog.Std().WithField("dir", mediaDir).Info("static.media")

	app, deps := httpapi.New(httpapi.Options{
		Config:    cfg,
		DB:        db,
		Media:     media,
		Cache:     store,
		Limits:    httpapi.DefaultLimits(),
		AccessLog: true,
	})

	sched, err := jobs.Start(cfg.AuctionSweep, deps.Auctions)
	if err != nil {
		return fmt.Errorf("jobs: %w", err)
	}
	defer sched.Stop()

	errCh := make(chan error, 1)
	go func() {
		applog.Std().WithField("port", cfg.Port).Info("server.listen")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		applog.Std().WithField("signal", sig.String()).Info("server.shutdown")
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return app.ShutdownWithTimeout(10 * time.Second)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations and seed baseline data",
		Action: func(ctx context.Context, _ *cli.Command) error {
			_, db, err := setup()
			if err != nil {
				return err
			}
			defer db.Close()
			applog.Std().Info("migrate.done")
			return nil
		},
	}
}

func closeAuctionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "close-auctions",
		Usage: "End every auction whose window has passed",
		Action: func(ctx context.Context, _ *cli.Command) error {
			_, db, err := setup()
			if err != nil {
				return err
			}
			defer db.Close()
			settings := services.NewSettingsService(db)
			notify := services.NewNotificationService(repos.NewNotificationRepo(db))
			n := jobs.SweepAuctions(ctx, services.NewAuctionService(db, notify, settings), time.Now())
			fmt.Printf("closed %d auctions\n", n)
			return nil
		},
	}
}

func importKBCommand() *cli.Command {
	return &cli.Command{
		Name:  "import-kb",
		Usage: "Import chatbot knowledge entries from a YAML file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Required: true, Usage: "path to kb.yaml"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_, db, err := setup()
			if err != nil {
				return err
			}
			defer db.Close()
			f, err := os.Open(c.String("file"))
			if err != nil {
				return err
			}
			defer f.Close()
			n, err := services.NewChatbotService(db, services.NewSettingsService(db)).ImportYAML(ctx, f)
			if err != nil {
				return err
			}
			fmt.Printf("imported %d knowledge entries\n", n)
			return nil
		},
	}
}
