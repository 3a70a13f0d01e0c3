package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ems-inventory/internal/auth"
	"ems-inventory/internal/cache"
	"ems-inventory/internal/config"
	"ems-inventory/internal/database"
	"ems-inventory/internal/ledger"
	"ems-inventory/internal/query"
	"ems-inventory/internal/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			if errors.Is(err, config.ErrMissingSecret) {
				return fmt.Errorf("%w: refusing to start without a session signing secret", err)
			}
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{DSN: cfg.DatabaseDSN, LogLevel: cfg.GormLogLevel})
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}

	var c cache.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		r, err := cache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			log.Printf("[WARN] redis unavailable at %s, serving without cache: %v", cfg.RedisAddr, err)
		} else {
			defer r.Close()
			c = r
			log.Printf("[INFO] dashboard cache enabled (redis %s, ttl %s)", cfg.RedisAddr, cfg.CacheTTL)
		}
	}

	app := server.New(server.Deps{
		Config: cfg,
		DB:     db,
		Ledger: ledger.NewEngine(db, c),
		Query:  query.NewService(db, c),
		Auth:   auth.NewService(db, auth.NewIssuer(cfg.JWTSecret, cfg.SessionTTL)),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] listening on :%s", cfg.HTTPPort)
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("[INFO] shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
