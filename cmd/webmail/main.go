// Command webmail runs the webmail HTTP server backed by PostgreSQL.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	webmail "github.com/emailapp/webmail"
	"github.com/emailapp/webmail/api"
	"github.com/emailapp/webmail/store/postgres"
	"github.com/emailapp/webmail/summary"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	st := postgres.New(db, postgres.WithLogger(logger))

	opts := []webmail.Option{
		webmail.WithStore(st),
		webmail.WithLogger(logger),
		webmail.WithServiceName("webmail"),
		webmail.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		defer rdb.Close()
		opts = append(opts, webmail.WithRedisClient(rdb))
	}

	if cfg.Gemini.APIKey != "" {
		opts = append(opts, webmail.WithSummarizer(summary.NewGemini(
			cfg.Gemini.APIKey,
			summary.WithModel(cfg.Gemini.Model),
			summary.WithGeminiLogger(logger),
		)))
	}

	svc, err := webmail.NewService(opts...)
	if err != nil {
		return err
	}

	if err := svc.Connect(ctx); err != nil {
		return err
	}
	defer svc.Close(context.Background())

	srv, err := api.NewServer(svc, []byte(cfg.Auth.JWTKey),
		api.WithLogger(logger),
		api.WithTokenTTL(cfg.Auth.TokenTTL),
	)
	if err != nil {
		return err
	}

	app := srv.App()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", cfg.Server.Address)
		errCh <- app.Listen(cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout)
	}
}
