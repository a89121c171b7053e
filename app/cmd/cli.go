package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rakhulsr/go-ecommerce-api/app/auth"
	"github.com/Rakhulsr/go-ecommerce-api/app/cache"
	"github.com/Rakhulsr/go-ecommerce-api/app/configs"
	"github.com/Rakhulsr/go-ecommerce-api/app/db/seeders"
	"github.com/Rakhulsr/go-ecommerce-api/app/events"
	"github.com/Rakhulsr/go-ecommerce-api/app/helpers"
	"github.com/Rakhulsr/go-ecommerce-api/app/models/migrations"
	"github.com/Rakhulsr/go-ecommerce-api/app/routes"
	"github.com/Rakhulsr/go-ecommerce-api/app/services"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 15 * time.Second

func RunCli() {
	env := configs.LoadEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: env.SlogLevel()}))

	cmd := &cli.Command{
		Name:  "storefront",
		Usage: "Stock-aware cart and order API",
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, env, logger, false)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP API",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "migrate", Usage: "run migrations before serving"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return serve(ctx, env, logger, c.Bool("migrate"))
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migration",
				Action: func(ctx context.Context, c *cli.Command) error {
					db, err := configs.OpenConnection(env, logger)
					if err != nil {
						return err
					}
					if err := migrations.AutoMigrate(db); err != nil {
						return err
					}
					logger.Info("migration complete")
					return nil
				},
			},
			{
				Name:  "seed",
				Usage: "Seed demo vendors, products and customers",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "vendors", Value: 2},
					&cli.IntFlag{Name: "products", Value: 5, Usage: "products per vendor"},
					&cli.IntFlag{Name: "customers", Value: 3},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					db, err := configs.OpenConnection(env, logger)
					if err != nil {
						return err
					}
					if err := migrations.AutoMigrate(db); err != nil {
						return err
					}
					_, err = seeders.DBSeed(ctx, db, seeders.Options{
						Vendors:           int(c.Int("vendors")),
						ProductsPerVendor: int(c.Int("products")),
						Customers:         int(c.Int("customers")),
					}, logger)
					return err
				},
			},
			{
				Name:  "generate-keys",
				Usage: "Generate new token authentication and encryption keys for .env",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: ".env.keys", Usage: "file to write the keys to"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if err := configs.GenerateTokenKeys(os.Stdout, c.String("out")); err != nil {
						return err
					}
					logger.Info("key generation complete, copy the keys to your .env file", "file", c.String("out"))
					return nil
				},
			},
			{
				Name:  "cache-flush",
				Usage: "Drop every cached product, cart and wishlist entry",
				Action: func(ctx context.Context, c *cli.Command) error {
					client, err := configs.OpenRedis(ctx, env)
					if err != nil {
						return err
					}
					defer client.Close()

					n, err := cache.Flush(ctx, cache.NewRedisCache(client, logger))
					if err != nil {
						return err
					}
					logger.Info("cache flushed", "keys", n)
					return nil
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, env configs.ENV, logger *slog.Logger, migrate bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	keys, err := configs.LoadTokenKeys(env)
	if err != nil {
		return fmt.Errorf("%w (run the generate-keys command)", err)
	}

	db, err := configs.OpenConnection(env, logger)
	if err != nil {
		return err
	}
	if migrate {
		if err := migrations.AutoMigrate(db); err != nil {
			return err
		}
	}

	client, err := configs.OpenRedis(ctx, env)
	if err != nil {
		return err
	}
	defer client.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if len(env.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(env.KafkaBrokers, env.OrderEventsTopic)
		logger.Info("publishing order events", "brokers", env.KafkaBrokers, "topic", env.OrderEventsTopic)
	}
	defer publisher.Close()

	router := routes.NewRouter(routes.Dependencies{
		DB:        db,
		Cache:     cache.NewRedisCache(client, logger),
		Publisher: publisher,
		Tokens:    auth.NewTokenService(keys.AuthKey, keys.EncKey, env.TokenTTL),
		Media:     services.NewLocalMediaStore(env.MediaDir),
		Money:     helpers.NewMoneyFormatter(env.CurrencySymbol),
		Logger:    logger,
	})

	server := &http.Server{
		Addr:              env.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
