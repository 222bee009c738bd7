package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/draftroom/internal/broadcast"
	"github.com/DoyleJ11/draftroom/internal/config"
	"github.com/DoyleJ11/draftroom/internal/engine"
	"github.com/DoyleJ11/draftroom/internal/httpapi"
	"github.com/DoyleJ11/draftroom/internal/lobby"
	"github.com/DoyleJ11/draftroom/internal/logging"
	"github.com/DoyleJ11/draftroom/internal/seed"
	"github.com/DoyleJ11/draftroom/internal/session"
	"github.com/DoyleJ11/draftroom/internal/ws"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	envFile     string
	addr        string
	seedFile    string
	startPaused bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the draft server",
		Long: `Run the draft server.

Configuration comes from the environment (and an optional .env file).
Flags override the matching environment variables.

Examples:
  # Serve the draft described in draft.yaml
  SESSION_SECRET=s3cret draftroom serve --seed-file draft.yaml

  # Seed from postgres and mirror events to redis
  SEED_SOURCE=postgres DATABASE_URL=postgres://... REDIS_URL=redis://localhost:6379 draftroom serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = opts.addr
			}
			if cmd.Flags().Changed("seed-file") {
				cfg.SeedSource = "file"
				cfg.SeedFile = opts.seedFile
			}
			if cmd.Flags().Changed("paused") {
				cfg.StartPaused = opts.startPaused
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger, err := logging.New(cfg.LogLevel, cfg.Dev)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "Optional dotenv file loaded before the environment")
	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "Listen address (overrides ADDR)")
	cmd.Flags().StringVar(&opts.seedFile, "seed-file", "", "Seed the draft from this YAML file (overrides SEED_SOURCE/SEED_FILE)")
	cmd.Flags().BoolVar(&opts.startPaused, "paused", false, "Start the draft paused (overrides START_PAUSED)")
	return cmd
}

// serve runs the HTTP server right away and loads the draft in the
// background. Clients that connect early wait for hydration.
func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	style, err := engine.ParseOrderStyle(cfg.OrderStyle)
	if err != nil {
		return err
	}
	defaults := seed.OrderDefaults{Rounds: cfg.Rounds, Style: style}

	var pub *broadcast.RedisPublisher
	if cfg.RedisURL != "" {
		pub, err = broadcast.NewRedisPublisher(cfg.RedisURL, cfg.RedisChannel, logger.Named("redis"))
		if err != nil {
			return err
		}
		defer pub.Close()
		if err := pub.Ping(ctx); err != nil {
			return err
		}
		logger.Info("mirroring draft events to redis", zap.String("channel", cfg.RedisChannel))
	}

	holder := &lobby.Holder{}
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Source:   holder,
			Resolver: session.NewTokenResolver(cfg.SessionSecret),
			WS: ws.Options{
				HydrationAttempts: cfg.HydrationAttempts,
				HydrationInterval: cfg.HydrationInterval,
				Lookahead:         cfg.Lookahead,
			},
			Logger: logger.Named("http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		lb, err := loadLobby(gctx, cfg, defaults, pub, logger)
		if err != nil {
			return err
		}
		holder.Set(lb)
		return nil
	})
	if pub != nil {
		g.Go(func() error {
			pub.Run(gctx)
			return nil
		})
	}

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

func loadLobby(ctx context.Context, cfg config.Config, defaults seed.OrderDefaults, pub *broadcast.RedisPublisher, logger *zap.Logger) (*lobby.Lobby, error) {
	var src seed.Source
	switch cfg.SeedSource {
	case "postgres":
		pg, err := seed.OpenPostgres(cfg.DatabaseURL, defaults, logger.Named("seed"))
		if err != nil {
			return nil, err
		}
		defer pg.Close()
		src = pg
	default:
		src = seed.FileSource{Path: cfg.SeedFile, Defaults: defaults}
	}

	start := time.Now()
	s, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	d, err := s.Draft(engine.WithLookahead(cfg.Lookahead), engine.WithPaused(cfg.StartPaused))
	if err != nil {
		return nil, fmt.Errorf("build draft: %w", err)
	}
	logger.Info("draft loaded",
		zap.String("source", cfg.SeedSource),
		zap.Int("items", len(s.Items)),
		zap.Int("participants", len(s.Participants)),
		zap.Int("turns", len(s.Order)),
		zap.Duration("elapsed", time.Since(start)))

	opts := []lobby.Option{lobby.WithLogger(logger.Named("lobby"))}
	if pub != nil {
		opts = append(opts, lobby.WithPublisher(pub))
	}
	return lobby.NewLobby(ctx, d, opts...), nil
}
