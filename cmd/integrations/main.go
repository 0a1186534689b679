// Command integrations runs the booking integrations service: the reservation
// API, the WhatsApp webhook, the job worker trigger, and the stale-lock
// reaper.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/trustedge/integrations/config"
	"github.com/trustedge/integrations/internal/adapters/drive"
	"github.com/trustedge/integrations/internal/adapters/resendmail"
	"github.com/trustedge/integrations/internal/adapters/tokencache"
	"github.com/trustedge/integrations/internal/adapters/whatsapp"
	"github.com/trustedge/integrations/internal/adapters/zoom"
	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/data"
	httpx "github.com/trustedge/integrations/internal/http"
	"github.com/trustedge/integrations/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Absent .env files are fine; env vars win either way.
	_ = godotenv.Load()

	ctx := context.Background()
	logger := initLogger()
	slog.SetDefault(logger)

	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1)
	}
}

func initLogger() *slog.Logger {
	if os.Getenv("DEV") == "true" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting integrations service",
		"addr", cfg.HTTP.Addr,
		"db_host", cfg.Postgres.Host,
		"reaper_enabled", cfg.Reaper.Enabled,
	)

	db, err := data.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()

	if cfg.Postgres.RunMigrationsOnStart {
		if err := data.RunMigrations(ctx, db); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	var redisClient *redis.Client
	if cfg.Cache.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	server, reaper, err := buildServices(ctx, cfg, db, redisClient, logger)
	if err != nil {
		return err
	}

	return serve(ctx, cfg, server, reaper, logger)
}

func buildServices(
	ctx context.Context,
	cfg *config.AppConfig,
	db *sql.DB,
	redisClient *redis.Client,
	logger *slog.Logger,
) (*httpx.Server, *service.ReaperService, error) {
	repoCfg := data.RepoConfig{Logger: logger}
	jobRepo := data.NewJobRepo(db, repoCfg)
	bookingRepo := data.NewBookingRepo(db, repoCfg)
	meetingRepo := data.NewMeetingRepo(db, repoCfg)
	folderRepo := data.NewFolderRepo(db, repoCfg)
	documentRepo := data.NewDocumentRepo(db, repoCfg)
	clientRepo := data.NewClientRepo(db, repoCfg)
	leadEventRepo := data.NewLeadEventRepo(db, repoCfg)

	tokens, err := buildTokenCache(cfg, redisClient)
	if err != nil {
		return nil, nil, err
	}

	zoomClient, err := zoom.NewClient(zoom.Config{Zoom: cfg.Zoom, TokenCache: tokens})
	if err != nil {
		return nil, nil, err
	}
	driveClient, err := drive.NewClient(ctx, cfg.Drive)
	if err != nil {
		return nil, nil, err
	}
	waClient := whatsapp.NewClient(whatsapp.Config{WhatsApp: cfg.WhatsApp})
	mailClient := resendmail.NewClient(resendmail.Config{Email: cfg.Email})

	jobs, err := service.NewJobService(service.JobServiceOptions{Repo: jobRepo, Logger: logger})
	if err != nil {
		return nil, nil, err
	}

	handlers, err := service.NewHandlers(service.HandlersOptions{
		Jobs:       jobs,
		Bookings:   bookingRepo,
		Meetings:   meetingRepo,
		Folders:    folderRepo,
		Documents:  documentRepo,
		Clients:    clientRepo,
		LeadEvents: leadEventRepo,
		Meeting:    zoomClient,
		Storage:    driveClient,
		Messaging:  waClient,
		Email:      mailClient,
		Drive:      cfg.Drive,
		EmailCfg:   cfg.Email,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}

	dispatcher := service.NewDispatcher()
	handlers.Register(dispatcher)

	worker, err := service.NewWorkerService(service.WorkerServiceOptions{
		Repo:       jobRepo,
		Dispatcher: dispatcher,
		LeadEvents: leadEventRepo,
		Config:     cfg.Worker,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}

	server, err := httpx.NewServer(httpx.ServerOptions{
		Jobs:     jobs,
		Worker:   worker,
		Bookings: bookingRepo,
		HTTP:     cfg.HTTP,
		WhatsApp: cfg.WhatsApp,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}

	var reaper *service.ReaperService
	if cfg.Reaper.Enabled {
		reaper, err = service.NewReaperService(service.ReaperServiceOptions{
			Repo:   jobRepo,
			Config: cfg.Reaper,
			Logger: logger,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	return server, reaper, nil
}

func buildTokenCache(cfg *config.AppConfig, redisClient *redis.Client) (core.TokenCache, error) {
	if redisClient == nil {
		return tokencache.NewMemoryCache(nil), nil
	}
	return tokencache.NewRedisCache(tokencache.RedisCacheOptions{
		Client: redisClient,
		MaxTTL: cfg.Cache.MaxTTL,
	})
}

func serve(
	ctx context.Context,
	cfg *config.AppConfig,
	server *httpx.Server,
	reaper *service.ReaperService,
	logger *slog.Logger,
) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(gctx, "http server listening", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if reaper != nil {
		g.Go(func() error {
			return reaper.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.InfoContext(ctx, "shutdown complete")
	return nil
}
