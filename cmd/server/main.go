package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/achievement-board/internal/achievements"
	"github.com/gdg-garage/achievement-board/internal/async"
	"github.com/gdg-garage/achievement-board/internal/auth"
	"github.com/gdg-garage/achievement-board/internal/config"
	"github.com/gdg-garage/achievement-board/internal/database"
	"github.com/gdg-garage/achievement-board/internal/handlers"
	"github.com/gdg-garage/achievement-board/internal/logging"
	"github.com/gdg-garage/achievement-board/internal/markdown"
	"github.com/gdg-garage/achievement-board/internal/metrics"
	"github.com/gdg-garage/achievement-board/internal/notifier"
	"github.com/gdg-garage/achievement-board/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func main() {
	// Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// Connect to Database
	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	m := metrics.New()

	covers, err := storage.NewCoverStore(afero.NewOsFs(), cfg.UploadDir)
	if err != nil {
		return err
	}

	dispatcher := async.NewDispatcher(logger)
	opts := []achievements.Option{
		achievements.WithLogger(logger),
		achievements.WithMetrics(m),
		achievements.WithDispatcher(dispatcher),
		achievements.WithCovers(covers),
		achievements.WithRenderer(markdown.New()),
	}

	// Initialize side effects
	if cfg.MailEnabled() {
		mailer, err := notifier.NewMailer(notifier.MailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			BaseURL:  cfg.BaseURL,
		})
		if err != nil {
			return err
		}
		opts = append(opts, achievements.WithNotifier(mailer))
	} else {
		logger.Info("SMTP_HOST not set, owner notifications disabled")
	}

	poster, err := newPoster(cfg)
	if err != nil {
		return err
	}
	if poster != nil {
		opts = append(opts, achievements.WithPoster(poster))
	}

	svc := achievements.NewService(db, opts...)

	// Initialize Handlers
	authHandler := auth.NewAuthHandler(cfg, db, logger)

	r := chi.NewRouter()
	handlers.RegisterRoutes(r, handlers.Router{
		Auth:           authHandler,
		Achievements:   handlers.NewAchievementHandler(svc, logger),
		API:            handlers.NewAPIHandler(svc),
		Metrics:        m,
		Covers:         covers.Handler(),
		Logger:         logger,
		CSRFKey:        []byte(cfg.CSRFKey),
		SecureCookies:  cfg.SecureCookies,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Let pending notifications finish.
	svc.Wait()
	return nil
}

func newPoster(cfg *config.Config) (achievements.Poster, error) {
	switch cfg.SocialProvider {
	case "discord":
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			return nil, err
		}
		return notifier.NewDiscordPoster(session, cfg.DiscordGuildID, cfg.DiscordAnnounceChannelID, cfg.BaseURL), nil
	case "slack":
		return notifier.NewSlackPoster(cfg.SlackBotToken, cfg.SlackChannelID, cfg.BaseURL)
	}
	return nil, nil
}
