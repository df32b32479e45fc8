package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivyforms/ivyforms/internal/auth"
	"github.com/ivyforms/ivyforms/internal/config"
	"github.com/ivyforms/ivyforms/internal/crypto"
	"github.com/ivyforms/ivyforms/internal/mailer"
	"github.com/ivyforms/ivyforms/internal/store"
	"github.com/ivyforms/ivyforms/internal/submission"
)

// Version is stamped at build time with -ldflags "-X".
var Version = "dev"

type App struct {
	config *config.Config
	logger *slog.Logger
	db     *store.DB

	formStore         *store.FormStore
	notificationStore *store.NotificationStore
	confirmationStore *store.ConfirmationStore
	entryStore        *store.EntryStore
	pageStore         *store.PageStore
	settingsStore     *store.SettingsStore
	userStore         *store.UserStore
	sessionStore      *store.SessionStore

	nonces      *auth.Nonces
	mailer      *mailer.Mailer
	submissions *submission.Service
	rateLimit   int
}

func (app *App) Close() {
	app.db.Close()
}

// New opens and migrates the database, seeds the first admin and the
// starter form, and wires the stores into the submission service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := newLogger(cfg)

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	crypter, err := crypto.New(cfg.SettingsEncryptionKey)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("settings cipher: %w", err)
	}

	app := &App{
		config:            cfg,
		logger:            logger,
		db:                db,
		formStore:         store.NewFormStore(db),
		notificationStore: store.NewNotificationStore(db),
		confirmationStore: store.NewConfirmationStore(db),
		entryStore:        store.NewEntryStore(db),
		pageStore:         store.NewPageStore(db),
		settingsStore:     store.NewSettingsStore(db, crypter, cfg.DefaultSettings()),
		userStore:         store.NewUserStore(db),
		sessionStore:      store.NewSessionStore(db),
		nonces:            auth.NewNonces(cfg.NonceSecret, 0),
	}

	auth.SeedFirstAdmin(ctx, app.userStore, auth.SeedAdmin{
		Username: cfg.SeedAdminUsername,
		Email:    cfg.SeedAdminEmail,
		Password: cfg.SeedAdminPassword,
	})
	if err := app.formStore.SeedDefault(ctx, cfg.AdminEmail); err != nil {
		logger.Warn("default form seed failed", "err", err)
	}
	if n, err := app.sessionStore.DeleteExpired(ctx); err != nil {
		logger.Warn("expired session cleanup failed", "err", err)
	} else if n > 0 {
		logger.Info("removed expired sessions", "count", n)
	}

	settings, err := app.settingsStore.Load(ctx)
	if err != nil {
		logger.Error("settings unavailable, using config defaults", "err", err)
		d := cfg.DefaultSettings()
		settings = &d
	}
	app.mailer = mailer.New(mailer.NewConfigFromSettings(settings))
	app.rateLimit = settings.SubmissionRateLimit

	app.submissions = &submission.Service{
		Forms:         app.formStore,
		Notifications: app.notificationStore,
		Confirmations: app.confirmationStore,
		Entries:       app.entryStore,
		Settings:      app.settingsStore,
		Pages:         app.pageStore,
		Nonces:        app.nonces,
		Mailer:        app.mailer,
		Logger:        logger,
	}

	return app, nil
}

func (app *App) Start(ctx context.Context) error {
	// Create an errgroup derived from the parent context
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", app.config.Port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env, "version", Version, "dialect", app.db.Dialect())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done() // Wait for OS signal or a failed listener

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	app.logger.Info("stopped server")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logLevel := slog.LevelInfo

	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}

	var h slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(h)

	slog.SetDefault(logger)
	return logger
}

