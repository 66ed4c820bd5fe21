// Package server is the composition root: it builds the store, services,
// handlers and router from the configuration and runs the HTTP server.
//
// ROUTES (all API routes under server.api_prefix, default /openart/api):
//
//	GET  /healthz                      store health
//	GET  /metrics                      Prometheus
//	GET  /static/*                     local assets (assets.driver=local)
//	     /users/...                    register, login, refresh (public); account (guarded)
//	     /profile/...                  profile views
//	     /artworks|artblogs|announcements/...
//	     /follows|likes|comments/...
//	     /saved_artworks|saved_artblogs|saved_announcements/...
//
// MIDDLEWARE ORDER:
// RequestID, RealIP, Logger, Metrics, Recoverer, CORS. Recoverer sits inside
// Logger so a panic is still logged as a 500.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/sakif/openart/internal/assets"
	"github.com/sakif/openart/internal/auth"
	"github.com/sakif/openart/internal/config"
	"github.com/sakif/openart/internal/handler"
	"github.com/sakif/openart/internal/middleware"
	"github.com/sakif/openart/internal/model"
	sqliteRepo "github.com/sakif/openart/internal/repository/sqlite"
	"github.com/sakif/openart/internal/service"
)

// Server owns the database and the asset store for its lifetime and closes
// the database on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	jobs   *cron.Cron
}

// Deps are the external resources a Server is built on. Tests pass an
// in-memory database and a fake asset store.
type Deps struct {
	DB     *sqliteRepo.DB
	Assets assets.Store
}

// New opens the database and the asset store named by cfg and builds the
// server on them.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.Database.Path != ":memory:" {
		dir := filepath.Dir(cfg.Database.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store, err := newAssetStore(ctx, cfg.Assets)
	if err != nil {
		db.Close()
		return nil, err
	}

	s, err := NewWithDeps(cfg, logger, Deps{DB: db, Assets: store})
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newAssetStore(ctx context.Context, cfg config.AssetsConfig) (assets.Store, error) {
	switch cfg.Driver {
	case "s3":
		store, err := assets.NewS3Store(ctx, assets.S3Config{
			Bucket:        cfg.Bucket,
			Region:        cfg.Region,
			Endpoint:      cfg.Endpoint,
			AccessKey:     cfg.AccessKey,
			SecretKey:     cfg.SecretKey,
			UsePathStyle:  cfg.UsePathStyle,
			PublicBaseURL: cfg.PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("creating s3 asset store: %w", err)
		}
		return store, nil
	default:
		store, err := assets.NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("creating local asset store: %w", err)
		}
		return store, nil
	}
}

// NewWithDeps wires every layer on top of deps.
func NewWithDeps(cfg *config.Config, logger *slog.Logger, deps Deps) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     deps.DB,
	}
	if err := s.setupRoutes(deps.Assets); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(store assets.Store) error {
	cfg := s.config

	access, err := auth.NewTokenService(cfg.Auth.AccessTokenSecret, cfg.Auth.AccessTokenExpiry, auth.AudienceAccess)
	if err != nil {
		return fmt.Errorf("access tokens: %w", err)
	}
	refresh, err := auth.NewTokenService(cfg.Auth.RefreshTokenSecret, cfg.Auth.RefreshTokenExpiry, auth.AudienceRefresh)
	if err != nil {
		return fmt.Errorf("refresh tokens: %w", err)
	}
	passwords, err := auth.NewPasswordService(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("passwords: %w", err)
	}

	// === DEPENDENCY GRAPH ===
	db := s.db
	relay := assets.NewRelay(store, assets.RelayConfig{Timeout: cfg.Assets.Timeout}, s.logger)
	views := service.NewViewAssembler(db.Views(), db.Contents())

	authService := service.NewAuthService(db.Users(), db.Sessions(), access, refresh, passwords, s.logger)
	accountService := service.NewAccountService(db.Users(), db.Contents(), passwords, relay, views, s.logger)
	contentService := service.NewContentService(db.Users(), db.Contents(), relay, views, s.logger)
	saveService := service.NewSaveService(db.Saves(), db.Contents(), views)

	limits := handler.Limits{MaxBodyBytes: cfg.Server.MaxBodyBytes, MaxUploadBytes: cfg.Server.MaxUploadBytes}
	cookies := auth.CookieConfig{Domain: cfg.Auth.CookieDomain, Secure: cfg.Auth.CookieSecure}

	accounts := handler.NewAccountHandler(accountService, authService, saveService, cookies, limits, s.logger)
	social := handler.NewSocialHandler(
		service.NewCommentService(db.Comments(), db.Contents(), views, s.logger),
		service.NewLikeService(db.Likes(), db.Contents(), views),
		service.NewFollowService(db.Follows(), db.Users(), views, s.logger),
		saveService,
		limits,
	)

	jobs, err := newScheduler(cfg.Jobs.SessionPurgeSchedule, authService, s.logger)
	if err != nil {
		return err
	}
	s.jobs = jobs

	// === GLOBAL MIDDLEWARE ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Server.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.NotFound(handler.NotFound)
	s.router.MethodNotAllowed(handler.MethodNotAllowed)

	// === OPERATIONAL ===
	s.router.Get("/healthz", handler.Health(db))
	s.router.Handle("/metrics", promhttp.Handler())

	if local, ok := store.(*assets.LocalStore); ok {
		fileServer := http.FileServer(http.Dir(local.Dir()))
		s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	// === API ===
	guard := auth.RequireAuth(access, db.Users(), handler.WriteError)

	s.router.Route(cfg.Server.APIPrefix, func(api chi.Router) {
		api.Route("/users", func(r chi.Router) {
			r.Post("/register", accounts.Register)
			r.Post("/login", accounts.Login)
			r.Post("/refresh-access-token", accounts.RefreshAccessToken)

			r.Group(func(r chi.Router) {
				r.Use(guard)
				r.Post("/logout", accounts.Logout)
				r.Patch("/update_account_details", accounts.UpdateDetails)
				r.Patch("/update_avatar", accounts.UpdateAvatar)
				r.Patch("/update_coverimage", accounts.UpdateCoverImage)
				r.Patch("/change-password", accounts.ChangePassword)
				r.Patch("/change-account-type", accounts.ChangeAccountType)
				r.Patch("/update-content-choice", accounts.UpdateContentChoice)
				r.Delete("/delete-account", accounts.DeleteAccount)
				r.Get("/get-account-details", accounts.AccountDetails)
				for _, kind := range model.ContentKinds {
					r.Get("/get-saved-"+string(kind)+"s", accounts.SavedItems(kind))
				}
			})
		})

		api.Group(func(r chi.Router) {
			r.Use(guard)

			r.Get("/profile/get_profile_details/{profileId}", accounts.ProfileDetails)

			for _, kind := range model.ContentKinds {
				r.Route("/"+string(kind)+"s", handler.NewContentHandler(kind, contentService, limits, s.logger).Routes)
				r.Route("/saved_"+string(kind)+"s", social.SaveRoutes(kind))
			}

			r.Route("/follows", social.FollowRoutes)
			r.Route("/likes", social.LikeRoutes)
			r.Route("/comments", social.CommentRoutes)
		})
	})

	return nil
}

// Start runs the server and the background jobs until SIGINT or SIGTERM,
// then drains in-flight requests for up to 30 seconds and closes the
// database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	s.jobs.Start()
	defer func() { <-s.jobs.Stop().Done() }()

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("api_prefix", s.config.Server.APIPrefix),
			slog.String("database", s.config.Database.Path),
			slog.String("assets", s.config.Assets.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
