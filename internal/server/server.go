// Package server is the composition root: it builds every dependency from
// the Config, wires handlers to routes and runs the HTTP server.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config
//	  → record store   (sqlite.DB or dynamo.Store)
//	  → image store    (upload.DiskStore or upload.S3Store) → upload.Uploader
//	  → notifier       (notify.Notifier over SNS, or disabled)
//	  → token issuer   (auth.TokenService or auth.MockIssuer)
//	  → services       (service.MemeService, service.AuthService)
//	  → handlers       (handler.MemeHandler, handler.AuthHandler, handler.AdminHandler)
//
// Nothing below this package knows which backend it was given.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/meme-museum/internal/auth"
	"github.com/sakif/meme-museum/internal/config"
	"github.com/sakif/meme-museum/internal/handler"
	"github.com/sakif/meme-museum/internal/middleware"
	"github.com/sakif/meme-museum/internal/notify"
	"github.com/sakif/meme-museum/internal/repository"
	"github.com/sakif/meme-museum/internal/repository/dynamo"
	sqliteRepo "github.com/sakif/meme-museum/internal/repository/sqlite"
	"github.com/sakif/meme-museum/internal/service"
	"github.com/sakif/meme-museum/internal/upload"
)

// Seams for tests; production code uses the SDK constructors.
var (
	loadAWSConfig = awsconfig.LoadDefaultConfig
	newSNSClient  = func(cfg aws.Config) notify.Publisher { return sns.NewFromConfig(cfg) }
)

const shutdownTimeout = 30 * time.Second

// stores groups the record store behind its three roles.
type stores struct {
	memes  repository.MemeRepository
	users  repository.UserRepository
	health handler.Pinger
	closer io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

// New builds the full dependency graph. AWS configuration is only loaded
// when some component needs it: the DynamoDB backend, the S3 image store
// or SNS notifications.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.AdminRequireAuth && cfg.JWTSecret == "" {
		return nil, errors.New("server: ADMIN_REQUIRE_AUTH needs JWT_SECRET")
	}

	var awsCfg *aws.Config
	if cfg.StoreBackend == config.BackendDynamoDB || cfg.S3Bucket != "" || cfg.SNSTopicARN != "" {
		c, err := loadAWSConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("server: loading AWS config: %w", err)
		}
		awsCfg = &c
	}

	st, err := openStores(ctx, cfg, awsCfg, logger)
	if err != nil {
		return nil, err
	}

	images, err := openImageStore(cfg, awsCfg, logger)
	if err != nil {
		st.closer.Close()
		return nil, err
	}
	uploader := upload.NewUploader(images, cfg.MaxUploadBytes, logger)

	var publisher notify.Publisher
	if awsCfg != nil && cfg.SNSTopicARN != "" {
		publisher = newSNSClient(*awsCfg)
	}
	notifier := notify.New(publisher, cfg.SNSTopicARN, logger)

	var (
		issuer auth.Issuer = auth.NewMockIssuer()
		tokens *auth.TokenService
	)
	if cfg.JWTSecret != "" {
		tokens, err = auth.NewTokenService(cfg.JWTSecret)
		if err != nil {
			st.closer.Close()
			return nil, fmt.Errorf("server: %w", err)
		}
		issuer = tokens
	} else {
		logger.Warn("JWT_SECRET not set, issuing mock tokens")
	}

	memes := service.NewMemeService(st.memes, uploader, notifier, cfg.LikeMilestones, logger)
	users := service.NewAuthService(st.users, issuer, logger)

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		closer: st.closer,
	}
	s.routes(
		handler.NewMemeHandler(memes, uploader, logger),
		handler.NewAuthHandler(users, logger),
		handler.NewAdminHandler(memes, logger),
		st.health,
		tokens,
	)
	return s, nil
}

func openStores(ctx context.Context, cfg *config.Config, awsCfg *aws.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		store := dynamo.New(dynamodb.NewFromConfig(*awsCfg), cfg.MemesTable, cfg.UsersTable, logger)
		logger.Info("using DynamoDB store",
			slog.String("region", cfg.AWSRegion),
			slog.String("memes_table", cfg.MemesTable),
			slog.String("users_table", cfg.UsersTable),
		)
		return &stores{memes: store, users: store, health: store, closer: closerFunc(func() error { return nil })}, nil

	default:
		db, err := sqliteRepo.New(ctx, cfg.DBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("server: opening database: %w", err)
		}
		logger.Info("using SQLite store", slog.String("path", cfg.DBPath))
		return &stores{memes: db, users: db, health: db, closer: db}, nil
	}
}

func openImageStore(cfg *config.Config, awsCfg *aws.Config, logger *slog.Logger) (upload.Store, error) {
	if cfg.S3Bucket == "" {
		disk, err := upload.NewDiskStore(cfg.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("server: preparing upload dir: %w", err)
		}
		return disk, nil
	}

	client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
		if cfg.S3AccessKey != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")
		}
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Info("using S3 image store", slog.String("bucket", cfg.S3Bucket), slog.String("prefix", cfg.S3Prefix))
	return upload.NewS3Store(client, cfg.S3Bucket, cfg.S3Prefix, logger), nil
}

// routes registers middleware and handlers.
//
// ROUTE STRUCTURE:
//
//	POST /auth/signup          → sign up (JSON)
//	POST /auth/login           → log in (JSON)
//	POST /memes/upload         → create a meme (multipart)
//	PUT  /memes/update/{id}    → patch a meme (multipart)
//	GET  /memes/gallery        → all memes, newest first
//	GET  /memes/trending       → all memes, most liked first
//	GET  /memes/featured       → featured memes
//	GET  /memes/{id}           → one meme
//	POST /memes/{id}/like      → like a meme
//	POST /admin/feature        → feature a meme (optionally bearer-gated)
//	GET  /uploads/{name}       → image bytes or a redirect to them
//	GET  /healthz              → store reachability
//
// Middleware order: RequestID, RealIP, Logger, Recoverer. Logger sits
// outside Recoverer so recovered panics are still logged as 500s.
func (s *Server) routes(
	memes *handler.MemeHandler,
	users *handler.AuthHandler,
	admin *handler.AdminHandler,
	health handler.Pinger,
	tokens *auth.TokenService,
) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", users.HandleSignup)
		r.Post("/login", users.HandleLogin)
	})

	s.router.Route("/memes", func(r chi.Router) {
		r.Post("/upload", memes.HandleUpload)
		r.Put("/update/{id}", memes.HandleUpdate)
		r.Get("/gallery", memes.HandleGallery)
		r.Get("/trending", memes.HandleTrending)
		r.Get("/featured", memes.HandleFeatured)
		r.Get("/{id}", memes.HandleGet)
		r.Post("/{id}/like", memes.HandleLike)
	})

	s.router.Route("/admin", func(r chi.Router) {
		if s.cfg.AdminRequireAuth {
			r.Use(auth.RequireAuth(tokens, handler.AuthFailure(s.logger)))
		}
		r.Post("/feature", admin.HandleFeature)
	})

	s.router.Get("/uploads/{name}", memes.HandleImage)
	s.router.Get("/healthz", handler.HandleHealth(health, s.logger))
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the record store.
func (s *Server) Close() error {
	return s.closer.Close()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.cfg.Port)),
			slog.String("backend", s.cfg.StoreBackend),
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

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
