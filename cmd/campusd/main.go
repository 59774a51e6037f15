package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/config"
	httptransport "github.com/example/campus-scheduler/internal/http"
	"github.com/example/campus-scheduler/internal/logging"
	"github.com/example/campus-scheduler/internal/persistence/sqlite"
	"github.com/example/campus-scheduler/internal/recurrence"
)

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	userRepo := newUserRepositoryAdapter(sqlite.NewUserRepository(storage))
	venueRepo := newVenueRepositoryAdapter(sqlite.NewVenueRepository(storage))
	termRepo := newTermRepositoryAdapter(sqlite.NewTermRepository(storage))
	meetingRepo := newMeetingRepositoryAdapter(sqlite.NewMeetingRepository(storage))
	sessionRepo := newSessionRepositoryAdapter(sqlite.NewSessionRepository(storage))

	engine := recurrence.NewEngine(cfg.MaxOccurrences)

	userService := application.NewUserService(userRepo, idGenerator, now, logger)
	venueService := application.NewVenueService(venueRepo, idGenerator, now, logger)
	termService := application.NewTermService(termRepo, idGenerator, now, logger)
	meetingService := application.NewMeetingService(meetingRepo, userRepo, venueRepo, termRepo, engine, idGenerator, now, logger)
	authService := application.NewAuthService(userRepo, sessionRepo, nil, tokenGenerator, now, cfg.SessionTTL, logger)

	if cfg.BootstrapAdminEmail != "" {
		if err := userService.EnsureAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
			logger.Error("failed to bootstrap admin account", "error", err)
			os.Exit(1)
		}
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     httptransport.NewAuthHandler(authService, logger),
		Users:    httptransport.NewUserHandler(userService, logger),
		Venues:   httptransport.NewVenueHandler(venueService, logger),
		Terms:    httptransport.NewTermHandler(termService, logger),
		Meetings: httptransport.NewMeetingHandler(meetingService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireSession(authService, logger),
		},
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("campus scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// randomHex returns n bytes of cryptographic randomness hex encoded. A
// token must never come from anything weaker, so an entropy failure is
// fatal.
func randomHex(n int) string {
	if n <= 0 {
		n = 16
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return hex.EncodeToString(buf)
}
