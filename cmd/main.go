// cmd/main.go is the web client entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/backend"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/config"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/database"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/handler"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/logging"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/repository"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/storage"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/telemetry"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetry")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("flush traces")
		}
	}()

	// ── 1. Session storage ───────────────────────────────────────────────
	var sessions handler.SessionProvider
	switch strings.ToLower(cfg.SessionStore) {
	case "memory":
		sessions = storage.NewMemory()
		log.Warn().Msg("browser sessions are kept in memory and lost on restart")
	default:
		pool, err := database.NewPool(ctx, cfg.Database, logging.Component(log, "database"))
		if err != nil {
			log.Fatal().Err(err).Msg("database")
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
		log.Info().Str("host", cfg.Database.Host).Msg("connected to PostgreSQL")

		repo := repository.NewClientStateRepository(pool)
		go pruneSessions(ctx, repo, cfg.SessionPrune, logging.Component(log, "prune"))
		sessions = repo
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	api := backend.New(cfg.APIBaseURL,
		backend.WithTimeout(cfg.APITimeout),
		backend.WithLogger(logging.Component(log, "backend")),
	)
	h, err := handler.New(handler.Options{
		API:           func(token string) handler.API { return api.WithToken(token) },
		Sessions:      sessions,
		Validator:     validation.New(),
		Logger:        logging.Component(log, "http"),
		SecureCookies: cfg.SecureCookies,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("handler")
	}
	protect := handler.CSRF(csrfKey(cfg.CSRFKey, log), cfg.SecureCookies, log)

	// ── 3. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      protect(h.Routes()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", "http://localhost:"+cfg.Port).Str("api", cfg.APIBaseURL).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("server stopped")
}

// pruneSessions deletes browser sessions idle for longer than the cookie lifetime.
func pruneSessions(ctx context.Context, repo *repository.ClientStateRepository, every time.Duration, log zerolog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.Prune(ctx, time.Now().Add(-handler.SessionLifetime))
			if err != nil {
				log.Warn().Err(err).Msg("prune sessions")
				continue
			}
			if n > 0 {
				log.Info().Int64("removed", n).Msg("pruned idle sessions")
			}
		}
	}
}

// csrfKey derives the 32-byte CSRF authentication key. A 64-character hex
// secret is used as is; any other secret is hashed. Without a secret a random
// key is generated and forms stop validating after a restart.
func csrfKey(secret string, log zerolog.Logger) []byte {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			log.Fatal().Err(err).Msg("generate csrf key")
		}
		log.Warn().Msg("EVENTSYNC_CSRF_KEY is not set, using a random key")
		return key
	}
	if key, err := hex.DecodeString(secret); err == nil && len(key) == 32 {
		return key
	}
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}
