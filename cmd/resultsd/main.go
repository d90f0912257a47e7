// Command resultsd serves the Nuke War results API over a SQLite database.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nukewar/internal/app/results"
	"nukewar/internal/httpapi"
	"nukewar/internal/identity"
	"nukewar/internal/neynar"
	"nukewar/internal/ports"
	"nukewar/internal/store"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func main() {
	// .env is optional; real env vars take precedence.
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if lvl, err := logrus.ParseLevel(envOr("RESULTS_LOG_LEVEL", "info")); err == nil {
		log.SetLevel(lvl)
	}

	dbPath := envOr("RESULTS_DB_PATH", "nukewar.db")
	addr := envOr("RESULTS_ADDR", ":8080")

	db, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.WithError(err).Fatal("migrate database")
	}

	verifier := identity.NewVerifier(os.Getenv("RESULTS_JWT_SECRET"))
	if !verifier.Enabled() {
		log.Warn("RESULTS_JWT_SECRET not set; game results are accepted without a host token")
	}

	var names ports.UsernameResolver
	if key := os.Getenv("NEYNAR_API_KEY"); strings.TrimSpace(key) != "" {
		names = neynar.NewClient(neynar.Config{APIKey: key, BaseURL: os.Getenv("NEYNAR_BASE_URL")})
	} else {
		log.Info("NEYNAR_API_KEY not set; leaderboard rows use fid labels")
	}

	rl := httpapi.NewLogger(log)
	srv := httpapi.NewServer(
		results.NewRecorder(db, rl),
		results.NewBoard(db, names, rl),
		verifier,
		db,
		log,
	)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "db": dbPath}).Info("resultsd listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
