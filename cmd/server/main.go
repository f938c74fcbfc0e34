package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/perceptlab/study-engine/internal/api"
	"github.com/perceptlab/study-engine/internal/audit"
	"github.com/perceptlab/study-engine/internal/catalog"
	"github.com/perceptlab/study-engine/internal/config"
	"github.com/perceptlab/study-engine/internal/db"
	"github.com/perceptlab/study-engine/internal/metrics"
	"github.com/perceptlab/study-engine/internal/scanner"
	"github.com/perceptlab/study-engine/internal/shadow"
)

// sessionExclusionTTL bounds how long a served image stays excluded for a
// session before random draws may repeat it.
const sessionExclusionTTL = 24 * time.Hour

// catalogScanTimeout bounds the startup walk of the images directory.
const catalogScanTimeout = 2 * time.Minute

func main() {
	log.Println("Starting Study Engine (image-description research platform core)...")

	// Local development reads a .env file; deployments set the environment
	// directly and the missing file is expected.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	store, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Failed to connect to PostgreSQL: %v", err)
	}
	defer store.Close()

	if err := store.InitSchema(); err != nil {
		log.Fatalf("FATAL: Schema init failed: %v", err)
	}

	// Seed the catalog before serving so the first random draw sees every
	// asset. Not fatal: lazy registration covers anything the scan missed.
	scanCtx, cancelScan := context.WithTimeout(context.Background(), catalogScanTimeout)
	if _, err := scanner.NewCatalogScanner(cfg.ImagesDir, store).Scan(scanCtx); err != nil {
		log.Printf("WARNING: Catalog scan failed: %v", err)
	}
	cancelScan()

	wsHub := api.NewHub(cfg.CORSOrigins, cfg.AllowAllOrigins())
	go wsHub.Run()

	trail := audit.NewRecorder(store)
	trailCtx, stopTrail := context.WithCancel(context.Background())
	trailDone := make(chan struct{})
	go func() {
		trail.Run(trailCtx)
		close(trailDone)
	}()

	var shadowScorer *shadow.Scorer
	if cfg.ShadowScoring {
		shadowScorer = shadow.NewScorer(store, cfg.ShadowSnapshot)
		log.Printf("Shadow scoring enabled (snapshot %d)", cfg.ShadowSnapshot)
	}

	sessions := catalog.NewSessionTracker(sessionExclusionTTL)
	collectors := metrics.New()

	router := api.SetupRouter(store, cfg, wsHub, sessions, collectors, trail, shadowScorer)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Study Engine running on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("Shutdown signal received, draining connections...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}

	// Stop the trail recorder after the last request; Run drains its queues
	// before returning.
	stopTrail()
	<-trailDone

	log.Println("Study Engine stopped")
}
