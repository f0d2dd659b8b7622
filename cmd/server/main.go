/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the benefits eligibility engine server: catalog
  snapshot, SQLite store, external calculator client, HTTP router, and
  graceful shutdown.

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: benefits.db, ":memory:" works)
  -catalog   Catalog file (.json/.yaml); empty uses the builtin FY2024 seed
  -calc-url  External calculation service base URL; empty runs unverified

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, drain active requests
  (30s timeout), close the database, exit.

EXAMPLES:
  ./server -db=":memory:"
  ./server -catalog=./catalogs/state.yaml -calc-url=https://calc.example.gov
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/civista/benefits-engine/api"
	"github.com/civista/benefits-engine/catalog"
	"github.com/civista/benefits-engine/engine"
	"github.com/civista/benefits-engine/reconcile"
	"github.com/civista/benefits-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "benefits.db", "SQLite database path")
	catalogPath := flag.String("catalog", "", "Catalog file (.json/.yaml); empty uses the builtin FY2024 seed")
	calcURL := flag.String("calc-url", "", "External calculation service base URL")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	snapshot, err := loadCatalog(*catalogPath)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	logger.Info("catalog loaded", zap.String("version", snapshot.Version()))

	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	var external reconcile.ExternalCalculator = unavailableCalculator{}
	if *calcURL != "" {
		external = reconcile.NewClient(*calcURL)
	} else {
		logger.Warn("no external calculator configured, all results will be unverified")
	}

	handler := api.NewHandler(snapshot, external, store, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.Int("port", *port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func loadCatalog(path string) (*catalog.Snapshot, error) {
	if path == "" {
		return catalog.Builtin2024(), nil
	}
	return catalog.LoadFile(path)
}

// unavailableCalculator stands in when no external service is configured;
// the reconciler degrades every result to unverified.
type unavailableCalculator struct{}

func (unavailableCalculator) Calculate(ctx context.Context, h engine.Household, jurisdiction engine.Jurisdiction, program engine.ProgramID, asOf engine.Date) (engine.Result, error) {
	return engine.Result{}, &engine.ExternalServiceError{Endpoint: "(none configured)", Cause: fmt.Errorf("no external calculator configured")}
}
