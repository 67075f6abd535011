package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mediscan/mediscan-api/config"
	"github.com/mediscan/mediscan-api/data"
	"github.com/mediscan/mediscan-api/drapparser"
	"github.com/mediscan/mediscan-api/health"
	"github.com/mediscan/mediscan-api/logging"
	"github.com/mediscan/mediscan-api/openfda"
	"github.com/mediscan/mediscan-api/reports"
	"github.com/mediscan/mediscan-api/resolver"
	"github.com/mediscan/mediscan-api/scheduler"
	"github.com/mediscan/mediscan-api/server"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		logging.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLoggerWithOptions(cfg.LogDir, cfg.LogRetentionWeeks, logging.ParseLevel(cfg.LogLevel))

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	reportStore, err := reports.NewStore(cfg.ReportsDB, dataContainer)
	if err != nil {
		logging.Error("Failed to open report store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := reportStore.Close(); err != nil {
			logging.Warn("Failed to close report store", "error", err)
		}
	}()

	fdaClient := openfda.NewClient(cfg.OpenFDABaseURL)
	engine := resolver.NewEngine(dataContainer, fdaClient, fdaClient)

	// Initial dataset load plus daily refresh. A missing dataset is not
	// fatal: the index stays empty and resolution falls through to openFDA.
	sched := scheduler.NewScheduler(dataContainer, drapparser.NewParser(cfg.DatasetFile, cfg.DatasetURL))
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start dataset scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	checker := health.NewHealthChecker(dataContainer, reportStore)

	srv := server.NewServer(cfg, dataContainer, engine, reportStore, checker)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
	}
}
