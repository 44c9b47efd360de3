package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OpenGeoFlow/geoflow/internal/api"
	"github.com/OpenGeoFlow/geoflow/internal/archive"
	"github.com/OpenGeoFlow/geoflow/internal/config"
	"github.com/OpenGeoFlow/geoflow/internal/database"
	"github.com/OpenGeoFlow/geoflow/internal/dispatcher"
	"github.com/OpenGeoFlow/geoflow/internal/job"
	"github.com/OpenGeoFlow/geoflow/internal/runner"
	"github.com/OpenGeoFlow/geoflow/internal/workflow"
	"github.com/OpenGeoFlow/geoflow/internal/workflow/store"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	slog.Info("configuration loaded successfully",
		"db_driver", cfg.Database.Driver,
		"db_host", cfg.Database.Host,
		"db_port", cfg.Database.Port,
		"db_name", cfg.Database.Name,
	)

	slog.Info("workflow configuration",
		"definitions_dir", cfg.Workflow.DefinitionsDir,
		"default_workflow", cfg.Workflow.DefaultWorkflow,
		"poll_interval", cfg.Dispatcher.PollInterval,
		"archive_type", cfg.Archive.Type,
	)

	slog.Info("server configuration",
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Perform health check
	if err := database.HealthCheck(db); err != nil {
		log.Fatalf("database health check failed: %v", err)
	}

	// Initialize the entity store (runs schema migration)
	st, err := store.New(db)
	if err != nil {
		log.Fatalf("failed to initialize store: %v", err)
	}

	// Initialize the report archive (optional)
	driver, err := archive.NewStorageFromConfig(context.Background(), cfg.Archive)
	if err != nil {
		log.Fatalf("failed to initialize report archive: %v", err)
	}
	var archiver workflow.ReportArchiver
	if driver != nil {
		archiver = archive.NewArchiver(driver)
	}

	// Wire the job registry, factory, reconciler, runner and dispatcher
	registry := job.NewRegistry(map[string]job.Job{
		job.TypePolygonArea:      job.NewPolygonAreaJob(),
		job.TypeAnalysis:         job.NewAnalysisJob(),
		job.TypeNotification:     job.NewNotificationJob(),
		job.TypeReportGeneration: job.NewReportJob(st),
	})
	factory := workflow.NewFactory(st, registry)
	reconciler := workflow.NewReconciler(st, archiver)
	taskRunner := runner.New(st, registry, reconciler)

	disp := dispatcher.New(st, taskRunner, cfg.Dispatcher.PollInterval)
	disp.Start(context.Background())

	// Set up HTTP routes
	handler := api.NewHandler(st, factory, cfg.Workflow, db)
	router := api.NewRouter(handler, &cfg.CORS)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		slog.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	// Wait for interrupt signal
	<-quit
	slog.Info("shutting down server...")

	// Create a context with timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown of HTTP server
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	} else {
		slog.Info("server gracefully stopped")
	}

	// Stop the dispatcher loop
	slog.Info("stopping dispatcher...")
	disp.Stop()

	slog.Info("server stopped")
}
