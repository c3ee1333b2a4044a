package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/finatracker/finatracker/internal/api/handlers"
	"github.com/finatracker/finatracker/internal/api/middleware"
	"github.com/finatracker/finatracker/internal/config"
	"github.com/finatracker/finatracker/internal/extract"
	"github.com/finatracker/finatracker/internal/filestore"
	"github.com/finatracker/finatracker/internal/logger"
	"github.com/finatracker/finatracker/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info")
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(cfg.LogLevel)
	ctx := context.Background()

	// Persistence is optional; without it extracted transactions are only
	// returned to the caller.
	var store handlers.TransactionStore
	var repo *repository.Repository
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("No DATABASE_URL configured - transaction persistence will be disabled")
	} else {
		repo, err = repository.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer repo.Close()
		store = repo
	}

	files, err := filestore.New(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create upload directory")
	}

	gen, err := extract.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	extractor := extract.NewService(
		extract.NewCSVExtractor(),
		extract.NewDocumentExtractor(log),
		extract.NewModelParser(gen, log),
		log,
	)

	uploadHandler := handlers.NewUploadHandler(extractor, files, store, log)
	transactionsHandler := handlers.NewTransactionsHandler(store, log)
	reportsHandler := handlers.NewReportsHandler(log)

	router := mux.NewRouter()
	router.HandleFunc("/upload", uploadHandler.Upload).Methods(http.MethodPost)
	router.HandleFunc("/api/transactions", transactionsHandler.List).Methods(http.MethodGet)
	router.HandleFunc("/api/reports/export", reportsHandler.Export).Methods(http.MethodPost)
	router.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(router),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
