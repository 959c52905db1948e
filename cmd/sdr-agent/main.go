package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"agent-suite/internal/config"
	"agent-suite/internal/domain/entities"
	"agent-suite/internal/infra/handlers"
	"agent-suite/internal/infra/llm"
	"agent-suite/internal/infra/logger"
	"agent-suite/internal/infra/memory"
	"agent-suite/internal/infra/repository"
	"agent-suite/internal/infra/routes"
	"agent-suite/internal/infra/services"
	"agent-suite/internal/middleware"
	client "agent-suite/internal/pkg"

	"github.com/gorilla/mux"
)

func main() {
	config.LoadEnv()

	ctx := context.Background()
	log := logger.NewLogger(ctx, true)

	mongoClient := client.MongoClient()
	sdrDB := mongoClient.Database("SdrAgent")

	leadRepo := repository.NewMongoRepository[entities.Lead](sdrDB)
	interactionRepo := repository.NewMongoRepository[entities.Interaction](sdrDB)

	httpClient := &http.Client{Timeout: 30 * time.Second}

	memoryClient := memory.NewClient(
		config.GetEnvDefault("MEMORYSTACK_URL", "https://memorystack.app/api/v1"),
		config.GetEnv("MEMORYSTACK_API_KEY"),
		"ai_sdr",
		httpClient,
		log,
	)

	model, err := llm.NewModel()
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to initialize LLM: %v", err))
	}

	leadService := services.NewLeadService(
		leadRepo,
		interactionRepo,
		memoryClient,
		model,
		log,
		config.GetEnvDefault("SDR_NAME", "Alex"),
		config.GetEnvDefault("COMPANY_NAME", "Acme Inc"),
	)

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.RecoveryMiddleware(log))

	leadHandlers := handlers.NewLeadHandlers(log, leadService)
	routes.NewSdrRoutes(router, leadHandlers).Init()

	port := config.GetEnvDefault("PORT", "8081")
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	go func() {
		log.Info(fmt.Sprintf("SDR agent is running on port %s", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(fmt.Sprintf("Error running HTTP server: %s", err))
			os.Exit(1)
		}
	}()

	<-stop
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	} else {
		log.Info("Server stopped gracefully.")
	}
}
