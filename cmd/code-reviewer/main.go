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
	"agent-suite/internal/infra/handlers"
	"agent-suite/internal/infra/llm"
	"agent-suite/internal/infra/logger"
	"agent-suite/internal/infra/memory"
	"agent-suite/internal/infra/routes"
	"agent-suite/internal/infra/services"
	"agent-suite/internal/middleware"

	"github.com/gorilla/mux"
)

func main() {
	config.LoadEnv()

	ctx := context.Background()
	log := logger.NewLogger(ctx, true)

	httpClient := &http.Client{Timeout: 30 * time.Second}

	memoryClient := memory.NewClient(
		config.GetEnvDefault("MEMORYSTACK_URL", "https://memorystack.app/api/v1"),
		config.GetEnv("MEMORYSTACK_API_KEY"),
		"ai-code-reviewer",
		httpClient,
		log,
	)

	model, err := llm.NewModel()
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to initialize LLM: %v", err))
	}

	reviewService := services.NewReviewService(memoryClient, model, log)
	githubService := services.NewGitHubService(
		config.GetEnvDefault("GITHUB_RAW_URL", "https://raw.githubusercontent.com"),
		httpClient,
		log,
	)

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.RecoveryMiddleware(log))

	reviewHandlers := handlers.NewReviewHandlers(log, reviewService, githubService)
	routes.NewReviewerRoutes(router, reviewHandlers).Init()

	port := config.GetEnvDefault("PORT", "8082")
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	go func() {
		log.Info(fmt.Sprintf("Code reviewer is running on port %s", port))
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
