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
	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/handlers"
	"agent-suite/internal/infra/llm"
	"agent-suite/internal/infra/logger"
	"agent-suite/internal/infra/memory"
	"agent-suite/internal/infra/registry"
	"agent-suite/internal/infra/routes"
	"agent-suite/internal/infra/services"
	"agent-suite/internal/infra/telephony"
	"agent-suite/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
)

func main() {
	config.LoadEnv()

	ctx := context.Background()
	log := logger.NewLogger(ctx, true)

	var callRegistry registry.CallRegistry
	if redisURL := config.GetEnvDefault("REDIS_URL", ""); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatal(fmt.Sprintf("Invalid REDIS_URL: %v", err))
		}
		callRegistry = registry.NewRedisRegistry(redis.NewClient(opts), log)
		log.Info("Call registry backed by Redis")
	} else {
		callRegistry = registry.NewMemoryRegistry()
		log.Info("Call registry backed by process memory")
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	memoryClient := memory.NewClient(
		config.GetEnvDefault("MEMORYSTACK_URL", "https://memorystack.app/api/v1"),
		config.GetEnv("MEMORYSTACK_API_KEY"),
		"voice-support-agent",
		httpClient,
		log,
	)

	model, err := llm.NewModel()
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to initialize LLM: %v", err))
	}

	appURL := config.GetEnvDefault("APP_URL", "http://localhost:3000")
	assistantID := config.GetEnvDefault("VAPI_ASSISTANT_ID", "")

	var voiceProvider Iservices.IVoiceProvider = telephony.NewVapiClient(
		config.GetEnvDefault("VAPI_BASE_URL", "https://api.vapi.ai"),
		config.GetEnv("VAPI_API_KEY"),
		assistantID,
		config.GetEnvDefault("VAPI_PHONE_NUMBER_ID", ""),
		appURL,
		httpClient,
		log,
	)

	twilioClient := telephony.NewTwilioClient(
		config.GetEnvDefault("TWILIO_BASE_URL", "https://api.twilio.com"),
		config.GetEnvDefault("TWILIO_ACCOUNT_SID", ""),
		config.GetEnvDefault("TWILIO_AUTH_TOKEN", ""),
		config.GetEnvDefault("TWILIO_PHONE_NUMBER", ""),
		httpClient,
		log,
	)

	callService := services.NewCallService(callRegistry, memoryClient, log, assistantID)
	conversationService := services.NewConversationService(model, memoryClient, log)

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.RecoveryMiddleware(log))

	voiceHandlers := handlers.NewVoiceHandlers(log, callService, callRegistry, memoryClient, voiceProvider)
	twilioHandlers := handlers.NewTwilioHandlers(log, callService, conversationService, callRegistry, memoryClient, twilioClient, appURL)
	mediaStreamHandler := handlers.NewMediaStreamHandler(log, callRegistry, memoryClient)

	routes.NewVoiceRoutes(router, voiceHandlers, twilioHandlers, mediaStreamHandler).Init()

	port := config.GetEnvDefault("PORT", "8080")
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	go func() {
		log.Info(fmt.Sprintf("Voice agent is running on port %s", port))
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
