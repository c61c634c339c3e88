package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mwhitlock/silvertongue/internal/config"
	"github.com/mwhitlock/silvertongue/internal/game"
	"github.com/mwhitlock/silvertongue/internal/handlers"
	"github.com/mwhitlock/silvertongue/internal/logger"
	"github.com/mwhitlock/silvertongue/internal/middleware"
	"github.com/mwhitlock/silvertongue/internal/services"
	"github.com/mwhitlock/silvertongue/pkg/catalogue"
	"github.com/mwhitlock/silvertongue/pkg/session"
	"github.com/mwhitlock/silvertongue/pkg/textfilter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Silvertongue API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName,
		"stage_time_limit", cfg.StageTimeLimit,
		"content_rating", cfg.ContentRating)

	var llmService services.LLMService
	switch strings.ToLower(cfg.LLMProvider) {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Error("OpenAI API key is required when using openai provider")
			os.Exit(1)
		}
		llmService = services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.ModelName)
		log.Info("Using OpenAI LLM provider")
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Error("Anthropic API key is required when using anthropic provider")
			os.Exit(1)
		}
		llmService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName)
		log.Info("Using Anthropic LLM provider")
	default:
		log.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider, "supported", []string{"openai", "anthropic"})
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := llmService.InitModel(ctx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	cat, err := catalogue.Load()
	if err != nil {
		log.Error("Failed to load character catalogue", "error", err)
		os.Exit(1)
	}
	log.Info("Character catalogue loaded", "characters", len(cat.Characters))

	var filter *textfilter.Filter
	if textfilter.ShouldFilterContent(cfg.ContentRating) {
		filter = textfilter.New()
		log.Info("Dialogue filtering enabled", "content_rating", cfg.ContentRating)
	}

	sess := session.New(cat, cfg.StageTimeLimit, log)
	arbiter := services.NewArbiter(llmService, log)
	orchestrator := game.NewOrchestrator(sess, cat, arbiter, arbiter, arbiter, arbiter, filter, log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(cfg.LLMProvider, log))

	sessionHandler := handlers.NewSessionHandler(orchestrator, log)
	mux.Handle("/v1/session", sessionHandler)
	mux.Handle("/v1/session/", sessionHandler)

	mux.Handle("/v1/hint", handlers.NewHintHandler(orchestrator, log))
	mux.Handle("/v1/chat", handlers.NewChatHandler(orchestrator, log))

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
