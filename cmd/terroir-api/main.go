package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"terroir/internal/config"
	"terroir/internal/genai"
	server "terroir/internal/http"
	"terroir/internal/services"
	"terroir/internal/winery"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// Optional .env for local development (GOOGLE_API_KEY etc.).
	_ = godotenv.Load()

	cfg := config.Load(*configPath)

	dataset, err := winery.Load(cfg.Dataset.Path)
	if err != nil {
		log.Fatalf("load winery dataset failed: %v", err)
	}

	client, err := genai.NewClientFromConfig(cfg)
	if err != nil {
		log.Fatalf("genai client setup failed: %v", err)
	}

	// Set up logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))

	wineSearch := services.NewWineSearchService(cfg, client)
	selector := services.NewCandidateSelector(dataset, nil)
	aggregator := services.NewAggregator(cfg, selector, wineSearch)
	interpreter := services.NewQueryInterpreter(client, dataset, aggregator)
	chat := services.NewChatManager(cfg, client, aggregator)

	deps := server.Deps{
		Dataset:     dataset,
		WineSearch:  wineSearch,
		Aggregator:  aggregator,
		Interpreter: interpreter,
		Chat:        chat,
	}

	logger.Info("starting terroir-api",
		"wineries", len(dataset.All()),
		"model", cfg.GenAI.Model,
	)

	s := server.NewServer(cfg, deps, logger)
	if err := s.Listen(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
