package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GenAIConfig configures the hosted generative-language service. The
// API key may be left empty here and supplied via the GOOGLE_API_KEY
// environment variable instead.
type GenAIConfig struct {
	APIKey    string `yaml:"apiKey"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"baseURL"`
	TimeoutMs int    `yaml:"timeoutMs"`
}

// SearchConfig controls the wine search pipeline.
type SearchConfig struct {
	// MaxWineries caps how many wineries a cross-winery search fans out
	// to. Every additional winery is one more model round trip.
	MaxWineries int `yaml:"maxWineries"`
	// ListingLimit is how many listings the model is asked for per winery.
	ListingLimit int `yaml:"listingLimit"`
	TimeoutMs    int `yaml:"timeoutMs"`
}

// ChatConfig controls sommelier chat sessions.
type ChatConfig struct {
	// SessionTTLMinutes is how long an idle session is kept before the
	// sweeper discards it.
	SessionTTLMinutes int `yaml:"sessionTTLMinutes"`
	MaxSessions       int `yaml:"maxSessions"`
}

// DatasetConfig optionally points at an external winery dataset file.
// When Path is empty the embedded dataset is used.
type DatasetConfig struct {
	Path string `yaml:"path"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	GenAI   GenAIConfig   `yaml:"genai"`
	Search  SearchConfig  `yaml:"search"`
	Chat    ChatConfig    `yaml:"chat"`
	Dataset DatasetConfig `yaml:"dataset"`
}

func Load(path string) *Config {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	if cfg.GenAI.APIKey == "" {
		cfg.GenAI.APIKey = os.Getenv("GOOGLE_API_KEY")
	}

	return &cfg
}
