package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	Port         string
	ArtifactsDir string

	// LLM Configuration
	LLMProvider string // "openai", "groq", "ollama" or "none"
	LLMModel    string // "gpt-4o-mini", "llama-3.3-70b-versatile", ...
	LLMAPIKey   string
	LLMTimeout  time.Duration

	// Pipeline
	StageTimeout       time.Duration
	AnalyzeConcurrency int

	// Search
	PageSize int
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	llmProvider := os.Getenv("LLM_PROVIDER")
	if llmProvider == "" {
		llmProvider = "openai"
	}

	llmModel := os.Getenv("LLM_MODEL")
	if llmModel == "" {
		llmModel = "gpt-4o-mini"
	}

	llmAPIKey := ""
	switch llmProvider {
	case "openai":
		llmAPIKey = os.Getenv("OPENAI_API_KEY")
	case "groq":
		llmAPIKey = os.Getenv("GROQ_API_KEY")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	artifactsDir := os.Getenv("ARTIFACTS_DIR")
	if artifactsDir == "" {
		artifactsDir = "./artifacts"
	}

	return &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		Port:               port,
		ArtifactsDir:       artifactsDir,
		LLMProvider:        llmProvider,
		LLMModel:           llmModel,
		LLMAPIKey:          llmAPIKey,
		LLMTimeout:         envDuration("LLM_TIMEOUT", 600*time.Second),
		StageTimeout:       envDuration("STAGE_TIMEOUT", 0),
		AnalyzeConcurrency: envInt("ANALYZE_CONCURRENCY", 8),
		PageSize:           envInt("SEARCH_PAGE_SIZE", 20),
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
