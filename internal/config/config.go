package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Orchestrator OrchestratorConfig
	Generators   map[string]GeneratorConfig
	Analysis     AnalysisConfig
	Session      SessionConfig
	Memory       MemoryConfig
	Search       SearchConfig
	Calendar     CalendarConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	EventLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	EventTopic         string
}

type OrchestratorConfig struct {
	Strategy       string // "concurrent-race" | "sequential-fallback" | "judge-merge"
	TimeoutSeconds int
	JudgeID        string   // generator used by judge-merge
	Order          []string // registration order, first wins ties
}

// GeneratorConfig describes one text-generation backend.
type GeneratorConfig struct {
	ID         string
	Provider   string // "openai", "huggingface", "gemini", "ollama"
	Model      string
	BaseURL    string
	APIKey     string
	Confidence float64
	Reasoning  string
}

type AnalysisConfig struct {
	GeneratorID string // backend used for classification, search decisions and calendar parsing
}

type SessionConfig struct {
	IdleTTLMinutes         int // 0 keeps sessions for the process lifetime
	CleanupIntervalMinutes int
	HistoryWindow          int
	PromptWindow           int
	AnalysisInterval       int
	AnalysisWindow         int
	CalendarSync           bool
}

type MemoryConfig struct {
	ContextTokenBudget int
	ImmediateCapacity  int
	ShortTermCapacity  int
	LongTermCapacity   int
	MetaCapacity       int
}

type SearchConfig struct {
	GoogleAPIKey    string
	GoogleCSEID     string
	AutoSearch      bool
	CacheTTLMinutes int
	PageCharLimit   int
}

type CalendarConfig struct {
	Timezone string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	generators := map[string]GeneratorConfig{
		"openai": {
			ID:         "openai",
			Provider:   "openai",
			Model:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:     getEnv("OPENAI_API_KEY", ""),
			Confidence: getEnvAsFloat("OPENAI_CONFIDENCE", 0.85),
			Reasoning:  "gpt-4o-mini: Fast and versatile general-purpose response",
		},
		"gemini": {
			ID:         "gemini",
			Provider:   "gemini",
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			APIKey:     getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Confidence: getEnvAsFloat("GEMINI_CONFIDENCE", 0.8),
			Reasoning:  "gemini-2.5-flash: Broad knowledge with fast turnaround",
		},
		"huggingface": {
			ID:         "huggingface",
			Provider:   "huggingface",
			Model:      getEnv("HUGGINGFACE_MODEL", "meta-llama/Llama-3.1-8B-Instruct"),
			BaseURL:    getEnv("HUGGINGFACE_BASE_URL", "https://router.huggingface.co/v1"),
			APIKey:     getEnv("HUGGINGFACE_API_KEY", ""),
			Confidence: getEnvAsFloat("HUGGINGFACE_CONFIDENCE", 0.75),
			Reasoning:  "open-weight model served through the HuggingFace router",
		},
		"ollama": {
			ID:         "ollama",
			Provider:   "ollama",
			Model:      getEnv("OLLAMA_MODEL", "llama3"),
			BaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Confidence: getEnvAsFloat("OLLAMA_CONFIDENCE", 0.7),
			Reasoning:  "local model: private and always available",
		},
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			EventLogFilePath:   getEnv("EVENT_LOG_FILE_PATH", "logs/events.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			EventTopic:         getEnv("ASSISTANT_EVENT_TOPIC", "ASSISTANT_EVENTS"),
		},
		Orchestrator: OrchestratorConfig{
			Strategy:       getEnv("ORCHESTRATOR_STRATEGY", "concurrent-race"),
			TimeoutSeconds: getEnvAsInt("ORCHESTRATOR_TIMEOUT_SECONDS", 30),
			JudgeID:        getEnv("ORCHESTRATOR_JUDGE", "openai"),
			Order:          getEnvAsList("GENERATORS", []string{"openai", "gemini"}),
		},
		Generators: generators,
		Analysis: AnalysisConfig{
			GeneratorID: getEnv("ANALYSIS_GENERATOR", "openai"),
		},
		Session: SessionConfig{
			IdleTTLMinutes:         getEnvAsInt("SESSION_IDLE_TTL_MINUTES", 0),
			CleanupIntervalMinutes: getEnvAsInt("SESSION_CLEANUP_MINUTES", 10),
			HistoryWindow:          getEnvAsInt("SESSION_HISTORY_WINDOW", 50),
			PromptWindow:           getEnvAsInt("SESSION_PROMPT_WINDOW", 10),
			AnalysisInterval:       getEnvAsInt("SESSION_ANALYSIS_INTERVAL", 3),
			AnalysisWindow:         getEnvAsInt("SESSION_ANALYSIS_WINDOW", 5),
			CalendarSync:           getEnvAsBool("CHAT_CALENDAR_SYNC", true),
		},
		Memory: MemoryConfig{
			ContextTokenBudget: getEnvAsInt("MEMORY_CONTEXT_TOKENS", 1000),
			ImmediateCapacity:  getEnvAsInt("MEMORY_IMMEDIATE_CAPACITY", 10),
			ShortTermCapacity:  getEnvAsInt("MEMORY_SHORT_TERM_CAPACITY", 50),
			LongTermCapacity:   getEnvAsInt("MEMORY_LONG_TERM_CAPACITY", 500),
			MetaCapacity:       getEnvAsInt("MEMORY_META_CAPACITY", 100),
		},
		Search: SearchConfig{
			GoogleAPIKey:    getEnv("GOOGLE_API_KEY", ""),
			GoogleCSEID:     getEnv("GOOGLE_CSE_ID", ""),
			AutoSearch:      getEnvAsBool("AUTO_SEARCH_ENABLED", true),
			CacheTTLMinutes: getEnvAsInt("SEARCH_CACHE_TTL_MINUTES", 30),
			PageCharLimit:   getEnvAsInt("SEARCH_PAGE_CHAR_LIMIT", 3000),
		},
		Calendar: CalendarConfig{
			Timezone: getEnv("CALENDAR_TIMEZONE", "Asia/Tokyo"),
		},
	}
}

// OrderedGenerators returns the configured generators in registration order,
// skipping ids with no matching definition.
func (c *Config) OrderedGenerators() []GeneratorConfig {
	out := make([]GeneratorConfig, 0, len(c.Orchestrator.Order))
	for _, id := range c.Orchestrator.Order {
		if g, ok := c.Generators[id]; ok {
			out = append(out, g)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
