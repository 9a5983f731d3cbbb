package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GENERATORS", "")
	t.Setenv("SESSION_IDLE_TTL_MINUTES", "")

	cfg := Load()

	assert.Equal(t, "concurrent-race", cfg.Orchestrator.Strategy)
	assert.Equal(t, 30, cfg.Orchestrator.TimeoutSeconds)
	assert.Equal(t, []string{"openai", "gemini"}, cfg.Orchestrator.Order)
	assert.Equal(t, 0, cfg.Session.IdleTTLMinutes)
	assert.Equal(t, 50, cfg.Session.HistoryWindow)
	assert.Equal(t, 10, cfg.Session.PromptWindow)
	assert.Equal(t, 3, cfg.Session.AnalysisInterval)
	assert.Equal(t, 1000, cfg.Memory.ContextTokenBudget)
	assert.Equal(t, 500, cfg.Memory.LongTermCapacity)
	assert.Equal(t, "Asia/Tokyo", cfg.Calendar.Timezone)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GENERATORS", "ollama, huggingface,unknown")
	t.Setenv("ORCHESTRATOR_STRATEGY", "judge-merge")
	t.Setenv("OLLAMA_CONFIDENCE", "0.65")
	t.Setenv("AUTO_SEARCH_ENABLED", "false")
	t.Setenv("SESSION_ANALYSIS_INTERVAL", "not-a-number")

	cfg := Load()

	assert.Equal(t, "judge-merge", cfg.Orchestrator.Strategy)
	assert.False(t, cfg.Search.AutoSearch)
	assert.Equal(t, 3, cfg.Session.AnalysisInterval)

	ordered := cfg.OrderedGenerators()
	if assert.Len(t, ordered, 2) {
		assert.Equal(t, "ollama", ordered[0].ID)
		assert.Equal(t, 0.65, ordered[0].Confidence)
		assert.Equal(t, "huggingface", ordered[1].ID)
	}
}
