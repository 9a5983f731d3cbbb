// Package classifier extracts the user's mood, themes and intent from a
// conversation excerpt through an LLM backend.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"oreza-assistant-be/internal/pkg/logger"
	"oreza-assistant-be/pkg/llm"
)

const logModule = "Classifier"

const (
	EmotionPositive = "positive"
	EmotionNegative = "negative"
	EmotionNeutral  = "neutral"
)

var ErrClassificationFailed = errors.New("classifier: classification failed")

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// Analysis is the classifier output.
type Analysis struct {
	Emotion string   `json:"emotion"`
	Themes  []string `json:"themes"`
	Intent  string   `json:"intent"`
}

// Neutral is the value reported when classification fails.
func Neutral() Analysis {
	return Analysis{Emotion: EmotionNeutral, Themes: []string{}}
}

type Classifier struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

func New(provider llm.LLMProvider, log logger.ILogger) *Classifier {
	return &Classifier{provider: provider, logger: log}
}

// Classify returns Neutral() together with ErrClassificationFailed when the
// backend fails or answers without a JSON object.
func (c *Classifier) Classify(ctx context.Context, excerpt []llm.Message) (Analysis, error) {
	if c.provider == nil {
		return Neutral(), fmt.Errorf("%w: no backend configured", ErrClassificationFailed)
	}

	raw, err := c.provider.Generate(ctx, buildPrompt(excerpt), llm.WithTemperature(0.3))
	if err != nil {
		c.logger.Warn(logModule, "Classification call failed", map[string]interface{}{"error": err.Error()})
		return Neutral(), fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}

	a, err := parse(raw)
	if err != nil {
		c.logger.Warn(logModule, "Unparseable classification", map[string]interface{}{
			"error": err.Error(),
			"raw":   raw,
		})
		return Neutral(), err
	}
	return a, nil
}

func buildPrompt(excerpt []llm.Message) string {
	var b strings.Builder
	b.WriteString("以下の会話を分析して、ユーザーの感情とテーマを抽出してください。\n\n会話:\n")
	for _, m := range excerpt {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	b.WriteString("\n以下のJSON形式で返してください:\n")
	b.WriteString(`{"emotion": "positive/negative/neutral", "themes": ["テーマ1", "テーマ2"], "intent": "ユーザーの意図"}`)
	return b.String()
}

func parse(raw string) (Analysis, error) {
	match := jsonObject.FindString(raw)
	if match == "" {
		return Analysis{}, fmt.Errorf("%w: no JSON object in reply", ErrClassificationFailed)
	}

	var a Analysis
	if err := json.Unmarshal([]byte(match), &a); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}

	switch a.Emotion {
	case EmotionPositive, EmotionNegative, EmotionNeutral:
	default:
		a.Emotion = EmotionNeutral
	}
	themes := make([]string, 0, len(a.Themes))
	for _, t := range a.Themes {
		if t = strings.TrimSpace(t); t != "" {
			themes = append(themes, t)
		}
	}
	a.Themes = themes
	return a, nil
}
