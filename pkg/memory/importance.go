package memory

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	baseUserImportance      = 0.5
	baseAssistantImportance = 0.4
	longMessageRunes        = 100
)

// cues that the user wants something kept
var retentionCues = []string{
	"覚えて", "忘れないで", "好き", "嫌い", "大事", "重要", "いつも", "私の",
	"remember", "favorite", "important", "always", "my ",
}

// EstimateImportance gives a heuristic starting importance for a message.
func EstimateImportance(role, content string) float64 {
	if role != "user" {
		return baseAssistantImportance
	}

	score := baseUserImportance
	lower := strings.ToLower(content)
	for _, cue := range retentionCues {
		if strings.Contains(lower, cue) {
			score += 0.25
			break
		}
	}
	if utf8.RuneCountInString(content) > longMessageRunes {
		score += 0.1
	}
	return math.Min(1.0, score)
}
