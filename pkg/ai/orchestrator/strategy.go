package orchestrator

import (
	"fmt"
	"strings"
)

type Strategy string

const (
	ConcurrentRace     Strategy = "concurrent-race"
	SequentialFallback Strategy = "sequential-fallback"
	JudgeMerge         Strategy = "judge-merge"
)

var strategyAliases = map[string]Strategy{
	"concurrent-race":     ConcurrentRace,
	"parallel":            ConcurrentRace,
	"sequential-fallback": SequentialFallback,
	"sequential":          SequentialFallback,
	"judge-merge":         JudgeMerge,
	"meta_select":         JudgeMerge,
}

// ParseStrategy accepts canonical names and their legacy aliases. An empty
// name selects concurrent-race.
func ParseStrategy(name string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return ConcurrentRace, nil
	}
	s, ok := strategyAliases[key]
	if !ok {
		return "", fmt.Errorf("unknown orchestration strategy %q", name)
	}
	return s, nil
}
