package failure

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"oreza-assistant-be/internal/pkg/logger"
)

const logModule = "FailureLearning"

const repetitionThreshold = 0.8

var (
	negationPhrases    = []string{"違う", "そうじゃない", "not what i", "wrong"}
	elaborationPhrases = []string{"もっと", "詳しく", "具体的", "more", "details"}
)

const correctionTemplate = "申し訳ございません。先ほどの応答は%sでした。\n\n正しくは:\n%s\n\n今後、同様のミスを繰り返さないよう学習しました。"

// Store keeps one session's failures and patterns. Safe for concurrent use.
type Store struct {
	mu             sync.Mutex
	records        map[string]*Record
	recordOrder    []string
	patterns       []*Pattern
	failureCounter int
	patternCounter int
	now            func() time.Time
	logger         logger.ILogger
}

func NewStore(log logger.ILogger) *Store {
	s := &Store{
		records: make(map[string]*Record),
		now:     time.Now,
		logger:  log,
	}
	s.seedPatterns()
	return s
}

func (s *Store) seedPatterns() {
	s.AddPattern(
		"ユーザーが「先ほど」「さっき」と言った時、会話履歴を確認しない",
		[]string{"先ほど", "さっき", "前に", "earlier", "before"},
		"これらのキーワードを検出したら、必ず会話履歴と記憶を検索する",
	)
	s.AddPattern(
		"最新情報が必要な質問に対して、古い知識で応答",
		[]string{"最新", "今", "現在", "latest", "current", "now"},
		"時間に関するキーワードを検出したら、Web検索を実行する",
	)
	s.AddPattern(
		"ユーザーの感情を無視した機械的な応答",
		[]string{"ありがとう", "嬉しい", "悲しい", "困った", "イライラ"},
		"感情キーワードを検出したら、共感的な応答を優先する",
	)
	s.AddPattern(
		"同じ質問に対して同じ応答を繰り返す",
		[]string{"もっと", "詳しく", "具体的に", "例", "more", "details"},
		"「もっと」などのキーワードを検出したら、前回の応答を拡張・深化させる",
	)
}

// AddPattern registers a pattern and returns its id.
func (s *Store) AddPattern(desc string, triggers []string, prevention string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.patternCounter++
	p := &Pattern{
		ID:                 fmt.Sprintf("pattern_%d", s.patternCounter),
		Description:        desc,
		Triggers:           append([]string(nil), triggers...),
		PreventionStrategy: prevention,
	}
	s.patterns = append(s.patterns, p)
	return p.ID
}

// Detect applies the rules in order and returns the first kind that fires.
func (s *Store) Detect(userQuery, systemResponse string, dc DetectContext) (Kind, bool) {
	query := strings.ToLower(userQuery)

	if containsAny(query, negationPhrases) {
		return ContextMisunderstanding, true
	}
	if containsAny(query, elaborationPhrases) {
		return IncompleteAnswer, true
	}
	if dc.Emotion == "negative" && strings.Contains(strings.ToLower(systemResponse), "嬉しい") {
		return InappropriateTone, true
	}
	if dc.PreviousResponse != "" && jaccard(systemResponse, dc.PreviousResponse) > repetitionThreshold {
		return Repetition, true
	}
	return "", false
}

// Record stores a failure, attaches its lesson, and bumps every pattern
// whose triggers appear in the query.
func (s *Store) Record(kind Kind, userQuery, systemResponse string, ctx map[string]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failureCounter++
	now := s.now()
	lesson, prevention := Lesson(kind)
	rec := &Record{
		ID:             fmt.Sprintf("failure_%d", s.failureCounter),
		Timestamp:      now,
		Kind:           kind,
		UserQuery:      userQuery,
		SystemResponse: systemResponse,
		Lesson:         lesson,
		Prevention:     prevention,
		Context:        ctx,
	}
	s.records[rec.ID] = rec
	s.recordOrder = append(s.recordOrder, rec.ID)

	query := strings.ToLower(userQuery)
	for _, p := range s.patterns {
		for _, trig := range p.Triggers {
			if strings.Contains(query, strings.ToLower(trig)) {
				p.Occurrences++
				seen := now
				p.LastSeen = &seen
			}
		}
	}

	s.logger.Warn(logModule, "Failure recorded", map[string]interface{}{
		"failure_id": rec.ID,
		"kind":       kind,
	})
	return rec.ID
}

// PreventionStrategies returns one strategy per matching pattern, in
// registration order.
func (s *Store) PreventionStrategies(userQuery string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := strings.ToLower(userQuery)
	var out []string
	for _, p := range s.patterns {
		for _, trig := range p.Triggers {
			if strings.Contains(query, strings.ToLower(trig)) {
				out = append(out, p.PreventionStrategy)
				break
			}
		}
	}
	return out
}

// Correct marks a failure corrected and renders the apology. An unknown id
// returns correctResponse unchanged.
func (s *Store) Correct(failureID, correctResponse string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[failureID]
	if !ok {
		return correctResponse
	}
	rec.CorrectResponse = correctResponse
	rec.Corrected = true

	return fmt.Sprintf(correctionTemplate, description(rec.Kind), correctResponse)
}

// Get returns a copy of a record.
func (s *Store) Get(failureID string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[failureID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Patterns returns copies of all patterns in registration order.
func (s *Store) Patterns() []Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pattern, len(s.patterns))
	for i, p := range s.patterns {
		out[i] = *p
	}
	return out
}

func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		TotalFailures: len(s.records),
		ByKind:        make(map[Kind]int),
		TotalPatterns: len(s.patterns),
	}
	for _, rec := range s.records {
		sum.ByKind[rec.Kind]++
		if rec.Corrected {
			sum.Corrected++
		}
	}
	return sum
}

// LessonsLearned lists distinct lessons in the order they were first learned.
func (s *Store) LessonsLearned() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []string{}
	seen := make(map[string]bool)
	for _, id := range s.recordOrder {
		l := s.records[id].Lesson
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// jaccard compares whitespace token sets.
func jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for tok := range setA {
		if setB[tok] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = true
	}
	return set
}
