package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"oreza-assistant-be/internal/pkg/logger"
)

const logModule = "Memory"

type MetaType string

const (
	MetaPattern    MetaType = "pattern"
	MetaPreference MetaType = "preference"
	MetaFailure    MetaType = "failure"
	MetaInsight    MetaType = "insight"
)

const (
	DefaultSearchTopK = 5
	contextSearchTopK = 10
	contextHeader     = "関連する記憶:"
	contextTimeLayout = "2006-01-02 15:04"
)

// System holds the four tiers of one conversation. All methods are safe for
// concurrent use.
type System struct {
	mu      sync.Mutex
	tiers   map[TierName]*Tier
	counter uint64
	now     func() time.Time
	logger  logger.ILogger
}

type Option func(*System)

// WithTier overrides one tier's capacity and decay rate.
func WithTier(name TierName, cfg TierConfig) Option {
	return func(s *System) {
		s.tiers[name] = newTier(name, cfg)
	}
}

// WithClock replaces time.Now for node timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *System) {
		s.now = now
	}
}

func NewSystem(log logger.ILogger, opts ...Option) *System {
	s := &System{
		tiers:  make(map[TierName]*Tier, len(AllTiers)),
		now:    time.Now,
		logger: log,
	}
	for name, cfg := range DefaultTierConfigs() {
		s.tiers[name] = newTier(name, cfg)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert stores a conversation message. The node always lands in the
// immediate tier, and is copied into short-term above 0.3 importance and
// long-term above 0.7.
func (s *System) Insert(role, content string, interpretations []string, importance float64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	importance = clampImportance(importance)
	s.counter++
	node := &Node{
		ID:              fmt.Sprintf("mem_%d", s.counter),
		Content:         content,
		Timestamp:       s.now(),
		Interpretations: append([]string(nil), interpretations...),
		Entangled:       map[string]struct{}{},
		Importance:      importance,
		Metadata:        map[string]string{"role": role},
		seq:             s.counter,
	}

	targets := []TierName{Immediate}
	if importance > shortTermThreshold {
		targets = append(targets, ShortTerm)
	}
	if importance > longTermThreshold {
		targets = append(targets, LongTerm)
	}
	for _, name := range targets {
		s.addTo(name, node.clone())
	}

	s.logger.Debug(logModule, "Memory inserted", map[string]interface{}{
		"node_id":    node.ID,
		"tiers":      targets,
		"importance": importance,
	})
	return node.ID
}

// InsertMeta stores a memory about the conversation itself in the meta tier.
func (s *System) InsertMeta(content string, memType MetaType, importance float64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	node := &Node{
		ID:         fmt.Sprintf("meta_%d", s.counter),
		Content:    content,
		Timestamp:  s.now(),
		Entangled:  map[string]struct{}{},
		Importance: clampImportance(importance),
		Metadata:   map[string]string{"type": string(memType)},
		seq:        s.counter,
	}
	s.addTo(Meta, node)

	s.logger.Debug(logModule, "Meta memory inserted", map[string]interface{}{
		"node_id": node.ID,
		"type":    memType,
	})
	return node.ID
}

func (s *System) addTo(name TierName, node *Node) {
	evicted := s.tiers[name].add(node)
	if len(evicted) > 0 {
		s.logger.Debug(logModule, "Memory evicted", map[string]interface{}{
			"tier":    name,
			"evicted": evicted,
		})
	}
}

// Link entangles two memories. Every stored copy of each id gets the link.
// Unknown ids make it a no-op.
func (s *System) Link(a, b string) {
	if a == b {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	as, bs := s.copies(a), s.copies(b)
	if len(as) == 0 || len(bs) == 0 {
		return
	}
	for _, n := range as {
		n.Entangled[b] = struct{}{}
	}
	for _, n := range bs {
		n.Entangled[a] = struct{}{}
	}
}

// Observe marks the first stored copy of id as accessed and nudges its
// entangled neighbours.
func (s *System) Observe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := s.find(id); n != nil {
		s.observeNode(n)
	}
}

func (s *System) observeNode(n *Node) {
	n.observe()
	for neighborID := range n.Entangled {
		if neighbor := s.find(neighborID); neighbor != nil {
			neighbor.boost(neighborBoost)
		}
	}
}

// Get returns a snapshot of the first stored copy of id.
func (s *System) Get(id string) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.find(id)
	if n == nil {
		return Node{}, false
	}
	return *n.clone(), true
}

type scored struct {
	node  *Node
	score float64
	rank  int
}

// Search scores nodes by how many whitespace-separated query tokens occur in
// their content, weighted by importance and access count. Every returned
// node is observed. A nil tiers slice searches all tiers.
func (s *System) Search(query string, tiers []TierName, topK int) []Node {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 || topK <= 0 {
		return nil
	}
	if tiers == nil {
		tiers = AllTiers
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	best := make(map[string]*scored)
	rank := 0
	for _, name := range tiers {
		tier, ok := s.tiers[name]
		if !ok {
			continue
		}
		for _, n := range tier.sortedNodes() {
			rank++
			content := strings.ToLower(n.Content)
			matches := 0
			for _, tok := range tokens {
				if strings.Contains(content, tok) {
					matches++
				}
			}
			if matches == 0 {
				continue
			}
			score := float64(matches) * n.Importance * (1 + float64(n.AccessCount)*searchAccessWeight)
			if score <= 0 {
				continue
			}
			if prev, seen := best[n.ID]; seen && prev.score >= score {
				continue
			}
			best[n.ID] = &scored{node: n, score: score, rank: rank}
		}
	}

	results := make([]*scored, 0, len(best))
	for _, sc := range best {
		results = append(results, sc)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].rank < results[j].rank
	})
	if len(results) > topK {
		results = results[:topK]
	}

	out := make([]Node, 0, len(results))
	for _, sc := range results {
		s.observeNode(sc.node)
		out = append(out, *sc.node.clone())
	}
	return out
}

// GetContext renders the most relevant memories as a prompt block, stopping
// before the estimated token budget would be exceeded. Token cost is
// estimated as half the character count.
func (s *System) GetContext(query string, maxTokens int) string {
	nodes := s.Search(query, nil, contextSearchTopK)
	if len(nodes) == 0 {
		return ""
	}

	lines := []string{contextHeader}
	used := 0
	for _, n := range nodes {
		cost := utf8.RuneCountInString(n.Content) / 2
		if used+cost > maxTokens {
			break
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", n.Timestamp.Format(contextTimeLayout), n.Content))
		used += cost
	}
	if len(lines) == 1 {
		return ""
	}
	return strings.Join(lines, "\n")
}

type Insights struct {
	Patterns    []string `json:"patterns"`
	Preferences []string `json:"preferences"`
	Failures    []string `json:"failures"`
	Insights    []string `json:"insights"`
}

// MetaInsights groups meta memories by type, oldest first.
func (s *System) MetaInsights() Insights {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Insights{
		Patterns:    []string{},
		Preferences: []string{},
		Failures:    []string{},
		Insights:    []string{},
	}
	for _, n := range s.tiers[Meta].sortedNodes() {
		switch MetaType(n.Metadata["type"]) {
		case MetaPattern:
			out.Patterns = append(out.Patterns, n.Content)
		case MetaPreference:
			out.Preferences = append(out.Preferences, n.Content)
		case MetaFailure:
			out.Failures = append(out.Failures, n.Content)
		case MetaInsight:
			out.Insights = append(out.Insights, n.Content)
		}
	}
	return out
}

type TierSummary struct {
	Count    int `json:"count"`
	Capacity int `json:"capacity"`
}

type Summary struct {
	Tiers      map[TierName]TierSummary `json:"tiers"`
	TotalNodes uint64                   `json:"total_nodes"`
}

func (s *System) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Summary{Tiers: make(map[TierName]TierSummary, len(s.tiers)), TotalNodes: s.counter}
	for name, t := range s.tiers {
		out.Tiers[name] = TierSummary{Count: t.Len(), Capacity: t.Capacity()}
	}
	return out
}

// TierLen reports how many nodes a tier currently holds.
func (s *System) TierLen(name TierName) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tiers[name]; ok {
		return t.Len()
	}
	return 0
}

func (s *System) find(id string) *Node {
	for _, name := range AllTiers {
		if n, ok := s.tiers[name].get(id); ok {
			return n
		}
	}
	return nil
}

func (s *System) copies(id string) []*Node {
	var out []*Node
	for _, name := range AllTiers {
		if n, ok := s.tiers[name].get(id); ok {
			out = append(out, n)
		}
	}
	return out
}
