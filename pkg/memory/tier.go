package memory

import "sort"

type TierName string

const (
	Immediate TierName = "immediate"
	ShortTerm TierName = "short_term"
	LongTerm  TierName = "long_term"
	Meta      TierName = "meta"
)

// AllTiers is the lookup order used whenever an id is resolved.
var AllTiers = []TierName{Immediate, ShortTerm, LongTerm, Meta}

const (
	evictionAccessWeight = 0.1
	searchAccessWeight   = 0.05
	neighborBoost        = 0.05

	shortTermThreshold = 0.3
	longTermThreshold  = 0.7
)

// TierConfig sets a tier's bounds. DecayRate is carried as descriptive
// metadata; decay happens only through eviction ordering.
type TierConfig struct {
	Capacity  int     `json:"capacity"`
	DecayRate float64 `json:"decay_rate"`
}

func DefaultTierConfigs() map[TierName]TierConfig {
	return map[TierName]TierConfig{
		Immediate: {Capacity: 10, DecayRate: 0.9},
		ShortTerm: {Capacity: 50, DecayRate: 0.5},
		LongTerm:  {Capacity: 500, DecayRate: 0.1},
		Meta:      {Capacity: 100, DecayRate: 0.05},
	}
}

// Tier is a capacity-bounded node store. Not safe for concurrent use on its
// own; System serialises access.
type Tier struct {
	name      TierName
	capacity  int
	decayRate float64
	nodes     map[string]*Node
}

func newTier(name TierName, cfg TierConfig) *Tier {
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	return &Tier{
		name:      name,
		capacity:  cfg.Capacity,
		decayRate: cfg.DecayRate,
		nodes:     make(map[string]*Node, cfg.Capacity+1),
	}
}

func (t *Tier) Name() TierName     { return t.name }
func (t *Tier) Capacity() int      { return t.capacity }
func (t *Tier) DecayRate() float64 { return t.decayRate }
func (t *Tier) Len() int           { return len(t.nodes) }

// add stores node and evicts until the tier is back within capacity.
// It returns the ids that were evicted, which may include node itself.
func (t *Tier) add(node *Node) []string {
	t.nodes[node.ID] = node

	var evicted []string
	for len(t.nodes) > t.capacity {
		victim := t.lowest()
		delete(t.nodes, victim.ID)
		evicted = append(evicted, victim.ID)
	}
	return evicted
}

// lowest returns the node with the smallest retention score. Equal scores
// fall back to the oldest node.
func (t *Tier) lowest() *Node {
	var victim *Node
	for _, n := range t.nodes {
		if victim == nil {
			victim = n
			continue
		}
		s, vs := n.retentionScore(), victim.retentionScore()
		if s < vs || (s == vs && n.seq < victim.seq) {
			victim = n
		}
	}
	return victim
}

func (t *Tier) get(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// sortedNodes lists nodes in insertion order.
func (t *Tier) sortedNodes() []*Node {
	out := make([]*Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
