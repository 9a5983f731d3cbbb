package memory

import (
	"math"
	"sort"
	"time"
)

// Node is one remembered item. A logical message copied into several tiers
// is stored as independent Node values sharing the same ID.
type Node struct {
	ID              string              `json:"id"`
	Content         string              `json:"content"`
	Timestamp       time.Time           `json:"timestamp"`
	Interpretations []string            `json:"interpretations,omitempty"`
	Entangled       map[string]struct{} `json:"-"`
	Importance      float64             `json:"importance"`
	AccessCount     int                 `json:"access_count"`
	Metadata        map[string]string   `json:"metadata,omitempty"`

	seq uint64
}

// EntangledIDs returns the linked ids in sorted order.
func (n *Node) EntangledIDs() []string {
	ids := make([]string, 0, len(n.Entangled))
	for id := range n.Entangled {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (n *Node) clone() *Node {
	cp := *n
	if n.Interpretations != nil {
		cp.Interpretations = append([]string(nil), n.Interpretations...)
	}
	cp.Entangled = make(map[string]struct{}, len(n.Entangled))
	for id := range n.Entangled {
		cp.Entangled[id] = struct{}{}
	}
	cp.Metadata = make(map[string]string, len(n.Metadata))
	for k, v := range n.Metadata {
		cp.Metadata[k] = v
	}
	return &cp
}

func (n *Node) observe() {
	n.AccessCount++
	n.Importance = math.Min(1.0, n.Importance+0.1/(1+float64(n.AccessCount)*0.1))
}

func (n *Node) boost(delta float64) {
	n.Importance = math.Min(1.0, n.Importance+delta)
}

// retentionScore ranks nodes for eviction; lowest goes first.
func (n *Node) retentionScore() float64 {
	return n.Importance * (1 + float64(n.AccessCount)*evictionAccessWeight)
}

func clampImportance(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
