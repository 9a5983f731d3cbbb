package memory

import (
	"strings"
	"testing"
	"time"

	"oreza-assistant-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSystem(opts ...Option) *System {
	return NewSystem(logger.NewNopLogger(), opts...)
}

func TestInsertRoutesByImportance(t *testing.T) {
	tests := []struct {
		name       string
		importance float64
		wantTiers  []TierName
	}{
		{name: "low stays immediate", importance: 0.2, wantTiers: []TierName{Immediate}},
		{name: "threshold 0.3 is exclusive", importance: 0.3, wantTiers: []TierName{Immediate}},
		{name: "medium reaches short term", importance: 0.5, wantTiers: []TierName{Immediate, ShortTerm}},
		{name: "threshold 0.7 is exclusive", importance: 0.7, wantTiers: []TierName{Immediate, ShortTerm}},
		{name: "high reaches long term", importance: 0.8, wantTiers: []TierName{Immediate, ShortTerm, LongTerm}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSystem()
			id := s.Insert("user", "hello", nil, tt.importance)

			var got []TierName
			for _, name := range AllTiers {
				if _, ok := s.tiers[name].get(id); ok {
					got = append(got, name)
				}
			}
			assert.Equal(t, tt.wantTiers, got)
		})
	}
}

func TestTierCopiesAreIndependent(t *testing.T) {
	s := newTestSystem()
	id := s.Insert("user", "shared", nil, 0.9)

	s.Observe(id)

	imm, _ := s.tiers[Immediate].get(id)
	long, _ := s.tiers[LongTerm].get(id)
	assert.Equal(t, 1, imm.AccessCount)
	assert.Equal(t, 0, long.AccessCount)
	assert.NotSame(t, imm, long)
}

func TestIdsShareOneCounter(t *testing.T) {
	s := newTestSystem()
	assert.Equal(t, "mem_1", s.Insert("user", "a", nil, 0.5))
	assert.Equal(t, "meta_2", s.InsertMeta("b", MetaInsight, 0.8))
	assert.Equal(t, "mem_3", s.Insert("assistant", "c", nil, 0.4))
	assert.Equal(t, uint64(3), s.Summary().TotalNodes)
}

func TestTierNeverExceedsCapacity(t *testing.T) {
	s := newTestSystem(WithTier(Immediate, TierConfig{Capacity: 5}), WithTier(ShortTerm, TierConfig{Capacity: 3}))

	for i := 0; i < 40; i++ {
		s.Insert("user", "message", nil, float64(i%10)/10)
		assert.LessOrEqual(t, s.TierLen(Immediate), 5)
		assert.LessOrEqual(t, s.TierLen(ShortTerm), 3)
	}
	assert.Equal(t, 5, s.TierLen(Immediate))
	assert.Equal(t, 3, s.TierLen(ShortTerm))
}

func TestEvictionRemovesLowestScore(t *testing.T) {
	tier := newTier(Immediate, TierConfig{Capacity: 3})
	mk := func(id string, importance float64, access int, seq uint64) *Node {
		return &Node{ID: id, Importance: importance, AccessCount: access, Entangled: map[string]struct{}{}, seq: seq}
	}

	tier.add(mk("a", 0.9, 0, 1))
	tier.add(mk("b", 0.2, 5, 2)) // 0.2 * 1.5 = 0.30
	tier.add(mk("c", 0.25, 0, 3))

	evicted := tier.add(mk("d", 0.5, 0, 4))
	assert.Equal(t, []string{"c"}, evicted)

	evicted = tier.add(mk("e", 0.1, 0, 5))
	assert.Equal(t, []string{"e"}, evicted, "a new node with the lowest score is evicted immediately")

	_, ok := tier.get("a")
	assert.True(t, ok, "the highest scoring node survives")
	assert.Equal(t, 3, tier.Len())
}

func TestEvictionTieFallsBackToOldest(t *testing.T) {
	tier := newTier(Meta, TierConfig{Capacity: 2})
	for i, id := range []string{"x", "y", "z"} {
		tier.add(&Node{ID: id, Importance: 0.5, Entangled: map[string]struct{}{}, seq: uint64(i + 1)})
	}
	_, ok := tier.get("x")
	assert.False(t, ok)
}

func TestObserveRaisesImportanceAndNeighbours(t *testing.T) {
	s := newTestSystem()
	a := s.Insert("user", "a", nil, 0.5)
	b := s.Insert("assistant", "b", nil, 0.4)
	c := s.Insert("assistant", "c", nil, 0.98)
	s.Link(a, b)
	s.Link(a, c)

	s.Observe(a)

	na, _ := s.Get(a)
	nb, _ := s.Get(b)
	nc, _ := s.Get(c)

	assert.Equal(t, 1, na.AccessCount)
	assert.InDelta(t, 0.5+0.1/1.1, na.Importance, 1e-9)
	assert.InDelta(t, 0.45, nb.Importance, 1e-9)
	assert.Equal(t, 0, nb.AccessCount)
	assert.Equal(t, 1.0, nc.Importance, "neighbour boost is capped")
	assert.Equal(t, 0, nc.AccessCount)
}

func TestObserveAtCeilingStaysAtOne(t *testing.T) {
	s := newTestSystem()
	id := s.Insert("user", "x", nil, 1.0)
	s.Observe(id)
	n, _ := s.Get(id)
	assert.Equal(t, 1.0, n.Importance)
	assert.Equal(t, 1, n.AccessCount)
}

func TestLinkIsSymmetricAndIdempotent(t *testing.T) {
	s := newTestSystem()
	a := s.Insert("user", "a", nil, 0.9)
	b := s.InsertMeta("b", MetaPattern, 0.8)

	s.Link(a, b)
	s.Link(b, a)
	s.Link(a, b)

	na, _ := s.Get(a)
	nb, _ := s.Get(b)
	assert.Equal(t, []string{b}, na.EntangledIDs())
	assert.Equal(t, []string{a}, nb.EntangledIDs())

	long, _ := s.tiers[LongTerm].get(a)
	assert.Equal(t, []string{b}, long.EntangledIDs(), "every copy carries the link")
}

func TestLinkUnknownIsNoop(t *testing.T) {
	s := newTestSystem()
	a := s.Insert("user", "a", nil, 0.5)

	s.Link(a, "mem_404")
	s.Link(a, a)

	n, _ := s.Get(a)
	assert.Empty(t, n.EntangledIDs())
}

func TestSearchScoresAndObserves(t *testing.T) {
	s := newTestSystem()
	low := s.Insert("user", "golang channels", nil, 0.2)
	high := s.Insert("user", "golang generics and channels", nil, 0.6)
	s.Insert("user", "unrelated", nil, 0.9)

	results := s.Search("Golang channels", nil, 5)
	require.Len(t, results, 2)
	assert.Equal(t, high, results[0].ID)
	assert.Equal(t, low, results[1].ID)
	assert.Equal(t, 1, results[0].AccessCount)

	n, _ := s.Get(low)
	assert.Equal(t, 1, n.AccessCount, "returned nodes are observed")
}

func TestSearchDeduplicatesCopiesAndRespectsTopK(t *testing.T) {
	s := newTestSystem()
	for i := 0; i < 4; i++ {
		s.Insert("user", "coffee beans", nil, 0.9)
	}

	results := s.Search("coffee", nil, 3)
	require.Len(t, results, 3)
	seen := map[string]bool{}
	for _, r := range results {
		assert.False(t, seen[r.ID])
		seen[r.ID] = true
	}

	assert.Empty(t, s.Search("   ", nil, 3))
	assert.Empty(t, s.Search("tea", []TierName{Meta}, 3))
}

func TestGetContextRespectsBudget(t *testing.T) {
	fixed := time.Date(2025, 8, 8, 15, 30, 0, 0, time.UTC)
	s := newTestSystem(WithClock(func() time.Time { return fixed }))
	s.Insert("user", "旅行の計画は京都です", nil, 0.9) // 10 runes, cost 5
	s.Insert("user", "旅行の予算は五万円です", nil, 0.5)

	ctx := s.GetContext("旅行", 7)
	lines := strings.Split(ctx, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "関連する記憶:", lines[0])
	assert.Equal(t, "[2025-08-08 15:30] 旅行の計画は京都です", lines[1])

	assert.Equal(t, "", s.GetContext("存在しない", 1000))
}

func TestMetaInsightsAndSummary(t *testing.T) {
	s := newTestSystem()
	s.InsertMeta("likes short answers", MetaPreference, 0.8)
	s.InsertMeta("asks about go weekly", MetaPattern, 0.8)
	s.InsertMeta("missed a follow-up", MetaFailure, 0.9)
	s.InsertMeta("prefers examples", MetaInsight, 0.7)
	s.Insert("user", "hi", nil, 0.5)

	insights := s.MetaInsights()
	assert.Equal(t, []string{"likes short answers"}, insights.Preferences)
	assert.Equal(t, []string{"asks about go weekly"}, insights.Patterns)
	assert.Equal(t, []string{"missed a follow-up"}, insights.Failures)
	assert.Equal(t, []string{"prefers examples"}, insights.Insights)

	sum := s.Summary()
	assert.Equal(t, TierSummary{Count: 4, Capacity: 100}, sum.Tiers[Meta])
	assert.Equal(t, TierSummary{Count: 1, Capacity: 10}, sum.Tiers[Immediate])
	assert.Equal(t, TierSummary{Count: 1, Capacity: 50}, sum.Tiers[ShortTerm])
	assert.Equal(t, uint64(5), sum.TotalNodes)
}

func TestEstimateImportance(t *testing.T) {
	assert.Equal(t, 0.4, EstimateImportance("assistant", "覚えて"))
	assert.Equal(t, 0.5, EstimateImportance("user", "こんにちは"))
	assert.Equal(t, 0.75, EstimateImportance("user", "私の誕生日を覚えておいて"))
	assert.InDelta(t, 0.85, EstimateImportance("user", "remember "+strings.Repeat("a", 120)), 1e-9)
}
