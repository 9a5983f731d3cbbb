package failure

import (
	"strings"
	"testing"

	"oreza-assistant-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(logger.NewNopLogger())
}

func TestDetectRuleOrder(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		response string
		ctx      DetectContext
		want     Kind
		wantHit  bool
	}{
		{
			name:    "negation wins over elaboration",
			query:   "違う、もっと詳しく",
			want:    ContextMisunderstanding,
			wantHit: true,
		},
		{
			name:     "elaboration before tone and repetition",
			query:    "もっと詳しく教えて",
			response: "嬉しいです same words",
			ctx:      DetectContext{Emotion: "negative", PreviousResponse: "嬉しいです same words"},
			want:     IncompleteAnswer,
			wantHit:  true,
		},
		{
			name:    "english negation is case insensitive",
			query:   "That is WRONG",
			want:    ContextMisunderstanding,
			wantHit: true,
		},
		{
			name:     "tone mismatch",
			query:    "疲れた",
			response: "それは嬉しいですね",
			ctx:      DetectContext{Emotion: "negative"},
			want:     InappropriateTone,
			wantHit:  true,
		},
		{
			name:     "repetition",
			query:    "ok",
			response: "the answer is forty two",
			ctx:      DetectContext{PreviousResponse: "The answer is forty two"},
			want:     Repetition,
			wantHit:  true,
		},
		{
			name:     "partial overlap is not repetition",
			query:    "ok",
			response: "the answer is forty two",
			ctx:      DetectContext{PreviousResponse: "the answer was different"},
		},
		{
			name:  "clean exchange",
			query: "こんにちは",
		},
	}

	s := newTestStore()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := s.Detect(tt.query, tt.response, tt.ctx)
			assert.Equal(t, tt.wantHit, hit)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeededPatterns(t *testing.T) {
	s := newTestStore()
	patterns := s.Patterns()
	require.Len(t, patterns, 4)
	assert.Equal(t, "pattern_1", patterns[0].ID)
	assert.Contains(t, patterns[3].Triggers, "詳しく")
}

func TestRecordUpdatesPatterns(t *testing.T) {
	s := newTestStore()
	id := s.Record(IncompleteAnswer, "もっと詳しく", "短い応答", map[string]string{"emotion": "neutral"})

	rec, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "failure_1", rec.ID)
	assert.Equal(t, "ユーザーはより詳細な情報を求めている", rec.Lesson)
	assert.NotEmpty(t, rec.Prevention)
	assert.False(t, rec.Corrected)

	patterns := s.Patterns()
	assert.Equal(t, 2, patterns[3].Occurrences, "one per matching trigger")
	require.NotNil(t, patterns[3].LastSeen)
	assert.Equal(t, 0, patterns[0].Occurrences)
	assert.Nil(t, patterns[0].LastSeen)
}

func TestPreventionStrategiesOnePerPattern(t *testing.T) {
	s := newTestStore()

	got := s.PreventionStrategies("さっきの話をもっと詳しく、例もほしい")
	require.Len(t, got, 2)
	assert.Equal(t, s.Patterns()[0].PreventionStrategy, got[0])
	assert.Equal(t, s.Patterns()[3].PreventionStrategy, got[1])

	assert.Empty(t, s.PreventionStrategies("hello"))
}

func TestCorrectRoundTrip(t *testing.T) {
	s := newTestStore()
	id := s.Record(ContextMisunderstanding, "違う", "bad", nil)

	msg := s.Correct(id, "正しい答え")
	assert.True(t, strings.HasPrefix(msg, "申し訳ございません。先ほどの応答は文脈の理解が不十分でした。"))
	assert.Contains(t, msg, "正しくは:\n正しい答え")

	rec, _ := s.Get(id)
	assert.True(t, rec.Corrected)
	assert.Equal(t, "正しい答え", rec.CorrectResponse)

	assert.Equal(t, "plain", s.Correct("failure_99", "plain"))
}

func TestSummaryAndLessons(t *testing.T) {
	s := newTestStore()
	a := s.Record(Repetition, "q", "r", nil)
	s.Record(Repetition, "q", "r", nil)
	s.Record(SearchFailure, "q", "r", nil)
	s.Correct(a, "fixed")

	sum := s.Summary()
	assert.Equal(t, 3, sum.TotalFailures)
	assert.Equal(t, 2, sum.ByKind[Repetition])
	assert.Equal(t, 1, sum.ByKind[SearchFailure])
	assert.Equal(t, 4, sum.TotalPatterns)
	assert.Equal(t, 1, sum.Corrected)

	lessons := s.LessonsLearned()
	require.Len(t, lessons, 2)
	assert.Equal(t, "同じ応答を繰り返すことは、ユーザーの期待に応えていない", lessons[0])
}
