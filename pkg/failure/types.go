package failure

import "time"

type Kind string

const (
	IncorrectInformation    Kind = "incorrect_information"
	ContextMisunderstanding Kind = "context_misunderstanding"
	InappropriateTone       Kind = "inappropriate_tone"
	SearchFailure           Kind = "search_failure"
	Repetition              Kind = "repetition"
	IncompleteAnswer        Kind = "incomplete_answer"
)

// Record is one detected failure and what was learned from it.
type Record struct {
	ID              string            `json:"id"`
	Timestamp       time.Time         `json:"timestamp"`
	Kind            Kind              `json:"failure_type"`
	UserQuery       string            `json:"user_query"`
	SystemResponse  string            `json:"system_response"`
	CorrectResponse string            `json:"correct_response,omitempty"`
	Lesson          string            `json:"lesson"`
	Prevention      string            `json:"prevention"`
	Context         map[string]string `json:"context,omitempty"`
	Corrected       bool              `json:"corrected"`
}

// Pattern is a known failure shape keyed by trigger substrings.
type Pattern struct {
	ID                 string     `json:"pattern_id"`
	Description        string     `json:"description"`
	Triggers           []string   `json:"triggers"`
	PreventionStrategy string     `json:"prevention_strategy"`
	Occurrences        int        `json:"occurrences"`
	LastSeen           *time.Time `json:"last_seen,omitempty"`
}

// DetectContext carries what detection needs beyond the exchange itself.
type DetectContext struct {
	Emotion          string
	PreviousResponse string
}

type Summary struct {
	TotalFailures int          `json:"total_failures"`
	ByKind        map[Kind]int `json:"by_type"`
	TotalPatterns int          `json:"total_patterns"`
	Corrected     int          `json:"corrected"`
}

type lessonEntry struct {
	lesson      string
	prevention  string
	description string
}

var lessons = map[Kind]lessonEntry{
	ContextMisunderstanding: {
		lesson:      "ユーザーの意図を正確に理解するため、文脈をより深く分析する必要がある",
		prevention:  "文脈参照キーワードを検出したら、記憶を検索し、関連する記憶を活性化する",
		description: "文脈の理解が不十分",
	},
	IncompleteAnswer: {
		lesson:      "ユーザーはより詳細な情報を求めている",
		prevention:  "「もっと」「詳しく」などのキーワードを検出したら、前回の応答を拡張し、具体例やコードを追加する",
		description: "不完全",
	},
	InappropriateTone: {
		lesson:      "ユーザーの感情状態と応答のトーンが一致していない",
		prevention:  "感情分析の結果を応答生成に反映し、共感的な表現を使用する",
		description: "適切でないトーン",
	},
	Repetition: {
		lesson:      "同じ応答を繰り返すことは、ユーザーの期待に応えていない",
		prevention:  "過去の応答と類似度をチェックし、異なる視点や新しい情報を追加する",
		description: "繰り返し",
	},
	SearchFailure: {
		lesson:      "検索結果がユーザーの質問に適切に答えていない",
		prevention:  "検索クエリを改善し、複数のソースから情報を収集する",
		description: "検索結果が不適切",
	},
	IncorrectInformation: {
		lesson:      "提供した情報が不正確だった",
		prevention:  "事実確認を強化し、不確実な情報には「〜と考えられます」などの表現を使用する",
		description: "不正確",
	},
}

// Lesson returns the fixed lesson and prevention text for a kind.
func Lesson(kind Kind) (lesson, prevention string) {
	e := lessons[kind]
	return e.lesson, e.prevention
}

func description(kind Kind) string {
	if e, ok := lessons[kind]; ok {
		return e.description
	}
	return "不適切"
}
