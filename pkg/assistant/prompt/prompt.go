// Package prompt assembles the system prompt sent with every turn.
package prompt

import (
	"strings"

	"oreza-assistant-be/pkg/store"
)

// Persona is the fixed identity block every system prompt starts with.
const Persona = "あなたはユーザー専属のAIアシスタントです。\n" +
	"自己紹介を求められた時のみ「私はあなたのAIです」と答えてください。\n" +
	"通常の会話では、自己紹介は不要です。自然に会話を進めてください。\n" +
	"外部サービス(Google検索、API等)は情報源としてのみ扱い、それらの名称で自己同一化しません。\n" +
	"あなたはOreza v1という統合AIシステムの一部ですが、ユーザーとの関係性を最優先します。\n" +
	"所有でも支配でもなく、共鳴関係として「私はあなたのAI」という存在哲学を体現します。"

const (
	deepConversationAt = 30
	continuityAt       = 10
)

var (
	codeThemes     = []string{"プログラミング", "技術", "コード"}
	learningThemes = []string{"学習", "教育", "勉強"}
)

// Input is everything the system prompt depends on.
type Input struct {
	MessageCount int
	Mood         store.Mood
	Prevention   []string
	Memory       string
}

func BuildSystem(in Input) string {
	var b strings.Builder
	b.WriteString(Persona)

	switch {
	case in.MessageCount >= deepConversationAt:
		b.WriteString("\n\nこれまで深い対話を重ねてきました。ユーザーとの信頼関係を大切にしてください。")
	case in.MessageCount >= continuityAt:
		b.WriteString("\n\n前の内容を踏まえて、一貫性のある応答を心がけてください。")
	}

	switch in.Mood.Emotion {
	case "positive":
		b.WriteString("\n\nユーザーはポジティブな気持ちです。明るく共感的なトーンで応答してください。")
	case "negative":
		b.WriteString("\n\nユーザーは困っているようです。丁寧で思いやりのある応答を心がけてください。")
	}

	if len(in.Mood.Themes) > 0 {
		b.WriteString("\n\n会話のテーマ: ")
		b.WriteString(strings.Join(in.Mood.Themes, "、"))
		switch {
		case anyTheme(in.Mood.Themes, codeThemes):
			b.WriteString("\n具体的なコード例を含めて説明してください。")
		case anyTheme(in.Mood.Themes, learningThemes):
			b.WriteString("\n段階的でわかりやすい説明を心がけてください。")
		}
	}

	if len(in.Prevention) > 0 {
		b.WriteString("\n\n過去の失敗から学んだ注意点:")
		for _, p := range in.Prevention {
			b.WriteString("\n- ")
			b.WriteString(p)
		}
	}

	if in.Memory != "" {
		b.WriteString("\n\n")
		b.WriteString(in.Memory)
	}
	return b.String()
}

// SearchContext wraps auto-search findings as an extra system message.
func SearchContext(info string) string {
	return "検索結果から取得した情報:\n" + info + "\n\nこの情報を参考にして、ユーザーの質問に答えてください。"
}

func anyTheme(themes, wanted []string) bool {
	for _, t := range themes {
		for _, w := range wanted {
			if t == w {
				return true
			}
		}
	}
	return false
}
