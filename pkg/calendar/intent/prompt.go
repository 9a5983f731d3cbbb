package intent

import (
	"fmt"
	"time"

	"oreza-assistant-be/pkg/llm"
)

const systemPrompt = `あなたはスケジュールAIです。
ユーザーの日本語の指示からカレンダー予定やタスクを自動生成します。

出力は必ず JSON 1つだけにします。
自然文は一切書かず、余計なキーも追加しません。

jsonのトップレベルには次の3つのキーを必ず含めてください:
- "intent": インテント名 (CREATE_EVENT / UPDATE_EVENT / DELETE_EVENT / LIST_AGENDA / CREATE_TASK など)
- "request_id": 適当な一意ID文字列
- "payload": インテントごとの情報オブジェクト

日付・時間はすべて ISO8601 (YYYY-MM-DDThh:mm:ss+09:00) 形式で出力します。
日付が曖昧な場合は、"date_is_ambiguous": true を payload に追加し、そのまま推定した値を "start" に入れてください。

「来週の火曜日」「明日の朝」など相対表現は、現在日時 (CURRENT_DATETIME) を基準に計算してください。
CURRENT_DATETIME は外部から与えられるプレースホルダとして扱い、実際の計算はシステム側で行う場合は、
relative_expression フィールドに原文を保持してください。

【現在日時】
CURRENT_DATETIME: %s

【カレンダーヒント推定ルール】
- 病院、眼科、歯科、クリニック、健診、検診、糖尿病 → "健康"
- 保育園、幼稚園、学校、子供、こども → "子供"
- 会議、ミーティング、打ち合わせ、商談、プレゼン → "仕事"
- 年金、役所、市役所、区役所 → "年金"
- ライブ、配信、コンサート、イベント → "ライブ"
- ゴミ出し、掃除、買い物 → "生活"
- その他 → "自分"

【重要度ルール】
- 病院、クリニック、検診、重要、緊急 → "high"
- 会議、ミーティング、打ち合わせ → "normal"
- その他 → "normal"

必ず有効な JSON のみを出力してください。
コメント、説明文、日本語の文章は一切書かないでください。
`

const userTemplate = `次のユーザー発話を解析して、予定またはタスクを作成してください。

【ユーザー発話】
%s

必ず有効な JSON のみを出力してください。
コメント、説明文、日本語の文章は一切書かないでください。`

var fewShots = []struct{ user, assistant string }{
	{
		user:      "8月8日の15時半から1時間、糖尿病クリニック。30分前に教えて。",
		assistant: `{"intent": "CREATE_EVENT", "request_id": "req-001", "payload": {"title": "糖尿病クリニック", "calendar_hint": "健康", "start": "2025-08-08T15:30:00+09:00", "end": "2025-08-08T16:30:00+09:00", "all_day": false, "location": null, "source_url": null, "recurrence": null, "reminders": [{"offset_minutes": 30, "channel": "push"}], "notes": null, "importance": "high", "relative_expression": null, "date_is_ambiguous": false}}`,
	},
	{
		user:      "明日の朝8時にゴミ出しのリマインド。",
		assistant: `{"intent": "CREATE_TASK", "request_id": "req-002", "payload": {"title": "ゴミ出し", "calendar_hint": "生活", "due": null, "notes": null, "importance": "normal", "relative_expression": "明日の朝8時", "date_is_ambiguous": true}}`,
	},
	{
		user:      "今日の予定を教えて。",
		assistant: `{"intent": "LIST_AGENDA", "request_id": "req-003", "payload": {"from_dt": null, "to_dt": null, "calendar_filters": null, "view": "day", "relative_expression": "今日"}}`,
	},
	{
		user:      "来週の火曜日14時に歯医者",
		assistant: `{"intent": "CREATE_EVENT", "request_id": "req-004", "payload": {"title": "歯医者", "calendar_hint": "健康", "start": null, "end": null, "all_day": false, "location": null, "source_url": null, "recurrence": null, "reminders": [{"offset_minutes": 30, "channel": "push"}], "notes": null, "importance": "high", "relative_expression": "来週の火曜日14時", "date_is_ambiguous": true}}`,
	},
	{
		user:      "明日の朝9時にミーティング、1時間くらい",
		assistant: `{"intent": "CREATE_EVENT", "request_id": "req-005", "payload": {"title": "ミーティング", "calendar_hint": "仕事", "start": null, "end": null, "all_day": false, "location": null, "source_url": null, "recurrence": null, "reminders": [{"offset_minutes": 15, "channel": "push"}], "notes": null, "importance": "normal", "relative_expression": "明日の朝9時", "date_is_ambiguous": true}}`,
	},
}

func buildMessages(input string, now time.Time) []llm.Message {
	messages := []llm.Message{{
		Role:    llm.RoleSystem,
		Content: fmt.Sprintf(systemPrompt, now.Format("2006-01-02 15:04:05")),
	}}
	for _, ex := range fewShots {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: ex.user},
			llm.Message{Role: llm.RoleAssistant, Content: ex.assistant},
		)
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf(userTemplate, input)})
}
