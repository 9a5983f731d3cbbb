package intent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"oreza-assistant-be/internal/pkg/logger"
	"oreza-assistant-be/pkg/calendar"
	"oreza-assistant-be/pkg/llm"

	"github.com/google/uuid"
)

const logModule = "CalendarIntent"

// Context carries conversation state the translator may need.
type Context struct {
	LastEventID string `json:"last_event_id,omitempty"`
}

type Translator interface {
	Translate(ctx context.Context, input string, tc Context) (Command, error)
}

// LLMTranslator asks a backend for the command and falls back to keyword
// rules when the backend is missing or fails.
type LLMTranslator struct {
	provider llm.LLMProvider
	fallback *KeywordTranslator
	loc      *time.Location
	now      func() time.Time
	logger   logger.ILogger
}

func NewLLMTranslator(provider llm.LLMProvider, loc *time.Location, log logger.ILogger) *LLMTranslator {
	return &LLMTranslator{
		provider: provider,
		fallback: NewKeywordTranslator(loc),
		loc:      loc,
		now:      time.Now,
		logger:   log,
	}
}

func (t *LLMTranslator) Translate(ctx context.Context, input string, tc Context) (Command, error) {
	now := t.now().In(t.loc)
	if t.provider == nil {
		return t.fallback.translateAt(input, tc, now)
	}

	raw, err := t.provider.Chat(ctx, buildMessages(input, now), llm.WithTemperature(0.1), llm.WithMaxTokens(1000))
	if err != nil {
		t.logger.Warn(logModule, "Backend translation failed, using keyword rules", map[string]interface{}{"error": err.Error()})
		return t.fallback.translateAt(input, tc, now)
	}

	cmd, err := Decode([]byte(stripFences(raw)))
	if err != nil {
		if errors.Is(err, ErrUnknownIntent) {
			return cmd, err
		}
		t.logger.Warn(logModule, "Unparseable translation, using keyword rules", map[string]interface{}{
			"error": err.Error(),
			"raw":   raw,
		})
		return t.fallback.translateAt(input, tc, now)
	}
	if cmd.RequestID == "" {
		cmd.RequestID = "req_" + uuid.NewString()
	}
	applyContext(&cmd, tc)
	Resolve(&cmd, now)
	return cmd, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if _, after, ok := strings.Cut(s, "```json"); ok {
		s = after
	} else if _, after, ok := strings.Cut(s, "```"); ok {
		s = after
	} else {
		return s
	}
	before, _, _ := strings.Cut(s, "```")
	return strings.TrimSpace(before)
}

func applyContext(cmd *Command, tc Context) {
	if tc.LastEventID == "" {
		return
	}
	switch p := cmd.Payload.(type) {
	case *UpdateEventPayload:
		if p.EventID == ContextRequired {
			p.EventID = tc.LastEventID
		}
	case *DeleteEventPayload:
		if p.EventID == ContextRequired {
			p.EventID = tc.LastEventID
		}
	}
}

var relativePattern = regexp.MustCompile(`(今日|明日|来週(?:の?[月火水木金土日]曜日?)?)(?:の?(?:朝|午前|午後|昼|夜|夕方))?(?:\d{1,2}時(?:半|\d{1,2}分)?)?`)

var (
	deleteWords = []string{"削除", "キャンセル", "取り消"}
	updateWords = []string{"変更", "更新", "ずらして"}
	listWords   = []string{"教えて", "確認", "一覧", "予定は", "何があ"}
	taskWords   = []string{"リマインド", "タスク", "やること", "忘れずに"}
	eventWords  = []string{"予定", "スケジュール", "登録", "追加", "病院", "会議", "ミーティング", "時"}
)

var titleSuffixes = []string{
	"のリマインドをお願い", "のリマインド", "のリマインダー", "をリマインド",
	"の予定を入れて", "の予定を追加", "の予定を登録", "の予定",
	"を登録して", "を追加して", "を入れて", "を登録", "を追加",
}

// KeywordTranslator is the deterministic fallback. It recognises the same
// relative expressions as ResolveRelative.
type KeywordTranslator struct {
	loc *time.Location
	now func() time.Time
}

func NewKeywordTranslator(loc *time.Location) *KeywordTranslator {
	return &KeywordTranslator{loc: loc, now: time.Now}
}

func (k *KeywordTranslator) Translate(_ context.Context, input string, tc Context) (Command, error) {
	return k.translateAt(input, tc, k.now().In(k.loc))
}

func (k *KeywordTranslator) translateAt(input string, tc Context, now time.Time) (Command, error) {
	text := strings.TrimSpace(input)
	expr := relativePattern.FindString(text)
	cmd := Command{RequestID: "req_" + uuid.NewString()}

	switch {
	case containsAny(text, deleteWords):
		cmd.Payload = &DeleteEventPayload{EventID: ContextRequired}
	case containsAny(text, updateWords):
		cmd.Payload = &UpdateEventPayload{EventID: ContextRequired, Patch: map[string]any{}}
	case containsAny(text, listWords):
		cmd.Payload = &ListAgendaPayload{View: "day", RelativeExpression: expr}
	case containsAny(text, taskWords):
		title := extractTitle(text, expr)
		cmd.Payload = &CreateTaskPayload{
			Title:              title,
			CalendarHint:       calendar.HintForCalendar(calendar.PredictCalendar(title, "")),
			Importance:         calendar.PredictImportance(text),
			RelativeExpression: expr,
		}
	case expr != "" || containsAny(text, eventWords):
		title := extractTitle(text, expr)
		cmd.Payload = &CreateEventPayload{
			Title:              title,
			CalendarHint:       calendar.HintForCalendar(calendar.PredictCalendar(title, "")),
			Reminders:          []Reminder{{OffsetMinutes: calendar.PredictReminder(title), Channel: "push"}},
			Importance:         calendar.PredictImportance(text),
			RelativeExpression: expr,
		}
	default:
		cmd.Intent = Unknown
		cmd.Payload = &RawPayload{Intent: string(Unknown), Fields: map[string]any{"text": text}}
		return cmd, fmt.Errorf("%w: no calendar action in %q", ErrUnknownIntent, text)
	}

	cmd.Intent = cmd.Payload.Kind()
	applyContext(&cmd, tc)
	Resolve(&cmd, now)
	return cmd, nil
}

func extractTitle(text, expr string) string {
	title := text
	if expr != "" {
		title = strings.Replace(title, expr, "", 1)
	}
	title = strings.TrimLeft(title, "にのはで、。 　")
	if i := strings.IndexAny(title, "、。,!！?？"); i >= 0 {
		title = title[:i]
	}
	for _, suffix := range titleSuffixes {
		if strings.HasSuffix(title, suffix) {
			title = strings.TrimSuffix(title, suffix)
			break
		}
	}
	return strings.TrimSpace(title)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
