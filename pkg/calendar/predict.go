package calendar

import "strings"

type keywordRule struct {
	keywords []string
	value    string
}

var calendarRules = []keywordRule{
	{[]string{"病院", "眼科", "歯科", "クリニック", "健診", "検診", "糖尿病"}, "cal_health"},
	{[]string{"保育園", "幼稚園", "学校", "子供", "こども"}, "cal_child"},
	{[]string{"会議", "ミーティング", "打ち合わせ", "商談", "プレゼン"}, "cal_work"},
	{[]string{"年金", "役所", "市役所", "区役所"}, "cal_pension"},
	{[]string{"ライブ", "配信", "コンサート", "イベント"}, "cal_live"},
}

var hintCalendars = map[string]string{
	"健康":  "cal_health",
	"子供":  "cal_child",
	"仕事":  "cal_work",
	"年金":  "cal_pension",
	"ライブ": "cal_live",
	"生活":  "cal_self",
	"自分":  "cal_self",
}

const DefaultCalendarID = "cal_self"

// PredictCalendar picks a calendar from keywords in the title and location.
func PredictCalendar(title, location string) string {
	text := strings.ToLower(title + " " + location)
	for _, r := range calendarRules {
		if containsAny(text, r.keywords) {
			return r.value
		}
	}
	return DefaultCalendarID
}

// CalendarForHint maps a Japanese calendar hint such as 健康 to its id.
func CalendarForHint(hint string) string {
	if id, ok := hintCalendars[hint]; ok {
		return id
	}
	return DefaultCalendarID
}

// HintForCalendar is the inverse of CalendarForHint for the seeded calendars.
func HintForCalendar(id string) string {
	for _, c := range DefaultCalendars {
		if c.ID == id {
			return c.Name
		}
	}
	return "自分"
}

// PredictDuration estimates an event length in minutes.
func PredictDuration(title string) int {
	text := strings.ToLower(title)
	switch {
	case containsAny(text, []string{"病院", "眼科", "歯科", "クリニック"}):
		return 60
	case containsAny(text, []string{"筋トレ", "ジム", "トレーニング"}):
		return 45
	case containsAny(text, []string{"ライブ", "配信"}):
		return 120
	case containsAny(text, []string{"会議", "ミーティング"}):
		return 60
	}
	return 30
}

// PredictReminder estimates how many minutes ahead to remind.
func PredictReminder(title string) int {
	if containsAny(strings.ToLower(title), []string{"病院", "役所", "支払い", "締切", "期限"}) {
		return 60
	}
	return 30
}

// PredictImportance returns "high" for medical or urgent items.
func PredictImportance(text string) string {
	if containsAny(text, []string{"病院", "クリニック", "検診", "重要", "緊急", "歯医者"}) {
		return "high"
	}
	return "normal"
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
