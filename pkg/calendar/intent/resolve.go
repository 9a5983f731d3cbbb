package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// WireLayout is the ISO 8601 form used for every payload time.
const WireLayout = "2006-01-02T15:04:05-07:00"

var hourPattern = regexp.MustCompile(`(\d{1,2})時`)

// afternoon markers move a 12-hour N時 into the afternoon
var pmMarkers = []string{"午後", "夕方", "夜"}

var nextWeekdays = []struct {
	token  string
	offset int
}{
	{"火曜", 1},
	{"水曜", 2},
	{"木曜", 3},
	{"金曜", 4},
}

// Resolution is the outcome of resolving a relative expression.
type Resolution struct {
	Day     time.Time // midnight of the resolved day, in ref's location
	Hour    int
	HasHour bool
	OK      bool
}

// At returns the resolved day at the resolved hour.
func (r Resolution) At() time.Time {
	return r.Day.Add(time.Duration(r.Hour) * time.Hour)
}

// ResolveRelative handles 今日, 明日 and 来週の火/水/木/金曜 with an optional
// N時 (午後, 夕方 and 夜 read it as a 12-hour clock). Anything else, including
// a bare 来週, is left unresolved.
func ResolveRelative(ref time.Time, expr string) Resolution {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())

	var res Resolution
	switch {
	case strings.Contains(expr, "明日"):
		res = Resolution{Day: day.AddDate(0, 0, 1), OK: true}
	case strings.Contains(expr, "今日"):
		res = Resolution{Day: day, OK: true}
	case strings.Contains(expr, "来週"):
		// Monday of next week, then the weekday offset.
		toMonday := 7 - (int(ref.Weekday())+6)%7
		for _, wd := range nextWeekdays {
			if strings.Contains(expr, wd.token) {
				res = Resolution{Day: day.AddDate(0, 0, toMonday+wd.offset), OK: true}
				break
			}
		}
	}
	if !res.OK {
		return Resolution{}
	}

	if m := hourPattern.FindStringSubmatch(expr); m != nil {
		if h, err := strconv.Atoi(m[1]); err == nil && h < 24 {
			if h < 12 && containsAny(expr, pmMarkers) {
				h += 12
			}
			res.Hour = h
			res.HasHour = true
		}
	}
	return res
}

// Resolve fills unset times on the command from its relative expression
// and flags the payload as ambiguous when it did.
func Resolve(cmd *Command, ref time.Time) {
	switch p := cmd.Payload.(type) {
	case *CreateEventPayload:
		if p.Start != "" || p.RelativeExpression == "" {
			return
		}
		r := ResolveRelative(ref, p.RelativeExpression)
		if !r.OK || !r.HasHour {
			p.DateIsAmbiguous = true
			return
		}
		start := r.At()
		p.Start = start.Format(WireLayout)
		if p.End == "" {
			p.End = start.Add(time.Hour).Format(WireLayout)
		}
		p.DateIsAmbiguous = true

	case *CreateTaskPayload:
		if p.Due != "" || p.RelativeExpression == "" {
			return
		}
		r := ResolveRelative(ref, p.RelativeExpression)
		p.DateIsAmbiguous = true
		if r.OK && r.HasHour {
			p.Due = r.At().Format(WireLayout)
		}

	case *ListAgendaPayload:
		if (p.From != "" && p.To != "") || p.RelativeExpression == "" {
			return
		}
		r := ResolveRelative(ref, p.RelativeExpression)
		if !r.OK {
			return
		}
		p.From = r.Day.Format(WireLayout)
		p.To = r.Day.Add(24*time.Hour - time.Second).Format(WireLayout)
	}
}

var wireLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts the time shapes models produce. Zone-less values are
// read in loc.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range wireLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}
