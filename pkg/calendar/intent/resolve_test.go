package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jst = time.FixedZone("JST", 9*60*60)

// 2025-10-15 is a Wednesday.
var wednesday = time.Date(2025, 10, 15, 10, 30, 0, 0, jst)

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		name     string
		ref      time.Time
		expr     string
		wantOK   bool
		wantDay  string
		wantHour int
		hasHour  bool
	}{
		{name: "today", ref: wednesday, expr: "今日", wantOK: true, wantDay: "2025-10-15"},
		{name: "tomorrow with hour", ref: wednesday, expr: "明日の朝8時", wantOK: true, wantDay: "2025-10-16", wantHour: 8, hasHour: true},
		{name: "next tuesday", ref: wednesday, expr: "来週の火曜日14時", wantOK: true, wantDay: "2025-10-21", wantHour: 14, hasHour: true},
		{name: "next wednesday", ref: wednesday, expr: "来週の水曜日", wantOK: true, wantDay: "2025-10-22"},
		{name: "next thursday", ref: wednesday, expr: "来週木曜", wantOK: true, wantDay: "2025-10-23"},
		{name: "next friday", ref: wednesday, expr: "来週の金曜日", wantOK: true, wantDay: "2025-10-24"},
		{name: "next tuesday from sunday", ref: time.Date(2025, 10, 19, 9, 0, 0, 0, jst), expr: "来週の火曜日", wantOK: true, wantDay: "2025-10-21"},
		{name: "next tuesday from monday", ref: time.Date(2025, 10, 13, 9, 0, 0, 0, jst), expr: "来週の火曜日", wantOK: true, wantDay: "2025-10-21"},
		{name: "bare next week", ref: wednesday, expr: "来週"},
		{name: "next monday unsupported", ref: wednesday, expr: "来週の月曜日"},
		{name: "unknown phrase", ref: wednesday, expr: "再来月"},
		{name: "afternoon shifts hour", ref: wednesday, expr: "明日の午後3時", wantOK: true, wantDay: "2025-10-16", wantHour: 15, hasHour: true},
		{name: "evening shifts hour", ref: wednesday, expr: "今日の夜7時", wantOK: true, wantDay: "2025-10-15", wantHour: 19, hasHour: true},
		{name: "afternoon keeps 24-hour value", ref: wednesday, expr: "明日の午後15時", wantOK: true, wantDay: "2025-10-16", wantHour: 15, hasHour: true},
		{name: "morning unchanged", ref: wednesday, expr: "明日の午前9時", wantOK: true, wantDay: "2025-10-16", wantHour: 9, hasHour: true},
		{name: "invalid hour ignored", ref: wednesday, expr: "明日30時", wantOK: true, wantDay: "2025-10-16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ResolveRelative(tt.ref, tt.expr)
			assert.Equal(t, tt.wantOK, r.OK)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantDay, r.Day.Format("2006-01-02"))
			assert.Zero(t, r.Day.Hour())
			assert.Equal(t, tt.hasHour, r.HasHour)
			assert.Equal(t, tt.wantHour, r.Hour)
		})
	}
}

func TestResolveListAgendaToday(t *testing.T) {
	cmd := Command{Intent: ListAgenda, Payload: &ListAgendaPayload{RelativeExpression: "今日"}}

	Resolve(&cmd, wednesday)

	p := cmd.Payload.(*ListAgendaPayload)
	assert.Equal(t, "2025-10-15T00:00:00+09:00", p.From)
	assert.Equal(t, "2025-10-15T23:59:59+09:00", p.To)
}

func TestResolveCreateEventDefaultsOneHour(t *testing.T) {
	cmd := Command{Intent: CreateEvent, Payload: &CreateEventPayload{Title: "歯医者", RelativeExpression: "来週の火曜日14時"}}

	Resolve(&cmd, wednesday)

	p := cmd.Payload.(*CreateEventPayload)
	assert.Equal(t, "2025-10-21T14:00:00+09:00", p.Start)
	assert.Equal(t, "2025-10-21T15:00:00+09:00", p.End)
	assert.True(t, p.DateIsAmbiguous)
}

func TestResolveCreateEventWithoutHourStaysUnset(t *testing.T) {
	cmd := Command{Intent: CreateEvent, Payload: &CreateEventPayload{Title: "x", RelativeExpression: "来週"}}

	Resolve(&cmd, wednesday)

	p := cmd.Payload.(*CreateEventPayload)
	assert.Empty(t, p.Start)
	assert.True(t, p.DateIsAmbiguous)
}

func TestResolveKeepsExplicitTimes(t *testing.T) {
	cmd := Command{Intent: CreateEvent, Payload: &CreateEventPayload{
		Start:              "2025-08-08T15:30:00+09:00",
		RelativeExpression: "明日10時",
	}}

	Resolve(&cmd, wednesday)

	p := cmd.Payload.(*CreateEventPayload)
	assert.Equal(t, "2025-08-08T15:30:00+09:00", p.Start)
	assert.False(t, p.DateIsAmbiguous)
}

func TestResolveCreateTaskDue(t *testing.T) {
	cmd := Command{Intent: CreateTask, Payload: &CreateTaskPayload{Title: "ゴミ出し", RelativeExpression: "明日の朝8時"}}

	Resolve(&cmd, wednesday)

	assert.Equal(t, "2025-10-16T08:00:00+09:00", cmd.Payload.(*CreateTaskPayload).Due)
}

func TestParseTime(t *testing.T) {
	for _, s := range []string{
		"2025-10-16T08:00:00+09:00",
		"2025-10-16T08:00:00",
		"2025-10-16 08:00",
	} {
		got, ok := ParseTime(s, jst)
		require.True(t, ok, s)
		assert.Equal(t, 8, got.Hour(), s)
		assert.Equal(t, 16, got.Day(), s)
	}

	_, ok := ParseTime("来週", jst)
	assert.False(t, ok)
	_, ok = ParseTime("", jst)
	assert.False(t, ok)
}
