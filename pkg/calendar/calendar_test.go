package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jst = time.FixedZone("JST", 9*60*60)

func at(day, hour int) time.Time {
	return time.Date(2025, 10, day, hour, 0, 0, 0, jst)
}

func TestMemoryStoreSeedsDefaultCalendars(t *testing.T) {
	s := NewMemoryStore()

	cals, err := s.Calendars(context.Background())
	require.NoError(t, err)
	require.Len(t, cals, 6)
	assert.Equal(t, "cal_self", cals[0].ID)

	name, ok := s.CalendarName(context.Background(), "cal_health")
	assert.True(t, ok)
	assert.Equal(t, "健康", name)

	_, ok = s.CalendarName(context.Background(), "cal_missing")
	assert.False(t, ok)
}

func TestMemoryStoreEventLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	late, err := s.CreateEvent(ctx, Event{Title: "会議", CalendarID: "cal_work", Start: at(15, 14), End: at(15, 15)})
	require.NoError(t, err)
	early, err := s.CreateEvent(ctx, Event{Title: "眼科", CalendarID: "cal_health", Start: at(15, 9), End: at(15, 10)})
	require.NoError(t, err)
	_, err = s.CreateEvent(ctx, Event{Title: "翌日", Start: at(16, 9), End: at(16, 10)})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, late.Status)
	assert.NotEqual(t, late.ID, early.ID)

	day, err := s.ListEvents(ctx, at(15, 0), at(15, 23))
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "眼科", day[0].Title)
	assert.Equal(t, "会議", day[1].Title)

	loc := "本社"
	updated, err := s.UpdateEvent(ctx, late.ID, EventPatch{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, "本社", updated.Location)
	assert.Equal(t, "会議", updated.Title)

	require.NoError(t, s.DeleteEvent(ctx, late.ID))
	assert.ErrorIs(t, s.DeleteEvent(ctx, late.ID), ErrNotFound)
	_, err = s.UpdateEvent(ctx, late.ID, EventPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRejectsInvalidEvents(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.CreateEvent(context.Background(), Event{Start: at(15, 9), End: at(15, 10)})
	assert.Error(t, err)

	_, err = s.CreateEvent(context.Background(), Event{Title: "x", Start: at(15, 10), End: at(15, 9)})
	assert.Error(t, err)
}

func TestMemoryStoreTasks(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	due := at(16, 8)

	task, err := s.CreateTask(ctx, Task{Title: "ゴミ出し", Due: &due})
	require.NoError(t, err)
	assert.Equal(t, "normal", task.Importance)
	assert.Equal(t, StatusPending, task.Status)

	done := StatusCompleted
	task, err = s.UpdateTask(ctx, task.ID, TaskPatch{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)

	_, err = s.UpdateTask(ctx, "task_missing", TaskPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPredictors(t *testing.T) {
	assert.Equal(t, "cal_health", PredictCalendar("糖尿病クリニック", ""))
	assert.Equal(t, "cal_child", PredictCalendar("保育園のお迎え", ""))
	assert.Equal(t, "cal_work", PredictCalendar("定例", "会議室A"))
	assert.Equal(t, "cal_pension", PredictCalendar("市役所で手続き", ""))
	assert.Equal(t, "cal_live", PredictCalendar("ライブ配信", ""))
	assert.Equal(t, "cal_self", PredictCalendar("散歩", ""))

	assert.Equal(t, 60, PredictDuration("歯科検診"))
	assert.Equal(t, 45, PredictDuration("ジム"))
	assert.Equal(t, 120, PredictDuration("ライブ"))
	assert.Equal(t, 60, PredictDuration("ミーティング"))
	assert.Equal(t, 30, PredictDuration("散歩"))

	assert.Equal(t, 60, PredictReminder("税金の支払い"))
	assert.Equal(t, 30, PredictReminder("散歩"))

	assert.Equal(t, "cal_health", CalendarForHint("健康"))
	assert.Equal(t, "cal_self", CalendarForHint("生活"))
	assert.Equal(t, "cal_self", CalendarForHint("不明"))
	assert.Equal(t, "仕事", HintForCalendar("cal_work"))
}

func TestFormatAgenda(t *testing.T) {
	assert.Equal(t, "この期間に予定はありません。", FormatAgenda(nil))

	got := FormatAgenda([]Event{
		{Title: "眼科", Start: time.Date(2025, 10, 15, 9, 5, 0, 0, jst), Location: "駅前"},
		{Start: time.Date(2025, 10, 15, 14, 0, 0, 0, jst)},
	})
	assert.Equal(t, "・10月15日 09:05 眼科 (駅前)\n・10月15日 14:00 無題", got)
}
