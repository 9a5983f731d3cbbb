package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oreza-assistant-be/internal/dto"
	"oreza-assistant-be/internal/pkg/logger"
	"oreza-assistant-be/internal/repository/memory"
	"oreza-assistant-be/pkg/calendar"
	"oreza-assistant-be/pkg/calendar/intent"
	"oreza-assistant-be/pkg/events"
)

const calendarLogModule = "CalendarService"

// chat messages mentioning any of these are offered to the translator
var calendarKeywords = []string{"予定", "スケジュール", "カレンダー", "登録", "追加", "明日", "今日", "来週", "病院", "会議"}

type ICalendarService interface {
	Dispatch(ctx context.Context, req *dto.CalendarDispatchRequest) *dto.CalendarDispatchResponse
	// SyncFromChat creates an event when a chat message clearly asks for
	// one. ok is false when nothing was created.
	SyncFromChat(ctx context.Context, text string, tc intent.Context) (result dto.CalendarSyncResult, ok bool)
}

type calendarService struct {
	translator  intent.Translator
	store       calendar.Store
	sessionRepo *memory.SessionRepository
	publisher   IPublisherService
	loc         *time.Location
	logger      logger.ILogger
}

func NewCalendarService(
	translator intent.Translator,
	store calendar.Store,
	sessionRepo *memory.SessionRepository,
	publisher IPublisherService,
	loc *time.Location,
	log logger.ILogger,
) ICalendarService {
	return &calendarService{
		translator:  translator,
		store:       store,
		sessionRepo: sessionRepo,
		publisher:   publisher,
		loc:         loc,
		logger:      log,
	}
}

func (s *calendarService) Dispatch(ctx context.Context, req *dto.CalendarDispatchRequest) *dto.CalendarDispatchResponse {
	tc := intent.Context{LastEventID: req.Context.LastEventID}
	sess, hasSession := s.sessionRepo.Get(req.SessionID)
	if hasSession {
		defer sess.BeginTurn()()
		if tc.LastEventID == "" {
			tc.LastEventID = sess.LastEventID
		}
	}

	cmd, err := s.translator.Translate(ctx, req.UserInput, tc)
	if err != nil {
		msg := "Unknown intent"
		if !errors.Is(err, intent.ErrUnknownIntent) {
			msg = err.Error()
		}
		return s.finish(ctx, &dto.CalendarDispatchResponse{Success: false, Error: msg, Parsed: &cmd})
	}

	res := s.execute(ctx, &cmd)
	if res.Success && hasSession {
		if e, ok := res.Result.(calendar.Event); ok {
			sess.LastEventID = e.ID
		}
	}
	return s.finish(ctx, res)
}

func (s *calendarService) finish(ctx context.Context, res *dto.CalendarDispatchResponse) *dto.CalendarDispatchResponse {
	data := map[string]interface{}{
		"success":              res.Success,
		"needs_disambiguation": res.NeedsDisambiguation,
	}
	if res.Parsed != nil {
		data["intent"] = string(res.Parsed.Intent)
	}
	if res.Error != "" {
		data["error"] = res.Error
		s.logger.Warn(calendarLogModule, "Calendar dispatch failed", data)
	}
	s.publisher.Publish(ctx, events.New(events.CalendarDispatched, data))
	return res
}

func dispatchError(cmd *intent.Command, msg string) *dto.CalendarDispatchResponse {
	return &dto.CalendarDispatchResponse{Success: false, Intent: cmd.Intent, Error: msg, Parsed: cmd}
}

func (s *calendarService) execute(ctx context.Context, cmd *intent.Command) *dto.CalendarDispatchResponse {
	switch p := cmd.Payload.(type) {
	case *intent.CreateEventPayload:
		if p.Start == "" {
			res := dispatchError(cmd, fmt.Sprintf("%v: start missing for CREATE_EVENT", intent.ErrAmbiguousDate))
			res.NeedsDisambiguation = true
			return res
		}
		event, err := s.newEvent(p)
		if err != nil {
			return dispatchError(cmd, err.Error())
		}
		created, err := s.store.CreateEvent(ctx, event)
		if err != nil {
			return dispatchError(cmd, err.Error())
		}
		return &dto.CalendarDispatchResponse{
			Success: true,
			Intent:  cmd.Intent,
			Result:  created,
			Parsed:  cmd,
			Message: fmt.Sprintf("予定「%s」を作成しました。", created.Title),
		}

	case *intent.UpdateEventPayload:
		if p.EventID == "" || p.EventID == intent.ContextRequired {
			return dispatchError(cmd, "event_id is required for UPDATE_EVENT")
		}
		updated, err := s.store.UpdateEvent(ctx, p.EventID, s.eventPatch(p.Patch))
		if err != nil {
			return dispatchError(cmd, err.Error())
		}
		return &dto.CalendarDispatchResponse{Success: true, Intent: cmd.Intent, Result: updated, Parsed: cmd, Message: "予定を更新しました。"}

	case *intent.DeleteEventPayload:
		if p.EventID == "" || p.EventID == intent.ContextRequired {
			return dispatchError(cmd, "event_id is required for DELETE_EVENT")
		}
		if err := s.store.DeleteEvent(ctx, p.EventID); err != nil {
			return dispatchError(cmd, err.Error())
		}
		return &dto.CalendarDispatchResponse{
			Success: true,
			Intent:  cmd.Intent,
			Result:  map[string]interface{}{"deleted": p.EventID},
			Parsed:  cmd,
			Message: "予定を削除しました。",
		}

	case *intent.ListAgendaPayload:
		from, okFrom := intent.ParseTime(p.From, s.loc)
		to, okTo := intent.ParseTime(p.To, s.loc)
		if !okFrom || !okTo {
			return dispatchError(cmd, "from_dt and to_dt are required for LIST_AGENDA")
		}
		list, err := s.store.ListEvents(ctx, from, to)
		if err != nil {
			return dispatchError(cmd, err.Error())
		}
		list = filterCalendars(list, p.CalendarFilters)
		agenda := calendar.FormatAgenda(list)
		return &dto.CalendarDispatchResponse{
			Success: true,
			Intent:  cmd.Intent,
			Result:  dto.AgendaResult{Events: list, AgendaText: agenda},
			Parsed:  cmd,
			Message: agenda,
		}

	case *intent.CreateTaskPayload:
		task := calendar.Task{
			CalendarID: calendarFor(p.CalendarHint, p.Title, ""),
			Title:      titleOrDefault(p.Title),
			Notes:      p.Notes,
			Importance: p.Importance,
		}
		if p.Due != "" {
			due, ok := intent.ParseTime(p.Due, s.loc)
			if !ok {
				return dispatchError(cmd, "due is not a valid datetime")
			}
			task.Due = &due
		} else if p.RelativeExpression != "" {
			res := dispatchError(cmd, fmt.Sprintf("%v: due missing for CREATE_TASK", intent.ErrAmbiguousDate))
			res.NeedsDisambiguation = true
			return res
		}
		created, err := s.store.CreateTask(ctx, task)
		if err != nil {
			return dispatchError(cmd, err.Error())
		}
		return &dto.CalendarDispatchResponse{
			Success: true,
			Intent:  cmd.Intent,
			Result:  created,
			Parsed:  cmd,
			Message: fmt.Sprintf("タスク「%s」を作成しました。", created.Title),
		}

	case *intent.UpdateTaskPayload:
		if p.TaskID == "" {
			return dispatchError(cmd, "task_id is required for UPDATE_TASK")
		}
		updated, err := s.store.UpdateTask(ctx, p.TaskID, s.taskPatch(p.Patch))
		if err != nil {
			return dispatchError(cmd, err.Error())
		}
		return &dto.CalendarDispatchResponse{Success: true, Intent: cmd.Intent, Result: updated, Parsed: cmd, Message: "タスクを更新しました。"}
	}

	return dispatchError(cmd, fmt.Sprintf("Unknown intent: %s", cmd.Intent))
}

func (s *calendarService) newEvent(p *intent.CreateEventPayload) (calendar.Event, error) {
	start, ok := intent.ParseTime(p.Start, s.loc)
	if !ok {
		return calendar.Event{}, fmt.Errorf("start is not a valid datetime: %q", p.Start)
	}
	title := titleOrDefault(p.Title)

	end, ok := intent.ParseTime(p.End, s.loc)
	if !ok {
		end = start.Add(time.Duration(calendar.PredictDuration(title)) * time.Minute)
	}

	reminder := calendar.PredictReminder(title)
	if len(p.Reminders) > 0 {
		reminder = p.Reminders[0].OffsetMinutes
	}

	return calendar.Event{
		CalendarID:      calendarFor(p.CalendarHint, title, p.Location),
		Title:           title,
		Description:     p.Notes,
		Start:           start,
		End:             end,
		Location:        p.Location,
		URL:             p.SourceURL,
		AllDay:          p.AllDay,
		Recurrence:      p.Recurrence,
		ReminderMinutes: reminder,
	}, nil
}

func (s *calendarService) eventPatch(raw map[string]any) calendar.EventPatch {
	var patch calendar.EventPatch
	if v, ok := stringField(raw, "title"); ok {
		patch.Title = &v
	}
	if v, ok := stringField(raw, "notes", "description"); ok {
		patch.Description = &v
	}
	if v, ok := stringField(raw, "location"); ok {
		patch.Location = &v
	}
	if v, ok := stringField(raw, "status"); ok {
		patch.Status = &v
	}
	if v, ok := stringField(raw, "start", "start_datetime"); ok {
		if t, ok := intent.ParseTime(v, s.loc); ok {
			patch.Start = &t
		}
	}
	if v, ok := stringField(raw, "end", "end_datetime"); ok {
		if t, ok := intent.ParseTime(v, s.loc); ok {
			patch.End = &t
		}
	}
	return patch
}

func (s *calendarService) taskPatch(raw map[string]any) calendar.TaskPatch {
	var patch calendar.TaskPatch
	if v, ok := stringField(raw, "title"); ok {
		patch.Title = &v
	}
	if v, ok := stringField(raw, "notes"); ok {
		patch.Notes = &v
	}
	if v, ok := stringField(raw, "importance"); ok {
		patch.Importance = &v
	}
	if v, ok := stringField(raw, "status"); ok {
		patch.Status = &v
	}
	if v, ok := stringField(raw, "due"); ok {
		if t, ok := intent.ParseTime(v, s.loc); ok {
			patch.Due = &t
		}
	}
	return patch
}

func (s *calendarService) SyncFromChat(ctx context.Context, text string, tc intent.Context) (dto.CalendarSyncResult, bool) {
	lower := strings.ToLower(text)
	matched := false
	for _, k := range calendarKeywords {
		if strings.Contains(lower, k) {
			matched = true
			break
		}
	}
	if !matched {
		return dto.CalendarSyncResult{}, false
	}

	cmd, err := s.translator.Translate(ctx, text, tc)
	if err != nil {
		return dto.CalendarSyncResult{}, false
	}
	p, ok := cmd.Payload.(*intent.CreateEventPayload)
	if !ok || p.Start == "" {
		return dto.CalendarSyncResult{}, false
	}

	event, err := s.newEvent(p)
	if err == nil {
		event, err = s.store.CreateEvent(ctx, event)
	}
	if err != nil {
		s.logger.Warn(calendarLogModule, "Calendar sync attempt failed", map[string]interface{}{"error": err.Error()})
		return dto.CalendarSyncResult{}, false
	}

	name, found := s.store.CalendarName(ctx, event.CalendarID)
	if !found {
		name = "不明"
	}
	s.publisher.Publish(ctx, events.New(events.CalendarDispatched, map[string]interface{}{
		"success":  true,
		"intent":   string(intent.CreateEvent),
		"source":   "chat",
		"event_id": event.ID,
	}))

	return dto.CalendarSyncResult{
		EventID: event.ID,
		Confirmation: fmt.Sprintf("\n\n📅 カレンダーに予定を追加しました：\n- %s\n- 日時: %s\n- カレンダー: %s",
			event.Title, event.Start.Format("2006-01-02 15:04"), name),
	}, true
}

func calendarFor(hint, title, location string) string {
	if hint != "" {
		return calendar.CalendarForHint(hint)
	}
	return calendar.PredictCalendar(title, location)
}

func titleOrDefault(title string) string {
	if strings.TrimSpace(title) == "" {
		return "無題"
	}
	return title
}

func filterCalendars(list []calendar.Event, filters []string) []calendar.Event {
	if len(filters) == 0 {
		return list
	}
	allowed := make(map[string]bool, len(filters))
	for _, f := range filters {
		allowed[f] = true
		allowed[calendar.CalendarForHint(f)] = true
	}
	out := list[:0:0]
	for _, e := range list {
		if allowed[e.CalendarID] {
			out = append(out, e)
		}
	}
	return out
}

func stringField(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k].(string); ok {
			return v, true
		}
	}
	return "", false
}
