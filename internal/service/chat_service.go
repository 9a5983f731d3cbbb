package service

import (
	"context"
	"fmt"

	"oreza-assistant-be/internal/dto"
	"oreza-assistant-be/internal/pkg/logger"
	"oreza-assistant-be/pkg/ai/classifier"
	"oreza-assistant-be/pkg/ai/orchestrator"
	"oreza-assistant-be/pkg/assistant/prompt"
	"oreza-assistant-be/pkg/calendar/intent"
	"oreza-assistant-be/pkg/events"
	"oreza-assistant-be/pkg/failure"
	"oreza-assistant-be/pkg/llm"
	"oreza-assistant-be/pkg/memory"
	"oreza-assistant-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

const chatLogModule = "ChatService"

// Orchestrator picks one reply from the configured generators.
type Orchestrator interface {
	Orchestrate(ctx context.Context, messages []llm.Message, strategy orchestrator.Strategy) orchestrator.Result
}

type MoodClassifier interface {
	Classify(ctx context.Context, excerpt []llm.Message) (classifier.Analysis, error)
}

// AutoSearcher returns extra grounding for a message, if any.
type AutoSearcher interface {
	Lookup(ctx context.Context, userMessage string) (string, bool)
}

type ChatSettings struct {
	Strategy           orchestrator.Strategy
	HistoryWindow      int
	PromptWindow       int
	AnalysisInterval   int
	AnalysisWindow     int
	ContextTokenBudget int
}

func DefaultChatSettings() ChatSettings {
	return ChatSettings{
		Strategy:           orchestrator.ConcurrentRace,
		HistoryWindow:      50,
		PromptWindow:       10,
		AnalysisInterval:   3,
		AnalysisWindow:     5,
		ContextTokenBudget: 1000,
	}
}

type IChatService interface {
	SendChat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

type chatService struct {
	sessions     ISessionService
	orchestrator Orchestrator
	classifier   MoodClassifier
	searcher     AutoSearcher
	calendar     ICalendarService
	publisher    IPublisherService
	settings     ChatSettings
	logger       logger.ILogger
}

// NewChatService wires the turn pipeline. searcher and calendar are optional.
func NewChatService(
	sessions ISessionService,
	orch Orchestrator,
	moodClassifier MoodClassifier,
	searcher AutoSearcher,
	calendarService ICalendarService,
	publisher IPublisherService,
	settings ChatSettings,
	log logger.ILogger,
) IChatService {
	return &chatService{
		sessions:     sessions,
		orchestrator: orch,
		classifier:   moodClassifier,
		searcher:     searcher,
		calendar:     calendarService,
		publisher:    publisher,
		settings:     settings,
		logger:       log,
	}
}

func (s *chatService) SendChat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	strategy := s.settings.Strategy
	if req.Strategy != "" {
		parsed, err := orchestrator.ParseStrategy(req.Strategy)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		strategy = parsed
	}

	sess := s.sessions.GetOrCreate(ctx, req.SessionID)
	defer sess.BeginTurn()()

	previousReply := sess.LastAssistantReply()
	memoryContext := sess.Memory.GetContext(req.Message, s.settings.ContextTokenBudget)

	// 1. Record the user message
	sess.Append(llm.RoleUser, req.Message)
	userNode := sess.Memory.Insert(llm.RoleUser, req.Message, nil, memory.EstimateImportance(llm.RoleUser, req.Message))

	// 2. Calendar side-channel
	var calendarNote string
	if s.calendar != nil {
		if synced, ok := s.calendar.SyncFromChat(ctx, req.Message, intent.Context{LastEventID: sess.LastEventID}); ok {
			sess.LastEventID = synced.EventID
			calendarNote = synced.Confirmation
		}
	}

	// 3. Mood and themes
	s.refreshMood(ctx, sess)

	// 4. Prompt context
	system := prompt.BuildSystem(prompt.Input{
		MessageCount: len(sess.Messages),
		Mood:         sess.Mood,
		Prevention:   sess.Failures.PreventionStrategies(req.Message),
		Memory:       memoryContext,
	})
	messages := []llm.Message{{Role: llm.RoleSystem, Content: system}}

	searchUsed := false
	if s.searcher != nil {
		if info, ok := s.searcher.Lookup(ctx, req.Message); ok {
			messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: prompt.SearchContext(info)})
			searchUsed = true
		}
	}
	messages = append(messages, sess.Recent(s.settings.PromptWindow)...)

	// 5. Generate
	result := s.orchestrator.Orchestrate(ctx, messages, strategy)
	reply := result.Text + calendarNote

	sess.Append(llm.RoleAssistant, reply)
	replyNode := sess.Memory.Insert(llm.RoleAssistant, reply, nil, memory.EstimateImportance(llm.RoleAssistant, reply))
	sess.Memory.Link(userNode, replyNode)

	// 6. Learn from the exchange
	failureID := s.scanFailures(ctx, sess, req.Message, reply, previousReply)

	// 7. Bound history
	sess.Trim(s.settings.HistoryWindow)
	s.sessions.Touch(sess)

	s.publisher.Publish(ctx, events.New(events.TurnCompleted, map[string]interface{}{
		"session_id":         sess.ID,
		"strategy":           string(result.Metadata.Strategy),
		"selected_generator": result.Metadata.SelectedGenerator,
		"failed":             result.Metadata.Failed(),
		"search_used":        searchUsed,
		"message_count":      len(sess.Messages),
	}))

	s.logger.Info(chatLogModule, "Turn completed", map[string]interface{}{
		"session_id": sess.ID,
		"selected":   result.Metadata.SelectedGenerator,
		"error":      result.Metadata.Error,
	})

	return &dto.ChatResponse{
		Response:   reply,
		SessionID:  sess.ID,
		Memory:     snapshot(sess),
		Metadata:   result.Metadata,
		SearchUsed: searchUsed,
		EventID:    sess.LastEventID,
		FailureID:  failureID,
	}, nil
}

// refreshMood reclassifies once enough new messages arrived since the last
// analysis. The marker follows the running total so trimming history does
// not stall it. A failed classification keeps the previous mood and marker.
func (s *chatService) refreshMood(ctx context.Context, sess *store.Session) {
	count := sess.Total
	if count-sess.Mood.LastAnalysisCount < s.settings.AnalysisInterval {
		return
	}

	analysis, err := s.classifier.Classify(ctx, sess.Recent(s.settings.AnalysisWindow))
	if err != nil {
		s.logger.Warn(chatLogModule, "Mood analysis failed, keeping previous mood", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		return
	}

	sess.Mood.Emotion = analysis.Emotion
	sess.Mood.Intent = analysis.Intent
	sess.Mood.MergeThemes(analysis.Themes)
	sess.Mood.LastAnalysisCount = count

	s.logger.Debug(chatLogModule, "Mood updated", map[string]interface{}{
		"session_id": sess.ID,
		"emotion":    sess.Mood.Emotion,
		"themes":     sess.Mood.Themes,
	})
}

// scanFailures checks the exchange against the failure rules. Negation and
// elaboration requests blame the previous reply; tone and repetition blame
// the new one.
func (s *chatService) scanFailures(ctx context.Context, sess *store.Session, query, reply, previousReply string) string {
	kind, found := sess.Failures.Detect(query, reply, failure.DetectContext{
		Emotion:          sess.Mood.Emotion,
		PreviousResponse: previousReply,
	})
	if !found {
		return ""
	}

	offending := reply
	if kind == failure.ContextMisunderstanding || kind == failure.IncompleteAnswer {
		offending = previousReply
	}

	id := sess.Failures.Record(kind, query, offending, map[string]string{
		"session_id": sess.ID,
		"emotion":    sess.Mood.Emotion,
	})
	lesson, _ := failure.Lesson(kind)
	sess.Memory.InsertMeta(fmt.Sprintf("失敗パターン: %s - %s", kind, lesson), memory.MetaFailure, 0.8)

	s.publisher.Publish(ctx, events.New(events.FailureRecorded, map[string]interface{}{
		"session_id": sess.ID,
		"failure_id": id,
		"kind":       string(kind),
	}))
	return id
}

func snapshot(sess *store.Session) dto.MemorySnapshot {
	return dto.MemorySnapshot{
		Emotion:      sess.Mood.Emotion,
		Themes:       append([]string{}, sess.Mood.Themes...),
		Intent:       sess.Mood.Intent,
		MessageCount: len(sess.Messages),
		Tiers:        sess.Memory.Summary(),
	}
}
