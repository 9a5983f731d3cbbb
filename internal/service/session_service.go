package service

import (
	"context"
	"time"

	"oreza-assistant-be/internal/dto"
	"oreza-assistant-be/internal/pkg/logger"
	"oreza-assistant-be/internal/repository/memory"
	"oreza-assistant-be/pkg/events"
	"oreza-assistant-be/pkg/failure"
	mem "oreza-assistant-be/pkg/memory"
	"oreza-assistant-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionService interface {
	// GetOrCreate returns the session for id, or a fresh session with a new
	// id when id is empty or unknown.
	GetOrCreate(ctx context.Context, id string) *store.Session
	Create(ctx context.Context) *dto.SessionResponse
	Touch(session *store.Session)
	Clear(ctx context.Context, id string) error
	Memory(ctx context.Context, id string) (*dto.SessionMemoryResponse, error)
	Failures(ctx context.Context, id string) (*dto.SessionFailuresResponse, error)
	CorrectFailure(ctx context.Context, id, failureID string, req *dto.CorrectFailureRequest) (*dto.CorrectFailureResponse, error)
	Count() int
}

type sessionService struct {
	repo      *memory.SessionRepository
	publisher IPublisherService
	logger    logger.ILogger
	memOpts   []mem.Option
	now       func() time.Time
}

func NewSessionService(repo *memory.SessionRepository, publisher IPublisherService, log logger.ILogger, memOpts ...mem.Option) ISessionService {
	return &sessionService{
		repo:      repo,
		publisher: publisher,
		logger:    log,
		memOpts:   memOpts,
		now:       time.Now,
	}
}

func (s *sessionService) GetOrCreate(ctx context.Context, id string) *store.Session {
	if id != "" {
		if sess, ok := s.repo.Get(id); ok {
			return sess
		}
		s.logger.Info("SessionService", "Unknown session id, starting a new session", map[string]interface{}{"requested_id": id})
	}
	return s.create(ctx)
}

func (s *sessionService) create(ctx context.Context) *store.Session {
	id := uuid.NewString()
	sess := store.NewSession(id, mem.NewSystem(s.logger, s.memOpts...), failure.NewStore(s.logger), s.now())
	s.repo.Save(sess)

	s.publisher.Publish(ctx, events.New(events.SessionCreated, map[string]interface{}{"session_id": id}))
	return sess
}

func (s *sessionService) Create(ctx context.Context) *dto.SessionResponse {
	return toSessionResponse(s.create(ctx))
}

// Touch records activity and restarts the session's idle timer.
func (s *sessionService) Touch(session *store.Session) {
	session.LastActiveAt = s.now()
	s.repo.Save(session)
}

func (s *sessionService) Clear(ctx context.Context, id string) error {
	if !s.repo.Delete(id) {
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	}
	s.publisher.Publish(ctx, events.New(events.SessionCleared, map[string]interface{}{"session_id": id}))
	return nil
}

func (s *sessionService) lookup(id string) (*store.Session, error) {
	sess, ok := s.repo.Get(id)
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "Session not found")
	}
	return sess, nil
}

func (s *sessionService) Memory(_ context.Context, id string) (*dto.SessionMemoryResponse, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return &dto.SessionMemoryResponse{
		SessionID: sess.ID,
		Mood:      sess.Mood,
		Summary:   sess.Memory.Summary(),
		Insights:  sess.Memory.MetaInsights(),
	}, nil
}

func (s *sessionService) Failures(_ context.Context, id string) (*dto.SessionFailuresResponse, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return &dto.SessionFailuresResponse{
		SessionID: sess.ID,
		Summary:   sess.Failures.Summary(),
		Lessons:   sess.Failures.LessonsLearned(),
		Patterns:  sess.Failures.Patterns(),
	}, nil
}

func (s *sessionService) CorrectFailure(_ context.Context, id, failureID string, req *dto.CorrectFailureRequest) (*dto.CorrectFailureResponse, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if _, ok := sess.Failures.Get(failureID); !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "Failure not found")
	}
	return &dto.CorrectFailureResponse{
		FailureID: failureID,
		Message:   sess.Failures.Correct(failureID, req.CorrectResponse),
	}, nil
}

func (s *sessionService) Count() int {
	return s.repo.Count()
}

func toSessionResponse(sess *store.Session) *dto.SessionResponse {
	return &dto.SessionResponse{
		SessionID:    sess.ID,
		MessageCount: len(sess.Messages),
		CreatedAt:    sess.CreatedAt,
		LastActiveAt: sess.LastActiveAt,
	}
}
