package service

import (
	"context"
	"errors"
	"os"
	"time"

	"oreza-assistant-be/internal/dto"
	"oreza-assistant-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// zapcore.ISO8601TimeEncoder output
const zapTimeLayout = "2006-01-02T15:04:05.000Z0700"

type IAdminService interface {
	Health(ctx context.Context) *dto.HealthResponse
	GetSystemLogs(ctx context.Context, page, limit int, level string) ([]*dto.LogListResponse, error)
	GetLogDetail(ctx context.Context, logId string) (*dto.LogDetailResponse, error)
}

type adminService struct {
	sessions   ISessionService
	generators []string
	logger     logger.ILogger
	startedAt  time.Time
}

func NewAdminService(sessions ISessionService, generators []string, log logger.ILogger) IAdminService {
	return &adminService{
		sessions:   sessions,
		generators: generators,
		logger:     log,
		startedAt:  time.Now(),
	}
}

func (s *adminService) Health(_ context.Context) *dto.HealthResponse {
	now := time.Now()
	return &dto.HealthResponse{
		Status:         "ok",
		PID:            os.Getpid(),
		UptimeSeconds:  int64(now.Sub(s.startedAt).Seconds()),
		ActiveSessions: s.sessions.Count(),
		Generators:     s.generators,
		Timestamp:      now,
	}
}

func (s *adminService) GetSystemLogs(_ context.Context, page, limit int, level string) ([]*dto.LogListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	logs, err := s.logger.GetLogs(level, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.LogListResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toLogListResponse(l))
	}
	return res, nil
}

func (s *adminService) GetLogDetail(_ context.Context, logId string) (*dto.LogDetailResponse, error) {
	l, err := s.logger.GetLogById(logId)
	if err != nil {
		if errors.Is(err, logger.ErrLogNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Log not found")
		}
		return nil, err
	}
	return &dto.LogDetailResponse{
		LogListResponse: *toLogListResponse(*l),
		Details:         l.Details,
	}, nil
}

func toLogListResponse(l logger.LogEntry) *dto.LogListResponse {
	ts, err := time.Parse(zapTimeLayout, l.Timestamp)
	if err != nil {
		ts, _ = time.Parse(time.RFC3339, l.Timestamp)
	}
	return &dto.LogListResponse{
		Id:        l.Id,
		Level:     l.Level,
		Module:    l.Module,
		Message:   l.Message,
		CreatedAt: ts,
	}
}
