package service

import (
	"context"
	"errors"
	"testing"

	"oreza-assistant-be/internal/dto"
	"oreza-assistant-be/pkg/events"
	"oreza-assistant-be/pkg/failure"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateWithoutIDMintsFreshSession(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newTestSessions(pub)

	a := svc.GetOrCreate(context.Background(), "")
	b := svc.GetOrCreate(context.Background(), "")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Empty(t, a.Messages)
	assert.NotNil(t, a.Memory)
	assert.NotNil(t, a.Failures)
	assert.Equal(t, 2, svc.Count())
	assert.Equal(t, 2, pub.count(events.SessionCreated))
}

func TestGetOrCreateReturnsExisting(t *testing.T) {
	svc, _ := newTestSessions(&recordingPublisher{})

	created := svc.Create(context.Background())
	got := svc.GetOrCreate(context.Background(), created.SessionID)

	assert.Equal(t, created.SessionID, got.ID)
	assert.Equal(t, 1, svc.Count())
}

func TestClearSession(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newTestSessions(pub)
	created := svc.Create(context.Background())

	require.NoError(t, svc.Clear(context.Background(), created.SessionID))
	assert.Zero(t, svc.Count())
	assert.Equal(t, 1, pub.count(events.SessionCleared))

	err := svc.Clear(context.Background(), created.SessionID)
	var fe *fiber.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, fiber.StatusNotFound, fe.Code)
}

func TestMemoryAndFailureReportsRequireSession(t *testing.T) {
	svc, _ := newTestSessions(&recordingPublisher{})

	_, err := svc.Memory(context.Background(), "missing")
	assert.Error(t, err)
	_, err = svc.Failures(context.Background(), "missing")
	assert.Error(t, err)
}

func TestCorrectFailure(t *testing.T) {
	svc, _ := newTestSessions(&recordingPublisher{})
	sess := svc.GetOrCreate(context.Background(), "")
	id := sess.Failures.Record(failure.IncorrectInformation, "東京の人口は？", "100人です", nil)

	res, err := svc.CorrectFailure(context.Background(), sess.ID, id, &dto.CorrectFailureRequest{CorrectResponse: "約1400万人です"})
	require.NoError(t, err)
	assert.Contains(t, res.Message, "約1400万人です")

	rec, ok := sess.Failures.Get(id)
	require.True(t, ok)
	assert.True(t, rec.Corrected)
	assert.Equal(t, "約1400万人です", rec.CorrectResponse)

	_, err = svc.CorrectFailure(context.Background(), sess.ID, "failure_999", &dto.CorrectFailureRequest{CorrectResponse: "x"})
	assert.Error(t, err)
}

func TestSessionReports(t *testing.T) {
	svc, _ := newTestSessions(&recordingPublisher{})
	sess := svc.GetOrCreate(context.Background(), "")

	memReport, err := svc.Memory(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "neutral", memReport.Mood.Emotion)
	assert.Empty(t, memReport.Insights.Failures)

	failReport, err := svc.Failures(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Len(t, failReport.Patterns, 4)
	assert.Zero(t, failReport.Summary.TotalFailures)
}
