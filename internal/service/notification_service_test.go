package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable/internal/models"
	appErrors "github.com/noah-isme/campus-timetable/pkg/errors"
)

type inboxRepoStub struct {
	items    []models.Notification
	listErr  error
	markErr  error
	markedBy []string
}

func (s *inboxRepoStub) ListByUser(_ context.Context, userID string) ([]models.Notification, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Notification
	for _, n := range s.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *inboxRepoStub) MarkAllRead(_ context.Context, _ sqlx.ExtContext, userID string) (int64, error) {
	if s.markErr != nil {
		return 0, s.markErr
	}
	s.markedBy = append(s.markedBy, userID)
	return 1, nil
}

func TestNotificationServiceInboxMarksRead(t *testing.T) {
	now := time.Now()
	repo := &inboxRepoStub{items: []models.Notification{
		{ID: "n2", UserID: "u1", Title: "Timetable Published", CreatedAt: now},
		{ID: "n1", UserID: "u1", Title: "Timetable Published", IsRead: true, CreatedAt: now.Add(-time.Hour)},
		{ID: "n3", UserID: "u2", Title: "Timetable Published", CreatedAt: now},
	}}
	svc := NewNotificationService(repo, nil)

	inbox, err := svc.Inbox(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, inbox.Notifications, 2)
	assert.Equal(t, "n2", inbox.Notifications[0].ID)
	assert.Equal(t, 1, inbox.Unread)
	assert.Equal(t, []string{"u1"}, repo.markedBy)
}

func TestNotificationServiceInboxSkipsUpdateWhenAllRead(t *testing.T) {
	repo := &inboxRepoStub{items: []models.Notification{{ID: "n1", UserID: "u1", IsRead: true}}}
	svc := NewNotificationService(repo, nil)

	inbox, err := svc.Inbox(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, inbox.Unread)
	assert.Empty(t, repo.markedBy)

	inbox, err = svc.Inbox(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, inbox.Notifications)
	assert.Empty(t, inbox.Notifications)
}

func TestNotificationServiceInboxErrors(t *testing.T) {
	svc := NewNotificationService(&inboxRepoStub{}, nil)
	_, err := svc.Inbox(context.Background(), "")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	svc = NewNotificationService(&inboxRepoStub{listErr: errors.New("db down")}, nil)
	_, err = svc.Inbox(context.Background(), "u1")
	assert.True(t, errors.Is(err, appErrors.ErrInternal))

	repo := &inboxRepoStub{
		items:   []models.Notification{{ID: "n1", UserID: "u1"}},
		markErr: errors.New("db down"),
	}
	svc = NewNotificationService(repo, nil)
	_, err = svc.Inbox(context.Background(), "u1")
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}
