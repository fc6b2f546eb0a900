package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable/internal/dto"
	"github.com/noah-isme/campus-timetable/internal/models"
	appErrors "github.com/noah-isme/campus-timetable/pkg/errors"
)

type notificationInboxRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, exec sqlx.ExtContext, userID string) (int64, error)
}

// NotificationService serves a user's in-app notifications.
type NotificationService struct {
	repo   notificationInboxRepository
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationInboxRepository, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// Inbox lists the user's notifications newest first and marks them read.
// Returned items keep the read flag they had before the listing.
func (s *NotificationService) Inbox(ctx context.Context, userID string) (*dto.NotificationInbox, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, appErrors.ErrUnauthorized
	}
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}

	unread := lo.CountBy(items, func(n models.Notification) bool { return !n.IsRead })
	if unread > 0 {
		marked, err := s.repo.MarkAllRead(ctx, nil, userID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
		}
		s.logger.Debug("notifications marked read", zap.String("user_id", userID), zap.Int64("count", marked))
	}
	return &dto.NotificationInbox{Notifications: items, Unread: unread}, nil
}
