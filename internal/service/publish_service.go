package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable/internal/dto"
	"github.com/noah-isme/campus-timetable/internal/models"
	appErrors "github.com/noah-isme/campus-timetable/pkg/errors"
	"github.com/noah-isme/campus-timetable/pkg/jobs"
)

const (
	defaultPublishTitle   = "Timetable Published"
	defaultPublishMessage = "The final academic schedule is now live."

	// NotificationJobType tags notification delivery jobs.
	NotificationJobType = "timetable.notification"
)

type publishEntryReader interface {
	ListFacultyUsers(ctx context.Context, exec sqlx.ExtContext) ([]string, error)
}

type notificationWriter interface {
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, notifications []models.Notification) error
}

type notificationQueue interface {
	Enqueue(job jobs.Job) error
}

// NotificationDispatcher delivers a stored notification to its recipient.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, notification models.Notification) error
}

// LogDispatcher records deliveries in the service log. Delivery transports
// live outside this service.
type LogDispatcher struct {
	logger *zap.Logger
}

// NewLogDispatcher constructs a LogDispatcher.
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogDispatcher{logger: logger}
}

// Dispatch implements NotificationDispatcher.
func (d *LogDispatcher) Dispatch(_ context.Context, notification models.Notification) error {
	d.logger.Info("notification dispatched",
		zap.String("notification_id", notification.ID),
		zap.String("user_id", notification.UserID),
		zap.String("title", notification.Title),
	)
	return nil
}

// NotificationJobHandler adapts a dispatcher to the jobs queue.
func NotificationJobHandler(dispatcher NotificationDispatcher) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		notification, ok := job.Payload.(models.Notification)
		if !ok {
			return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
		}
		return dispatcher.Dispatch(ctx, notification)
	}
}

// PublishService announces the current timetable to its faculty.
type PublishService struct {
	entries       publishEntryReader
	notifications notificationWriter
	tx            txProvider
	queue         notificationQueue
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewPublishService constructs a PublishService.
func NewPublishService(entries publishEntryReader, notifications notificationWriter, tx txProvider, queue notificationQueue, validate *validator.Validate, logger *zap.Logger) *PublishService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishService{
		entries:       entries,
		notifications: notifications,
		tx:            tx,
		queue:         queue,
		validator:     validate,
		logger:        logger,
	}
}

// Publish stores one notification per faculty user holding an entry and
// queues them for delivery.
func (s *PublishService) Publish(ctx context.Context, req dto.PublishRequest) (*dto.PublishResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publish payload")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultPublishTitle
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		message = defaultPublishMessage
	}

	users, err := s.entries.ListFacultyUsers(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve faculty recipients")
	}
	users = lo.Uniq(lo.Filter(users, func(id string, _ int) bool { return strings.TrimSpace(id) != "" }))
	if len(users) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "the current timetable has no faculty to notify")
	}

	notifications := lo.Map(users, func(userID string, _ int) models.Notification {
		return models.Notification{UserID: userID, Title: title, Message: message}
	})

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.notifications.CreateBatch(ctx, tx, notifications); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store notifications")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit notifications")
		return nil, err
	}

	queued := 0
	if s.queue != nil {
		for _, notification := range notifications {
			if qerr := s.queue.Enqueue(jobs.Job{ID: notification.ID, Type: NotificationJobType, Payload: notification}); qerr != nil {
				s.logger.Warn("failed to queue notification", zap.String("user_id", notification.UserID), zap.Error(qerr))
				continue
			}
			queued++
		}
	}

	s.logger.Info("timetable published", zap.Int("notified", len(notifications)), zap.Int("queued", queued))
	return &dto.PublishResult{Notified: len(notifications), UserIDs: users}, nil
}
