package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/bugtracker/internal/service"
)

// NotificationWorker binds the notification service to the ticket event
// stream. Delivery is synchronous with event publication; the worker only
// owns handler registration.
type NotificationWorker struct {
	notifications *service.NotificationService
	logger        *zap.Logger
}

// StartNotificationWorker subscribes the notification handlers and returns
// the worker.
func StartNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) *NotificationWorker {
	w := &NotificationWorker{notifications: notifications, logger: logger}
	if notifications == nil {
		logger.Warn("notification service not configured; skipping worker")
		return w
	}
	notifications.RegisterHandlers()
	logger.Info("notification worker subscribed to ticket events")
	return w
}
