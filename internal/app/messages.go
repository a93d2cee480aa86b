package app

import (
	"time"

	"github.com/j-veylop/llm-usage-tui/internal/models"
	"github.com/j-veylop/llm-usage-tui/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// SelectionChangedMsg is emitted by the dashboard after a navigation step.
type SelectionChangedMsg struct {
	Selection models.Selection
}

// DataUpdatedMsg tells tabs that a provider's snapshot was replaced.
type DataUpdatedMsg struct {
	Provider models.Provider
}

// CredentialSavedMsg reports that a key entered in the prompt was stored.
type CredentialSavedMsg struct {
	Provider models.Provider
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg reports a failure from a tab. It is shown as an error toast.
type ErrorMsg struct {
	Error   error
	Context string
}
