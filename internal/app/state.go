// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/llm-usage-tui/internal/models"
	"github.com/j-veylop/llm-usage-tui/internal/nav"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// State is shared between the root model and the tabs. The selector state
// lives here so the root model can react to provider switches.
type State struct {
	lastUpdated     time.Time
	refreshing      map[models.Provider]bool
	notifications   []Notification
	nav             nav.State
	notificationSeq int
	mu              sync.RWMutex
}

// NewState creates the initial state.
func NewState() *State {
	return &State{
		nav:           nav.New(),
		refreshing:    make(map[models.Provider]bool),
		notifications: make([]Notification, 0),
	}
}

// Nav returns the selector state.
func (s *State) Nav() nav.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nav
}

// SetNav replaces the selector state.
func (s *State) SetNav(st nav.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav = st
}

// SetRefreshing records whether a provider has a refresh in flight.
func (s *State) SetRefreshing(p models.Provider, refreshing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing[p] = refreshing
	if !refreshing {
		s.lastUpdated = time.Now()
	}
}

// AnyRefreshing returns true if any provider is refreshing.
func (s *State) AnyRefreshing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.refreshing {
		if r {
			return true
		}
	}
	return false
}

// RefreshingProviders returns the providers with a refresh in flight, in
// display order.
func (s *State) RefreshingProviders() []models.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Provider
	for _, p := range models.Providers {
		if s.refreshing[p] {
			out = append(out, p)
		}
	}
	return out
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

// GetLastUpdated returns the last time a refresh finished.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}
