package app

import (
	"testing"
	"time"

	"github.com/j-veylop/llm-usage-tui/internal/models"
)

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if s.AnyRefreshing() {
		t.Error("nothing should be refreshing")
	}
	if got := s.Nav().Selection; got != models.DefaultSelection() {
		t.Errorf("Nav().Selection = %+v, want default", got)
	}
	if !s.GetLastUpdated().IsZero() {
		t.Error("LastUpdated should be zero")
	}
}

func TestState_SetRefreshing(t *testing.T) {
	s := NewState()

	s.SetRefreshing(models.ProviderAnthropic, true)
	s.SetRefreshing(models.ProviderOpenAI, true)
	got := s.RefreshingProviders()
	if len(got) != 2 || got[0] != models.ProviderOpenAI || got[1] != models.ProviderAnthropic {
		t.Errorf("RefreshingProviders = %v, want display order", got)
	}

	s.SetRefreshing(models.ProviderOpenAI, false)
	if !s.AnyRefreshing() {
		t.Error("Anthropic is still refreshing")
	}
	if s.GetLastUpdated().IsZero() {
		t.Error("finishing a refresh should set LastUpdated")
	}

	s.SetRefreshing(models.ProviderAnthropic, false)
	if s.AnyRefreshing() {
		t.Error("AnyRefreshing should be false")
	}
}

func TestState_Nav(t *testing.T) {
	s := NewState()
	st := s.Nav().Right()
	s.SetNav(st)
	if s.Nav().Focus != models.ColumnMetric {
		t.Errorf("Focus = %v, want metric column", s.Nav().Focus)
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationInfo, "test", time.Minute)
	if id == "" {
		t.Error("AddNotification returned empty ID")
	}

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("GetNotifications len = %d, want 1", len(notifs))
	}
	if notifs[0].Message != "test" {
		t.Errorf("Notification message = %s, want test", notifs[0].Message)
	}

	s.RemoveNotification(id)
	if len(s.GetNotifications()) != 0 {
		t.Error("Notification should be removed")
	}
}

func TestState_ClearExpiredNotifications(t *testing.T) {
	s := NewState()

	// Expired
	s.notifications = append(s.notifications, Notification{
		ID:        "expired",
		CreatedAt: time.Now().Add(-2 * time.Minute),
		Duration:  time.Minute,
	})

	// Active
	s.notifications = append(s.notifications, Notification{
		ID:        "active",
		CreatedAt: time.Now(),
		Duration:  time.Minute,
	})

	s.ClearExpiredNotifications()

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != "active" {
		t.Errorf("Expected active notification, got %s", notifs[0].ID)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("loading...")
	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != LoadingNotificationID {
		t.Errorf("Expected ID %s, got %s", LoadingNotificationID, notifs[0].ID)
	}
	if notifs[0].Message != "loading..." {
		t.Errorf("Expected message loading..., got %s", notifs[0].Message)
	}

	// Update message
	s.SetLoadingNotification("still loading...")
	notifs = s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification after update")
	}
	if notifs[0].Message != "still loading..." {
		t.Errorf("Expected message still loading..., got %s", notifs[0].Message)
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("Loading notification should be cleared")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		t    NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
		{NotificationLoading, "loading"},
		{NotificationType(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
