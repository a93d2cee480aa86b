// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/llm-usage-tui/internal/api"
	"github.com/j-veylop/llm-usage-tui/internal/api/anthropic"
	"github.com/j-veylop/llm-usage-tui/internal/api/openai"
	"github.com/j-veylop/llm-usage-tui/internal/config"
	"github.com/j-veylop/llm-usage-tui/internal/logger"
	"github.com/j-veylop/llm-usage-tui/internal/models"
	"github.com/j-veylop/llm-usage-tui/internal/services/credentials"
	"github.com/j-veylop/llm-usage-tui/internal/services/usage"
	"github.com/j-veylop/llm-usage-tui/internal/store"
)

type (
	// RefreshStartedEvent is emitted when a provider refresh begins.
	RefreshStartedEvent struct {
		Provider models.Provider
	}

	// DataUpdatedEvent is emitted when a refresh result replaced a provider's
	// snapshot.
	DataUpdatedEvent struct {
		Provider   models.Provider
		Generation uint64
	}

	// CredentialsChangedEvent is emitted when admin keys change on disk or
	// are entered at runtime.
	CredentialsChangedEvent struct {
		Providers []models.Provider
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Error    error
		Service  string
		Dataset  string
		Provider models.Provider
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (RefreshStartedEvent) isServiceEvent()     {}
func (DataUpdatedEvent) isServiceEvent()        {}
func (CredentialsChangedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()              {}

// FetcherFactory builds the fetcher for a provider from its admin key.
type FetcherFactory func(p models.Provider, key string) usage.Fetcher

// Manager orchestrates services and event routing.
type Manager struct {
	ctx         context.Context
	cancel      context.CancelFunc
	credentials *credentials.Service
	usage       *usage.Service
	store       *store.Store
	newFetcher  FetcherFactory
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	alerted     map[models.Provider]time.Time
	subscribers []chan<- ServiceEvent
	wg          sync.WaitGroup
	alertAbove  float64
	mu          sync.RWMutex
}

// NewManager creates a new service manager with API clients built from cfg.
func NewManager(cfg *config.Config) (*Manager, error) {
	return NewManagerWithFactory(cfg, ClientFactory(cfg))
}

// NewManagerWithFactory creates a manager that builds fetchers with factory.
func NewManagerWithFactory(cfg *config.Config, factory FetcherFactory) (*Manager, error) {
	creds, err := credentials.New(cfg.Credentials(), cfg.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.EnvFile, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	st := store.New()
	m := &Manager{
		ctx:         ctx,
		cancel:      cancel,
		credentials: creds,
		store:       st,
		usage:       usage.New(st, nil),
		newFetcher:  factory,
		eventChan:   make(chan ServiceEvent, 100),
		stopChan:    make(chan struct{}),
		alerted:     make(map[models.Provider]time.Time),
		alertAbove:  cfg.CostAlertThreshold,
	}

	for _, p := range creds.Configured() {
		m.usage.SetFetcher(p, factory(p, creds.Get(p)))
	}

	go m.routeEvents()

	return m, nil
}

// ClientFactory returns a factory for the real provider API clients.
func ClientFactory(cfg *config.Config) FetcherFactory {
	retry := api.DefaultRetryConfig
	retry.MaxRetries = cfg.MaxRetries
	opts := api.Options{Timeout: cfg.RequestTimeout, Retry: retry}

	return func(p models.Provider, key string) usage.Fetcher {
		switch p {
		case models.ProviderAnthropic:
			return anthropic.New(key, cfg.AnthropicBaseURL, opts)
		default:
			return openai.New(key, cfg.OpenAIBaseURL, opts)
		}
	}
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.credentials.Events():
			m.handleCredentialsEvent(event)

		case event := <-m.usage.Events():
			m.handleUsageEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

// handleCredentialsEvent swaps fetchers for changed keys and refetches.
func (m *Manager) handleCredentialsEvent(event credentials.Event) {
	switch event.Type {
	case credentials.EventCredentialsChanged:
		for _, p := range event.Providers {
			m.installFetcher(p)
			m.Refresh(p)
		}
		m.broadcast(CredentialsChangedEvent{Providers: event.Providers})

	case credentials.EventError:
		m.broadcast(ErrorEvent{
			Service: "credentials",
			Error:   event.Error,
		})
	}
}

func (m *Manager) handleUsageEvent(event usage.Event) {
	switch event.Type {
	case usage.EventRefreshing:
		m.broadcast(RefreshStartedEvent{Provider: event.Provider})

	case usage.EventUpdated:
		m.checkCostAlert(event.Provider)
		m.broadcast(DataUpdatedEvent{
			Provider:   event.Provider,
			Generation: event.Generation,
		})

	case usage.EventError:
		m.broadcast(ErrorEvent{
			Service:  "usage",
			Provider: event.Provider,
			Dataset:  event.Dataset,
			Error:    event.Error,
		})
	}
}

// checkCostAlert notifies once per day when the latest day's spend for a
// provider exceeds the alert threshold.
func (m *Manager) checkCostAlert(p models.Provider) {
	if m.alertAbove <= 0 {
		return
	}
	snap := m.store.Snapshot(p)
	if snap == nil || !snap.CostState.Loaded {
		return
	}

	day := snap.Window.End
	total := decimal.Zero
	for _, r := range snap.Cost {
		if r.Date.Equal(day) {
			total = total.Add(r.Amount)
		}
	}
	if !total.GreaterThan(decimal.NewFromFloat(m.alertAbove)) {
		return
	}
	if last, ok := m.alerted[p]; ok && last.Equal(day) {
		return
	}
	m.alerted[p] = day

	title := fmt.Sprintf("%s spend alert", p)
	body := fmt.Sprintf("Spend today is %s, above %s", models.FormatCost(total.InexactFloat64()), models.FormatCost(m.alertAbove))
	if err := beeep.Notify(title, body, ""); err != nil {
		logger.Warn("failed to send notification", "error", err)
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	// Send to subscribers
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Store returns the aggregation store.
func (m *Manager) Store() *store.Store {
	return m.store
}

// HasCredential reports whether a provider has an admin key.
func (m *Manager) HasCredential(p models.Provider) bool {
	return m.credentials.Has(p)
}

// Configured returns the providers with an admin key.
func (m *Manager) Configured() []models.Provider {
	return m.credentials.Configured()
}

// SetCredential stores a key entered in the TUI and refetches the provider.
func (m *Manager) SetCredential(p models.Provider, key string) {
	if !m.credentials.Set(p, key) {
		return
	}
	m.installFetcher(p)
	m.broadcast(CredentialsChangedEvent{Providers: []models.Provider{p}})
	m.Refresh(p)
}

func (m *Manager) installFetcher(p models.Provider) {
	key := m.credentials.Get(p)
	if key == "" {
		m.usage.SetFetcher(p, nil)
		return
	}
	m.usage.SetFetcher(p, m.newFetcher(p, key))
}

// Refresh starts a background refresh of one provider. Progress and results
// arrive as events.
func (m *Manager) Refresh(p models.Provider) {
	if m.ctx.Err() != nil || !m.usage.HasFetcher(p) {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.usage.Refresh(m.ctx, p); err != nil {
			logger.Error("refresh failed", "provider", p, "error", err)
		}
	}()
}

// RefreshAll starts a background refresh of every configured provider.
func (m *Manager) RefreshAll() {
	for _, p := range m.credentials.Configured() {
		m.Refresh(p)
	}
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	m.cancel()
	m.wg.Wait()
	close(m.stopChan)

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if err := m.credentials.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
