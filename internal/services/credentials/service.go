// Package credentials keeps the provider admin keys and reloads them when the
// env file changes on disk.
package credentials

import (
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/llm-usage-tui/internal/config"
	"github.com/j-veylop/llm-usage-tui/internal/logger"
	"github.com/j-veylop/llm-usage-tui/internal/models"
)

// Event represents a credentials service event.
type Event struct {
	Error error
	// Providers lists the providers whose key changed.
	Providers []models.Provider
	Type      EventType
}

// EventType defines the type of credentials event.
type EventType int

const (
	// EventCredentialsChanged indicates that one or more keys changed.
	EventCredentialsChanged EventType = iota
	// EventError indicates that the env file could not be watched or read.
	EventError
)

const debounceInterval = 100 * time.Millisecond

// Service holds admin keys with optional env file watching.
type Service struct {
	keys          map[models.Provider]string
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	filePath      string
	mu            sync.RWMutex
}

// New creates a service seeded with initial keys. When filePath is not
// empty the file is watched and keys it defines replace the current ones.
func New(initial map[models.Provider]string, filePath string) (*Service, error) {
	s := &Service{
		keys:      maps.Clone(initial),
		eventChan: make(chan Event, 10),
		stopChan:  make(chan struct{}),
		filePath:  filePath,
	}
	if s.keys == nil {
		s.keys = make(map[models.Provider]string)
	}

	if filePath != "" {
		if err := s.startWatcher(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Get returns the admin key for a provider, or "".
func (s *Service) Get(p models.Provider) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[p]
}

// Has reports whether a provider has an admin key.
func (s *Service) Has(p models.Provider) bool {
	return s.Get(p) != ""
}

// Configured returns the providers that have a key, in display order.
func (s *Service) Configured() []models.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Provider
	for _, p := range models.Providers {
		if s.keys[p] != "" {
			out = append(out, p)
		}
	}
	return out
}

// Set stores a key entered at runtime. It reports whether the key changed.
func (s *Service) Set(p models.Provider, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[p] == key {
		return false
	}
	s.keys[p] = key
	return true
}

func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory (to catch editors that replace the file)
	dir := filepath.Dir(s.filePath)
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

func (s *Service) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
				s.mu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) handleFileChange() {
	keys, err := config.ReadCredentials(s.filePath)
	if err != nil {
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	var changed []models.Provider
	s.mu.Lock()
	for p, key := range keys {
		if s.keys[p] != key {
			s.keys[p] = key
			changed = append(changed, p)
		}
	}
	s.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	slices.Sort(changed)
	logger.Info("credentials reloaded", "file", s.filePath, "providers", changed)
	s.sendEvent(Event{Type: EventCredentialsChanged, Providers: changed})
}

func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops watching the env file.
func (s *Service) Close() error {
	close(s.stopChan)

	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
