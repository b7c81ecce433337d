package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a telemetry event emitted while loading workspaces.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Source identifies where the event originated.
	Source string `json:"source"`

	// ManifestPath is the manifest the event relates to, if applicable.
	ManifestPath string `json:"manifest_path,omitempty"`

	// PackageID is the cargo package id the event relates to, if applicable.
	PackageID string `json:"package_id,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for common event types.
const (
	EventTypeWorkspaceBuilt       = "workspace.built"
	EventTypeWorkspaceBuildFailed = "workspace.build_failed"
	EventTypeInconsistency        = "workspace.inconsistency"
	EventTypeManifestChanged      = "manifest.changed"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be processed.
type EventFilter func(event Event) bool

// EventPublisher delivers events to subscribers, inline or from a buffered
// goroutine when EventsConfig.EnableAsync is set.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []subscription
	wg          sync.WaitGroup
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// subscription receives the events that pass every one of its filters.
type subscription struct {
	handle  EventSubscriber
	filters []EventFilter
}

func (s subscription) accepts(event Event) bool {
	for _, filter := range s.filters {
		if !filter(event) {
			return false
		}
	}
	return true
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	if !cfg.Enabled {
		return &EventPublisher{config: cfg}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	ep := &EventPublisher{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	if cfg.EnableAsync {
		ep.buffer = make(chan Event, cfg.BufferSize)
		ep.wg.Add(1)
		go ep.processEvents()
	}

	return ep, nil
}

// Publish stamps event with an id and timestamp when missing and hands it
// to the subscribers. Publishing on a disabled publisher is a no-op.
func (ep *EventPublisher) Publish(event Event) error {
	if ep == nil || !ep.config.Enabled {
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if !ep.config.EnableAsync {
		ep.deliverEvent(event)
		return nil
	}

	select {
	case ep.buffer <- event:
		return nil
	case <-ep.ctx.Done():
		return fmt.Errorf("event publisher stopped")
	default:
		return fmt.Errorf("event buffer full, %s event dropped", event.Type)
	}
}

// PublishWorkspaceBuilt publishes a workspace built event.
func (ep *EventPublisher) PublishWorkspaceBuilt(manifestPath string, packages, targets, inconsistencies int, duration time.Duration) error {
	return ep.Publish(Event{
		Type:         EventTypeWorkspaceBuilt,
		Source:       "workspace",
		ManifestPath: manifestPath,
		Message:      fmt.Sprintf("Workspace %s built with %d packages", manifestPath, packages),
		Level:        EventLevelInfo,
		Data: map[string]interface{}{
			"packages":        packages,
			"targets":         targets,
			"inconsistencies": inconsistencies,
			"duration":        duration.Seconds(),
		},
	})
}

// PublishWorkspaceBuildFailed publishes a workspace build failure event.
func (ep *EventPublisher) PublishWorkspaceBuildFailed(manifestPath, reason string) error {
	return ep.Publish(Event{
		Type:         EventTypeWorkspaceBuildFailed,
		Source:       "workspace",
		ManifestPath: manifestPath,
		Message:      fmt.Sprintf("Workspace %s failed to build: %s", manifestPath, reason),
		Level:        EventLevelError,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// PublishInconsistency publishes a skipped resolve node or edge.
func (ep *EventPublisher) PublishInconsistency(manifestPath, kind, packageID, message string) error {
	return ep.Publish(Event{
		Type:         EventTypeInconsistency,
		Source:       "workspace",
		ManifestPath: manifestPath,
		PackageID:    packageID,
		Message:      message,
		Level:        EventLevelWarning,
		Data: map[string]interface{}{
			"kind": kind,
		},
	})
}

// PublishManifestChanged publishes a watched manifest change.
func (ep *EventPublisher) PublishManifestChanged(manifestPath, changedFile, op string) error {
	return ep.Publish(Event{
		Type:         EventTypeManifestChanged,
		Source:       "watch",
		ManifestPath: manifestPath,
		Message:      fmt.Sprintf("%s changed (%s)", changedFile, op),
		Level:        EventLevelInfo,
		Data: map[string]interface{}{
			"file": changedFile,
			"op":   op,
		},
	})
}

// Subscribe registers subscriber for the events that pass all of filters.
// Nil filters are ignored, so Subscribe(fn) receives every event.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filters ...EventFilter) {
	sub := subscription{handle: subscriber}
	for _, filter := range filters {
		if filter != nil {
			sub.filters = append(sub.filters, filter)
		}
	}

	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.subscribers = append(ep.subscribers, sub)
}

// processEvents delivers buffered events until the publisher is shut down.
func (ep *EventPublisher) processEvents() {
	defer ep.wg.Done()

	for {
		select {
		case event := <-ep.buffer:
			ep.deliverEvent(event)

		case <-ep.ctx.Done():
			// Drain what is already buffered before exiting
			for {
				select {
				case event := <-ep.buffer:
					ep.deliverEvent(event)
				default:
					return
				}
			}
		}
	}
}

// deliverEvent delivers an event to all subscribers in registration order.
func (ep *EventPublisher) deliverEvent(event Event) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	for _, sub := range ep.subscribers {
		if sub.accepts(event) {
			sub.handle(event)
		}
	}
}

// Shutdown gracefully shuts down the event publisher.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if ep == nil || !ep.config.Enabled {
		return nil
	}

	ep.cancel()

	done := make(chan struct{})
	go func() {
		ep.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event publisher shutdown timeout")
	}
}

// eventLevelRank orders event levels by severity.
var eventLevelRank = map[string]int{
	EventLevelInfo:    0,
	EventLevelWarning: 1,
	EventLevelError:   2,
}

// FilterByLevel allows events at minLevel or above.
func FilterByLevel(minLevel string) EventFilter {
	floor := eventLevelRank[minLevel]
	return func(event Event) bool {
		return eventLevelRank[event.Level] >= floor
	}
}

// FilterByType allows events of the given types.
func FilterByType(types ...string) EventFilter {
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return func(event Event) bool {
		_, ok := allowed[event.Type]
		return ok
	}
}

// FilterByManifest allows events that relate to manifestPath. Several
// workspaces can share one publisher, e.g. in tests or a long-lived process.
func FilterByManifest(manifestPath string) EventFilter {
	return func(event Event) bool {
		return event.ManifestPath == manifestPath
	}
}
