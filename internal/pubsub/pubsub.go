// Package pubsub delivers change notifications for keys in the shared
// storage backend, so a running server notices writes made by other
// processes such as the CLI.
package pubsub

import (
	"log/slog"
	"strings"
	"sync"
)

// OperationReload asks handlers to re-read everything; notifications may
// have been missed.
const OperationReload = "RELOAD"

// ChangeEvent represents a change to one storage key. Key is empty for
// OperationReload.
type ChangeEvent struct {
	Key       string
	Operation string // INSERT, UPDATE, DELETE, SET, RELOAD
}

// Affects reports whether the event concerns key.
func (e ChangeEvent) Affects(key string) bool {
	return e.Operation == OperationReload || e.Key == key
}

// ChangeHandler is a callback function for storage changes
type ChangeHandler func(event ChangeEvent)

// Listener is a running source of change events.
type Listener interface {
	Subscribe(handler ChangeHandler)
	Start() error
	Stop()
}

// hub fans events out to subscribed handlers.
type hub struct {
	mu       sync.RWMutex
	handlers []ChangeHandler
}

// Subscribe adds a handler for change events
func (h *hub) Subscribe(handler ChangeHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers = append(h.handlers, handler)
}

func (h *hub) notifyHandlers(event ChangeEvent) {
	h.mu.RLock()
	handlers := make([]ChangeHandler, len(h.handlers))
	copy(handlers, h.handlers)
	h.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// dispatch parses a "key:operation" payload and notifies handlers.
func (h *hub) dispatch(payload string) {
	event, ok := ParsePayload(payload)
	if !ok {
		slog.Warn("Invalid notification payload", slog.String("payload", payload))
		return
	}

	slog.Debug("Received storage change notification",
		slog.String("key", event.Key),
		slog.String("operation", event.Operation))

	h.notifyHandlers(event)
}

// ParsePayload splits a "key:operation" notification payload. Keys never
// contain ':' so the last separator wins.
func ParsePayload(payload string) (ChangeEvent, bool) {
	idx := strings.LastIndex(payload, ":")
	if idx <= 0 || idx == len(payload)-1 {
		return ChangeEvent{}, false
	}
	return ChangeEvent{Key: payload[:idx], Operation: payload[idx+1:]}, true
}

// FormatPayload is the inverse of ParsePayload.
func FormatPayload(key, operation string) string {
	return key + ":" + operation
}
