package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"portraitstudio/internal/infra"
)

// Level is the severity of a toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Toast is a transient user-facing notification.
type Toast struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Key       Key       `json:"key"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier delivers toasts to whoever presents them.
type Notifier interface {
	Notify(ctx context.Context, t Toast)
}

// NewToast builds a toast with a fresh ID. Message is filled in per
// subscriber locale by the Hub.
func NewToast(level Level, key Key) Toast {
	return Toast{ID: uuid.NewString(), Level: level, Key: key, CreatedAt: time.Now().UTC()}
}

// Success is shorthand for a success toast.
func Success(key Key) Toast { return NewToast(LevelSuccess, key) }

// Failure is shorthand for an error toast.
func Failure(key Key) Toast { return NewToast(LevelError, key) }

// Discard drops every toast.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(context.Context, Toast) {}

// Hub fans toasts out to live subscribers, localizing each one for the
// subscriber's locale. Slow subscribers lose toasts instead of blocking the
// sender.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]*subscriber
	catalog *Catalog
	locale  string
	logger  infra.Logger
}

type subscriber struct {
	locale string
	ch     chan Toast
}

// NewHub creates a hub. defaultLocale is used for the log line and for
// subscribers that do not state a locale.
func NewHub(catalog *Catalog, defaultLocale string, logger infra.Logger) *Hub {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Hub{
		subs:    make(map[string]*subscriber),
		catalog: catalog,
		locale:  catalog.Match(defaultLocale),
		logger:  logger,
	}
}

// Catalog exposes the hub's message catalog.
func (h *Hub) Catalog() *Catalog {
	return h.catalog
}

// Subscribe registers a subscriber and returns its channel together with
// the function that removes it.
func (h *Hub) Subscribe(locale string, buffer int) (<-chan Toast, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	if locale == "" {
		locale = h.locale
	}
	locale = h.catalog.Match(locale)
	id := uuid.NewString()
	sub := &subscriber{locale: locale, ch: make(chan Toast, buffer)}
	h.mu.Lock()
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Notify implements Notifier.
func (h *Hub) Notify(ctx context.Context, t Toast) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	event := h.logger.Info()
	if t.Level == LevelError {
		event = h.logger.Warn()
	}
	event.Str("toast_id", t.ID).
		Str("key", string(t.Key)).
		Msg(h.catalog.Message(h.locale, t.Key))

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		localized := t
		localized.Message = h.catalog.Message(sub.locale, t.Key)
		select {
		case sub.ch <- localized:
		default:
			h.logger.Debug().Str("toast_id", t.ID).Msg("dropping toast for slow subscriber")
		}
	}
}

var _ Notifier = (*Hub)(nil)
