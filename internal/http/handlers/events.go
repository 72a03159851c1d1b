package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"portraitstudio/internal/auth"
	"portraitstudio/internal/middleware"
	"portraitstudio/internal/notify"
	"portraitstudio/internal/portrait"
)

const (
	eventBuffer  = 32
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
)

type event struct {
	Type    string             `json:"type"`
	Toast   *notify.Toast      `json:"toast,omitempty"`
	Studio  *portrait.Snapshot `json:"studio,omitempty"`
	Session *auth.State        `json:"session,omitempty"`
}

// Events streams toasts, studio snapshots and session changes over a
// WebSocket. The client only needs to read; anything it sends is ignored.
func (a *App) Events(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: a.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	log := a.Logger.With().Str("request_id", middleware.RequestIDFromContext(r.Context())).Logger()
	states := newLatestEvents()

	// The session subscription delivers the current state right away; the
	// studio snapshot is seeded by hand unless the watcher got there first.
	toasts, unsubscribeToasts := a.Hub.Subscribe(middleware.LocaleFromContext(r.Context()), eventBuffer)
	unwatch := a.Studio.Watch(func(s portrait.Snapshot) { states.Put(event{Type: "studio", Studio: &s}) })
	unsubscribeSession := a.Auth.Session().Subscribe(func(st auth.State) { states.Put(event{Type: "session", Session: &st}) })
	snap := a.Studio.Snapshot()
	states.Seed(event{Type: "studio", Studio: &snap})

	defer func() {
		unwatch()
		unsubscribeSession()
		unsubscribeToasts()
		_ = conn.Close()
		log.Debug().Msg("event stream closed")
	}()

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case t, ok := <-toasts:
			if !ok {
				return
			}
			if err := writeEvent(conn, event{Type: "toast", Toast: &t}); err != nil {
				return
			}
		case <-states.Ready():
			for _, ev := range states.Take() {
				if err := writeEvent(conn, ev); err != nil {
					return
				}
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// latestEvents holds the newest unsent state event per type. A slow client
// skips intermediate states but always receives the latest one.
type latestEvents struct {
	mu      sync.Mutex
	pending map[string]event
	order   []string
	seen    map[string]bool
	ready   chan struct{}
}

func newLatestEvents() *latestEvents {
	return &latestEvents{
		pending: make(map[string]event),
		seen:    make(map[string]bool),
		ready:   make(chan struct{}, 1),
	}
}

// Put replaces any pending event of the same type.
func (l *latestEvents) Put(ev event) {
	l.mu.Lock()
	l.putLocked(ev)
	l.mu.Unlock()
	l.signal()
}

// Seed queues ev only if no event of its type has been put yet.
func (l *latestEvents) Seed(ev event) {
	l.mu.Lock()
	if l.seen[ev.Type] {
		l.mu.Unlock()
		return
	}
	l.putLocked(ev)
	l.mu.Unlock()
	l.signal()
}

// Take drains the pending events in the order their types first arrived.
func (l *latestEvents) Take() []event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]event, 0, len(l.order))
	for _, typ := range l.order {
		out = append(out, l.pending[typ])
		delete(l.pending, typ)
	}
	l.order = l.order[:0]
	return out
}

// Ready is signalled whenever events are pending.
func (l *latestEvents) Ready() <-chan struct{} {
	return l.ready
}

func (l *latestEvents) putLocked(ev event) {
	if _, ok := l.pending[ev.Type]; !ok {
		l.order = append(l.order, ev.Type)
	}
	l.pending[ev.Type] = ev
	l.seen[ev.Type] = true
}

func (l *latestEvents) signal() {
	select {
	case l.ready <- struct{}{}:
	default:
	}
}

func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}

func (a *App) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range a.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}
