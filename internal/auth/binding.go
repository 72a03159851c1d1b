package auth

import (
	"sync"

	"portraitstudio/internal/domain"
)

// UserSink receives the signed-in user, or nil after sign-out.
type UserSink interface {
	SetUser(u *domain.User)
}

// Binding keeps a sink in step with a session until Close is called.
type Binding struct {
	unsubscribe func()
	once        sync.Once
}

// Bind subscribes sink to session. The sink immediately receives the current
// user.
func Bind(session *Session, sink UserSink) *Binding {
	unsubscribe := session.Subscribe(func(st State) {
		sink.SetUser(st.User)
	})
	return &Binding{unsubscribe: unsubscribe}
}

// Close stops forwarding session changes.
func (b *Binding) Close() {
	b.once.Do(b.unsubscribe)
}
