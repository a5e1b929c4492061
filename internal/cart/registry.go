package cart

import (
	"time"

	"bambite_gateway/internal/session"

	"github.com/sirupsen/logrus"
)

// Registry holds one cart per browser session. Carts live only as long as
// the session keeps using them.
type Registry struct {
	*session.Store[*Store]
}

// NewRegistry builds the registry. maxSessions caps how many carts are held
// at once; zero means no cap.
func NewRegistry(idleTTL time.Duration, maxSessions int, logger *logrus.Logger) *Registry {
	return &Registry{
		Store: session.NewStore("carts", idleTTL, func(string) *Store { return NewStore() }, logger,
			session.WithLimit(maxSessions)),
	}
}

// For returns the session's cart, creating it on first use.
func (r *Registry) For(sessionID string) *Store {
	return r.Get(sessionID)
}

// Snapshot reads the session's cart without creating one.
func (r *Registry) Snapshot(sessionID string) Snapshot {
	return r.View(sessionID).Snapshot()
}
