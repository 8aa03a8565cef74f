package realtime

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tracknet-io/tracknet/internal/sse"
	"github.com/tracknet-io/tracknet/pkg/topic"
)

// Sender is the outbound half of one live connection.
type Sender interface {
	Send(e *sse.Event)
}

// Gateway bridges transport connect/disconnect events and the Registry,
// and fans published events out to current subscribers. All registry
// access is serialized here.
type Gateway struct {
	mux      sync.RWMutex
	registry *Registry
	senders  map[string]Sender
	logger   zerolog.Logger
}

func NewGateway(logger zerolog.Logger) *Gateway {
	return &Gateway{
		registry: NewRegistry(),
		senders:  make(map[string]Sender),
		logger:   logger,
	}
}

// Bind wires the gateway to an SSE server's session lifecycle hooks.
func (g *Gateway) Bind(server *sse.Server) {
	server.NewSessionHandler = func(id string, session *sse.Session) {
		g.Attach(id, session)
	}
	server.CloseSessionHandler = func(id string, _ *sse.Session) {
		g.Detach(id)
	}
}

// Attach registers a newly opened connection with no subscriptions.
func (g *Gateway) Attach(id string, sender Sender) {
	g.mux.Lock()
	defer g.mux.Unlock()

	g.senders[id] = sender
}

// Detach drops the connection and every subscription it held. Idempotent:
// repeated disconnect signals for the same id are no-ops.
func (g *Gateway) Detach(id string) {
	g.mux.Lock()
	defer g.mux.Unlock()

	delete(g.senders, id)
	g.registry.DropConnection(id)
}

// Subscribe adds the connection to a topic. A stale connection id is a
// no-op, not an error.
func (g *Gateway) Subscribe(id string, t topic.Name) {
	g.mux.Lock()
	defer g.mux.Unlock()

	if _, ok := g.senders[id]; !ok {
		g.logger.Debug().Str("session", id).Str("topic", t.String()).Msg("subscribe on stale connection")
		return
	}

	g.registry.Subscribe(id, t.String())
}

func (g *Gateway) Unsubscribe(id string, t topic.Name) {
	g.mux.Lock()
	defer g.mux.Unlock()

	g.registry.Unsubscribe(id, t.String())
}

// Publish delivers (name, data) to every current subscriber of the topic.
// Publishing to a topic with no subscribers is a silent no-op; delivery
// is fire-and-forget.
func (g *Gateway) Publish(t topic.Name, name string, data any) {
	g.mux.RLock()
	defer g.mux.RUnlock()

	for _, id := range g.registry.SubscribersOf(t.String()) {
		sender, ok := g.senders[id]
		if !ok {
			continue
		}

		sender.Send(&sse.Event{
			Topic: t.String(),
			Name:  name,
			Data:  data,
		})
	}
}

// Notify implements Notifier.
func (g *Gateway) Notify(t topic.Name, name string, data any) {
	g.Publish(t, name, data)
}
