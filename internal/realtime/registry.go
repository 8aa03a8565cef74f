// Package realtime is the process-local fan-out layer: a topic registry,
// the gateway that bridges it to live SSE sessions, and the publisher
// façade the CRUD handlers talk to.
package realtime

// Registry maps topics to subscriber connection ids, and connection ids
// back to their topics so disconnect cleanup is O(topics held).
//
// Registry is not safe for concurrent use on its own; the Gateway
// serializes every operation behind its lock.
type Registry struct {
	topics map[string]map[string]struct{}
	conns  map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		topics: make(map[string]map[string]struct{}),
		conns:  make(map[string]map[string]struct{}),
	}
}

// Subscribe adds connID to the topic, creating it lazily. Idempotent.
func (r *Registry) Subscribe(connID, topic string) {
	if _, ok := r.topics[topic]; !ok {
		r.topics[topic] = make(map[string]struct{})
	}
	r.topics[topic][connID] = struct{}{}

	if _, ok := r.conns[connID]; !ok {
		r.conns[connID] = make(map[string]struct{})
	}
	r.conns[connID][topic] = struct{}{}
}

// Unsubscribe removes connID from the topic. No-op if absent. Empty
// topics are pruned so the registry does not grow with dead rooms.
func (r *Registry) Unsubscribe(connID, topic string) {
	if subscribers, ok := r.topics[topic]; ok {
		delete(subscribers, connID)
		if len(subscribers) == 0 {
			delete(r.topics, topic)
		}
	}

	if topics, ok := r.conns[connID]; ok {
		delete(topics, topic)
		if len(topics) == 0 {
			delete(r.conns, connID)
		}
	}
}

// DropConnection removes connID from every topic it subscribed to.
// Safe to call for unknown connection ids.
func (r *Registry) DropConnection(connID string) {
	for topic := range r.conns[connID] {
		if subscribers, ok := r.topics[topic]; ok {
			delete(subscribers, connID)
			if len(subscribers) == 0 {
				delete(r.topics, topic)
			}
		}
	}

	delete(r.conns, connID)
}

// SubscribersOf returns a snapshot of the topic's subscriber connection
// ids. An unknown topic yields an empty slice, never an error.
func (r *Registry) SubscribersOf(topic string) []string {
	subscribers := r.topics[topic]

	out := make([]string, 0, len(subscribers))
	for connID := range subscribers {
		out = append(out, connID)
	}

	return out
}
