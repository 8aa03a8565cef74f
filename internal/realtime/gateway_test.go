package realtime_test

import (
	"testing"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracknet-io/tracknet/internal/realtime"
	"github.com/tracknet-io/tracknet/internal/sse"
	"github.com/tracknet-io/tracknet/pkg/topic"
)

type recordingSender struct {
	events []*sse.Event
}

func (s *recordingSender) Send(e *sse.Event) {
	s.events = append(s.events, e)
}

func newGateway() *realtime.Gateway {
	return realtime.NewGateway(zerolog.Nop())
}

func mustName(t *testing.T, value string) topic.Name {
	t.Helper()
	name, err := topic.NewName(value)
	require.NoError(t, err)
	return name
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	g := newGateway()
	tracking := mustName(t, "TK1000000001")

	watcher := &recordingSender{}
	bystander := &recordingSender{}
	g.Attach("c1", watcher)
	g.Attach("c2", bystander)
	g.Subscribe("c1", tracking)

	g.Publish(tracking, "shipmentUpdated", map[string]any{"status": "in_transit"})

	require.Len(t, watcher.events, 1)
	assert.Equal(t, "TK1000000001", watcher.events[0].Topic)
	assert.Equal(t, "shipmentUpdated", watcher.events[0].Name)
	assert.Empty(t, bystander.events)
}

func TestPublishOrderPreservedPerConnection(t *testing.T) {
	g := newGateway()
	room := mustName(t, "shipments_room")

	s := &recordingSender{}
	g.Attach("c1", s)
	g.Subscribe("c1", room)

	for _, name := range []string{"first", "second", "third"} {
		g.Publish(room, name, nil)
	}

	require.Len(t, s.events, 3)
	assert.Equal(t, "first", s.events[0].Name)
	assert.Equal(t, "second", s.events[1].Name)
	assert.Equal(t, "third", s.events[2].Name)
}

func TestSubscriptionWindow(t *testing.T) {
	// a connection sees exactly the events published while subscribed
	g := newGateway()
	room := mustName(t, "shipments_room")

	s := &recordingSender{}
	g.Attach("c1", s)

	g.Publish(room, "before", nil)
	g.Subscribe("c1", room)
	g.Publish(room, "during", nil)
	g.Unsubscribe("c1", room)
	g.Publish(room, "after", nil)

	require.Len(t, s.events, 1)
	assert.Equal(t, "during", s.events[0].Name)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	g := newGateway()

	// publish-before-subscribe is a normal race, not a failure
	g.Publish(mustName(t, "TK1000000001"), "shipmentUpdated", nil)
}

func TestDetachStopsAllDelivery(t *testing.T) {
	g := newGateway()
	tracking := mustName(t, "TK1000000001")
	room := mustName(t, "shipments_room")

	s := &recordingSender{}
	g.Attach("c1", s)
	g.Subscribe("c1", tracking)
	g.Subscribe("c1", room)

	g.Detach("c1")

	g.Publish(tracking, "shipmentUpdated", nil)
	g.Publish(room, "shipments_updated", nil)
	assert.Empty(t, s.events)
}

func TestDetachIdempotent(t *testing.T) {
	g := newGateway()
	g.Attach("c1", &recordingSender{})
	g.Detach("c1")
	g.Detach("c1")
}

func TestSubscribeStaleConnection(t *testing.T) {
	g := newGateway()
	room := mustName(t, "shipments_room")

	s := &recordingSender{}
	g.Attach("c1", s)
	g.Detach("c1")
	g.Subscribe("c1", room)

	g.Publish(room, "shipments_updated", nil)
	assert.Empty(t, s.events)
}

func TestPublishedPayloadDecodes(t *testing.T) {
	g := newGateway()
	session := topic.Session("s1")

	s := &recordingSender{}
	g.Attach("c1", s)
	g.Subscribe("c1", session)

	g.Publish(session, "force_logout", map[string]any{"msg": "session terminated"})

	require.Len(t, s.events, 1)

	var notice struct {
		Msg string `mapstructure:"msg"`
	}
	require.NoError(t, mapstructure.Decode(s.events[0].Data, &notice))
	assert.Equal(t, "session terminated", notice.Msg)
}
