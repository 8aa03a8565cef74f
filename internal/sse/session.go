package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

// outboundBuffer bounds how far a slow consumer can lag before events
// are dropped. Delivery is best-effort.
const outboundBuffer = 64

type Session struct {
	id      string
	message chan string
	logger  zerolog.Logger
}

func newSession(id string, logger zerolog.Logger) *Session {
	return &Session{
		id:      id,
		message: make(chan string, outboundBuffer),
		logger:  logger,
	}
}

// Send queues an event for delivery. It never blocks: when the buffer is
// full the event is dropped.
func (s *Session) Send(e *Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn().Err(err).Str("topic", e.Topic).Msg("encode event")
		return
	}

	select {
	case s.message <- string(payload):
	default:
		s.logger.Debug().Str("session", s.id).Str("topic", e.Topic).Msg("slow consumer, event dropped")
	}
}

func (s *Session) listen(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	for {
		select {

		case message := <-s.message:
			fmt.Fprintf(w, "data: %s\n\n", message)
			flusher.Flush()

		// connection is closed, server removes the session
		case <-r.Context().Done():
			return

		}
	}
}
