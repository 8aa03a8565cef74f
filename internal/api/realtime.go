package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/tracknet-io/tracknet/pkg/topic"
)

// SessionIDHeader carries the connection id a client received in its
// first stream event.
const SessionIDHeader = "X-Tracknet-Session-ID"

// subscribeTopic joins the caller's connection to a topic. The topic id
// is validated for well-formedness only; room-level authorization is the
// HTTP layer's concern and the public rooms (tracking numbers) need none.
func (app *App) subscribeTopic() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		sessionID := r.Header.Get(SessionIDHeader)
		if sessionID == "" {
			app.writeError(w, http.StatusBadRequest, "Bad request.")
			return
		}

		name, err := topic.NewName(p.ByName("topic"))
		if err != nil {
			app.writeError(w, http.StatusBadRequest, "Bad request.")
			return
		}

		app.gateway.Subscribe(sessionID, name)

		app.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func (app *App) unsubscribeTopic() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		sessionID := r.Header.Get(SessionIDHeader)
		if sessionID == "" {
			app.writeError(w, http.StatusBadRequest, "Bad request.")
			return
		}

		name, err := topic.NewName(p.ByName("topic"))
		if err != nil {
			app.writeError(w, http.StatusBadRequest, "Bad request.")
			return
		}

		app.gateway.Unsubscribe(sessionID, name)

		app.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
