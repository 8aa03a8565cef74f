package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func (app *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.Warn().Err(err).Msg("encode response")
	}
}

func (app *App) writeError(w http.ResponseWriter, status int, msg string) {
	app.writeJSON(w, status, map[string]string{"msg": msg})
}

// decode unmarshals the request body into v and validates it.
func (app *App) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}

	return app.validate.Struct(v)
}
