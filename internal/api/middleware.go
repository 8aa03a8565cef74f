package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/tracknet-io/tracknet/internal/auth"
	"github.com/tracknet-io/tracknet/internal/store"
)

type contextKey int

const userContextKey contextKey = iota

// protect authenticates the request and, when roles are given, requires
// one of them. The passive session check runs on every request: a
// credential bound to a superseded session is rejected here even if the
// eviction push was never delivered.
func (app *App) protect(next httprouter.Handle, roles ...string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			app.writeError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		claims, err := app.tokens.Parse(parts[1])
		if err != nil {
			app.writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}

		user, err := app.store.UserByID(r.Context(), claims.UserID)
		if err != nil {
			app.writeError(w, http.StatusUnauthorized, "Not authorized, user not found")
			return
		}

		if err := auth.ValidateSession(claims.SessionID, user.ActiveSessionID); err != nil {
			app.writeError(w, http.StatusUnauthorized, "This account has been logged in from another device. This session has been terminated.")
			return
		}

		if len(roles) > 0 && !slices.Contains(roles, user.Role) {
			app.writeError(w, http.StatusForbidden, fmt.Sprintf("User role '%s' is not authorized to access this route", user.Role))
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx), p)
	}
}

func userFrom(r *http.Request) *store.User {
	user, _ := r.Context().Value(userContextKey).(*store.User)
	return user
}

func (app *App) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Tracknet-Session-ID")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
