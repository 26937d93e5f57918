package middleware

import (
	"net/http"

	"mindconnect/internal/access"
)

type redirectResponse struct {
	errorResponse
	Redirect access.Route `json:"redirect"`
}

// Gate applies the role gate for a fixed route.
func Gate(route access.Route) func(http.Handler) http.Handler {
	return GateFunc(func(*http.Request) (access.Route, bool) { return route, true })
}

// GateFunc applies the role gate for the route resolve picks from the
// request. Unknown routes are 404.
func GateFunc(resolve func(*http.Request) (access.Route, bool)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, ok := resolve(r)
			if !ok {
				WriteError(w, r, http.StatusNotFound, "not_found", "no such page")
				return
			}
			d := access.Decide(SessionFrom(r.Context()).Principal(), route)
			if !d.Allow {
				w.Header().Set("Location", string(d.Redirect))
				body := redirectResponse{Redirect: d.Redirect}
				body.Error = responseError{Code: "redirect", Message: "see " + string(d.Redirect)}
				WriteJSON(w, http.StatusSeeOther, body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
