// Package iochttp exposes a read-only HTTP view of an ioc.Container for
// diagnostics. Mount it under an internal admin path; it never mutates the
// container.
package iochttp

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gburgyan/go-ioc"
)

// NewRouter returns a router with these routes:
//
//	GET /status          plain text Container.Status
//	GET /bindings        JSON object of abstract -> concrete
//	GET /instances       JSON array of ids with a stored instance
//	GET /instances/{id}  204 when id has an instance, 404 otherwise
//
// Identifiers contain slashes, so {id} is the whole remainder of the path.
func NewRouter(c *ioc.Container) chi.Router {
	r := chi.NewRouter()

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(c.Status()))
	})

	r.Get("/bindings", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, c.Bindings())
	})

	r.Get("/instances", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, c.Instances())
	})

	r.Get("/instances/*", func(w http.ResponseWriter, req *http.Request) {
		id := strings.TrimPrefix(chi.URLParam(req, "*"), "/")
		if id == "" || !c.Has(id) {
			http.NotFound(w, req)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
