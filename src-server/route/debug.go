package route

import (
	"log/slog"
	"net/http"

	"dayplan/src-server/utils"

	"gopkg.in/yaml.v3"
)

// Debug exposes the raw storage namespace. It registers nothing unless
// DEBUG_ROUTES is set.
func Debug(muxer *http.ServeMux, as *utils.AppState) {
	if !as.Config.GetDebugRoutes() {
		return
	}
	slog.Warn("debug routes are enabled")

	// dump every key, ?format=yaml for a readable listing
	muxer.HandleFunc("GET /api/debug/storage", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			dump, err := as.Aggregator.Dump(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			if r.URL.Query().Get("format") != "yaml" {
				writeJSON(w, http.StatusOK, dump)
				return
			}
			body, err := yaml.Marshal(dump)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't marshal storage dump"))
				return
			}
			w.Header().Set("Content-Type", "application/yaml")
			w.WriteHeader(http.StatusOK)
			w.Write(body)
		}))

	// wipe the whole namespace
	muxer.HandleFunc("DELETE /api/debug/storage", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			if err := as.Aggregator.ClearAll(r.Context()); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))
}
