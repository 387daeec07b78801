package route

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"dayplan/src-server/model"
	"dayplan/src-server/store"
	"dayplan/src-server/timeutil"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Can't marshal response body"))
		slog.Error("can't marshal response body", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// writeError maps the store and model sentinels onto status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidEvent),
		errors.Is(err, timeutil.ErrInvalidTime),
		errors.Is(err, store.ErrInvalidDate):
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(err.Error()))
	case errors.Is(err, store.ErrPersistence):
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Can't save to storage"))
		slog.Error("storage failure", "error", err)
	default:
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Unexpected error"))
		slog.Error("unexpected error", "error", err)
	}
}
