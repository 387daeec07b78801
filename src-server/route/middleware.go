package route

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"dayplan/src-server/utils"
)

// AuthMiddleware requires "Authorization: Bearer <API_TOKEN>" when a token
// is configured and passes everything through otherwise.
func AuthMiddleware(as *utils.AppState, next func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		token := as.Config.GetAPIToken()
		if token == "" {
			next(w, r)
			return
		}

		bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(bearer) == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Bearer token not found"))
			return
		}
		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(bearer)), []byte(token)) != 1 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Invalid bearer token"))
			return
		}
		next(w, r)
	}
}
