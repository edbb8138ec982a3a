package api

import (
	"net/http"

	"go.vocdoni.io/dvote/log"
)

// httpWriteText helper function allows to write a plain text response.
func httpWriteText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(text)); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}
