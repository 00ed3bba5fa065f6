package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"sahayak-agent/pkg/utils"
)

// PanicRecovery turns a handler panic into a JSON 500 so one bad
// request cannot take the agent down while the operator is in the
// field.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[API] Panic on %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				utils.Error(w, http.StatusInternalServerError, "internal error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
