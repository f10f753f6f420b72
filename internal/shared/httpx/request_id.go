package httpx

import (
	"net/http"
	"strings"

	"github.com/k1networth/support-tickets/internal/shared/requestid"
)

const maxRequestIDLen = 128

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get(requestid.Header))
		if rid == "" || len(rid) > maxRequestIDLen {
			rid = requestid.New()
		}

		w.Header().Set(requestid.Header, rid)

		next.ServeHTTP(w, r.WithContext(requestid.With(r.Context(), rid)))
	})
}
