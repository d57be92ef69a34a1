package httpx

import (
	"net/http"

	"github.com/google/uuid"
)

// requestIDHeader carries the correlation id; the booking system sends its
// own when it calls the sync API, so webhook deliveries can be traced
// end to end.
const requestIDHeader = "X-Request-Id"

// RequestIDMiddleware tags every request with a correlation id, minting one
// when the caller did not supply it. The id is echoed on the response and
// stored in the context for the access log and response meta.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ContextWithRequestID(r.Context(), id)))
	})
}
