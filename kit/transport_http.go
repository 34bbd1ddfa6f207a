package kit

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// HTTPContext is chi middleware that copies transport facts into the
// request context, so endpoints and services see the same context shape
// whichever transport carried the call. Mount it after
// middleware.RequestID.
func HTTPContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithTransport(r.Context(), "http")
		ctx = WithRemoteAddr(ctx, r.RemoteAddr)
		if id := middleware.GetReqID(r.Context()); id != "" {
			ctx = WithRequestID(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
