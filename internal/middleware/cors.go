package middleware

import "net/http"

const (
	AllowOrigin  = "*"
	AllowMethods = "GET, POST"
	AllowHeaders = "X-Requested-With,content-type, Authorization"
)

// CORS sets the cross-origin headers on every response and answers
// preflight requests with 204 without reaching the router.
func CORS() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", AllowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", AllowMethods)
			w.Header().Set("Access-Control-Allow-Headers", AllowHeaders)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
