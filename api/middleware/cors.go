package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev
	"https://shopora.dev",
	"https://app.shopora.dev",
}

// CORS returns middleware that applies the API's allowed origin policy.
// cartTokenHeader is the configured anonymous cart header; empty falls back
// to CartTokenHeader.
func CORS(cartTokenHeader string) func(http.Handler) http.Handler {
	if cartTokenHeader == "" {
		cartTokenHeader = CartTokenHeader
	}
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", cartTokenHeader, "X-Requested-With"},
		ExposedHeaders:   []string{cartTokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
