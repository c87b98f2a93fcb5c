package main

import (
	"fmt"
	"net/http"

	"github.com/rs/cors"

	"github.com/evergreen-games/ecocity/internal/auth"
	"github.com/evergreen-games/ecocity/internal/gateway"
	"github.com/evergreen-games/ecocity/internal/outbox"
)

// setupServer builds the HTTP surface: health, outbox health and the
// WebSocket event stream. Game operations are invoked in-process; there
// is no REST routing layer here.
func setupServer(cfg *Config, wsHandler *gateway.WebSocketHandler, health *outbox.HealthChecker) *http.Server {
	mux := http.NewServeMux()

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/health/outbox", health)
	wsHandler.RegisterRoutes(mux)

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: c.Handler(mux),
	}
}

// setupVerifier builds the development token verifier from config.
func setupVerifier(cfg *Config) auth.Verifier {
	return auth.NewStaticVerifier(cfg.Auth.Tokens)
}
