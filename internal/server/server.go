// Package server exposes the analysis workflow as a JSON API for the
// single-page frontend: upload, cleaning toggle, overview, dashboard, custom
// charts, export, and chat.
package server

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/KaramelBytes/autoanalyst/internal/ai"
	"github.com/KaramelBytes/autoanalyst/internal/config"
)

// New builds the router around a fresh handler.
func New(cfg *config.Global) http.Handler {
	h := NewHandler(cfg)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// CORS - Allow frontend dev servers
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	h.RegisterRoutes(r)

	return r
}

// Serve runs the API until the listener fails.
func Serve(cfg *config.Global) error {
	addr := cfg.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("serving analysis API on %s", addr)
	return http.ListenAndServe(addr, New(cfg))
}

// clientFor builds the completion client for one request's credential.
func clientFor(cfg *config.Global, key string) *ai.Client {
	timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
	return ai.NewClientWithBaseURL(key, timeout, cfg.BaseURL).WithModel(cfg.Model)
}
