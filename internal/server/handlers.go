package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/autoanalyst/internal/ai"
	"github.com/KaramelBytes/autoanalyst/internal/bridge"
	"github.com/KaramelBytes/autoanalyst/internal/chart"
	"github.com/KaramelBytes/autoanalyst/internal/config"
	"github.com/KaramelBytes/autoanalyst/internal/insight"
	"github.com/KaramelBytes/autoanalyst/internal/loader"
	"github.com/KaramelBytes/autoanalyst/internal/script"
	"github.com/KaramelBytes/autoanalyst/internal/session"
	"github.com/KaramelBytes/autoanalyst/internal/table"
)

// MaxFileSize caps uploads at 50MB.
const MaxFileSize = 50 << 20

// Handler owns the single active session. A new upload replaces it entirely,
// conversation included. The mutex serializes every operation that touches
// session state, so one query runs at a time.
type Handler struct {
	mu    sync.Mutex
	cfg   *config.Global
	cache *loader.Cache
	sess  *session.Session
}

func NewHandler(cfg *config.Global) *Handler {
	return &Handler{cfg: cfg, cache: loader.NewCache()}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/upload", h.Upload)
	r.Get("/api/overview", h.Overview)
	r.Post("/api/clean", h.SetCleaning)
	r.Get("/api/export", h.Export)
	r.Get("/api/dashboard", h.Dashboard)
	r.Post("/api/chart", h.CustomChart)
	r.Post("/api/credential", h.SetCredential)
	r.Post("/api/chat", h.Chat)
	r.Get("/api/chat/history", h.ChatHistory)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// session returns the active session or nil when nothing was uploaded yet.
func (h *Handler) session() *session.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sess
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// overview is the summary the page shows after upload or clean toggle.
type overview struct {
	Session     string               `json:"session"`
	Name        string               `json:"name"`
	Stats       table.Stats          `json:"stats"`
	Columns     []string             `json:"columns"`
	Types       table.Classification `json:"types"`
	Cleaned     bool                 `json:"cleaned"`
	HeadPreview string               `json:"head_preview"`
}

func (h *Handler) overviewOf(s *session.Session) overview {
	t := s.Active()
	return overview{
		Session:     s.ID,
		Name:        t.Name,
		Stats:       t.Summary(),
		Columns:     t.Columns,
		Types:       s.Classification(),
		Cleaned:     s.CleaningEnabled(),
		HeadPreview: t.HeadString(5),
	}
}

// Upload accepts a multipart file, loads it, and starts a fresh session.
// A load failure keeps the previous session untouched.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxFileSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxFileSize))
	if err != nil {
		http.Error(w, "Read upload failed", http.StatusBadRequest)
		return
	}

	t, err := h.cache.Load(header.Filename, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	h.sess = session.New(t)
	s := h.sess
	h.mu.Unlock()

	respondJSON(w, h.overviewOf(s))
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	s := h.session()
	if s == nil {
		http.Error(w, "No dataset uploaded", http.StatusBadRequest)
		return
	}
	respondJSON(w, h.overviewOf(s))
}

// SetCleaning toggles whether the cleaned table is active.
func (h *Handler) SetCleaning(w http.ResponseWriter, r *http.Request) {
	s := h.session()
	if s == nil {
		http.Error(w, "No dataset uploaded", http.StatusBadRequest)
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	s.SetCleaning(req.Enabled)
	respondJSON(w, h.overviewOf(s))
}

// Export streams the cleaned table as a CSV download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	s := h.session()
	if s == nil {
		http.Error(w, "No dataset uploaded", http.StatusBadRequest)
		return
	}
	t := s.Cleaned()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "cleaned_"+t.Name))
	if err := t.WriteCSV(w); err != nil {
		http.Error(w, fmt.Sprintf("Export failed: %v", err), http.StatusInternalServerError)
	}
}

// Dashboard builds KPIs plus distribution and split charts for the chosen
// metric. Without a numeric column the condition is reported, not erred.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	s := h.session()
	if s == nil {
		http.Error(w, "No dataset uploaded", http.StatusBadRequest)
		return
	}
	metric := r.URL.Query().Get("metric")
	category := r.URL.Query().Get("category")
	d, err := insight.BuildDashboard(s.Active(), s.Classification(), metric, category)
	if errors.Is(err, insight.ErrNoNumeric) {
		respondJSON(w, map[string]string{"message": err.Error()})
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, d)
}

// CustomChart renders the builder's chart plus the narrative block.
func (h *Handler) CustomChart(w http.ResponseWriter, r *http.Request) {
	s := h.session()
	if s == nil {
		http.Error(w, "No dataset uploaded", http.StatusBadRequest)
		return
	}
	var req struct {
		Type string `json:"type"`
		X    string `json:"x"`
		Y    string `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	t := s.Active()
	c, err := insight.BuildChart(t, chart.Kind(req.Type), req.X, req.Y)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, map[string]any{
		"chart":     c,
		"narrative": insight.Narrative(t, req.X, req.Y),
	})
}

// SetCredential stores the chat API key for the session.
func (h *Handler) SetCredential(w http.ResponseWriter, r *http.Request) {
	s := h.session()
	if s == nil {
		http.Error(w, "No dataset uploaded", http.StatusBadRequest)
		return
	}
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	s.SetAPIKey(req.APIKey)
	respondJSON(w, map[string]string{"status": "ok"})
}

// Chat answers one question against the active table. Config credential wins;
// the session-supplied key is the fallback. Every failure renders transiently
// as a status code here and is never retried.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	s := h.session()
	if s == nil {
		http.Error(w, "No dataset uploaded", http.StatusBadRequest)
		return
	}
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		http.Error(w, "Invalid JSON: question required", http.StatusBadRequest)
		return
	}

	key := h.cfg.APIKey
	if key == "" {
		key = s.APIKey()
	}
	client := clientFor(h.cfg, key)

	res, err := bridge.Answer(r.Context(), client, s, req.Question)
	if err != nil {
		var authErr *ai.AuthError
		var svcErr *ai.ServiceError
		var execErr *script.ExecutionError
		switch {
		case errors.As(err, &authErr):
			http.Error(w, authErr.Error(), http.StatusUnauthorized)
		case errors.As(err, &svcErr):
			http.Error(w, svcErr.Error(), http.StatusBadGateway)
		case errors.As(err, &execErr):
			// Partial output travels with the error so the page can
			// still show what printed before the failure.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{
				"error":  execErr.Error(),
				"output": execErr.Output,
			})
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	respondJSON(w, res)
}

// ChatHistory returns the conversation log in order.
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	s := h.session()
	if s == nil {
		http.Error(w, "No dataset uploaded", http.StatusBadRequest)
		return
	}
	respondJSON(w, map[string]any{"messages": s.Conversation()})
}
