package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/smirkdb/smirk/internal/stats"
	"github.com/smirkdb/smirk/internal/store"
)

// Handler serves the operational sidecar: liveness and counters. It reads
// the store only through its locked methods, so it never breaks the
// command ordering guarantee.
type Handler struct {
	st    *store.Store
	stats *stats.Stats
	log   *slog.Logger
}

func NewHandler(st *store.Store, stats *stats.Stats, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{st: st, stats: stats, log: log}
}

func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
	r.Use(h.logging)
	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleStats(w http.ResponseWriter, _ *http.Request) {
	snap := h.stats.Snapshot()
	snap["keys"] = int64(h.st.Len())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		h.log.Warn("stats encode failed", "error", err)
	}
}

func (h *Handler) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.log.Info("http request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

// ListenAndServe runs the sidecar until the listener fails or the server
// is shut down.
func (h *Handler) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
