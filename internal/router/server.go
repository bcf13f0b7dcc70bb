package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/internal/metrics"
	"github.com/huangsam/flowtrack/schema"
)

// maxMessageBytes bounds inbound message bodies.
const maxMessageBytes = 1 << 20

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr       string
	AccessLog  io.Writer // nil disables access logging
	EventLimit int       // default row limit for GET /v1/events
}

// NewHandler builds the HTTP handler tree around r.
func NewHandler(r *Router, store contract.EventStore, m *metrics.Metrics, cfg ServerConfig) http.Handler {
	limit := cfg.EventLimit
	if limit <= 0 {
		limit = contract.DefaultResultLimit
	}

	api := mux.NewRouter()
	api.Handle("/v1/messages", m.WrapHandler("messages", messagesHandler(r))).Methods(http.MethodPost)
	api.Handle("/v1/events", m.WrapHandler("events", eventsHandler(store, limit))).Methods(http.MethodGet)
	api.Handle("/v1/totals", m.WrapHandler("totals", totalsHandler(store))).Methods(http.MethodGet)
	api.Handle("/health", m.WrapHandler("health", healthHandler(r, store))).Methods(http.MethodGet)
	api.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	var h http.Handler = api
	h = handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(h)
	if cfg.AccessLog != nil {
		h = handlers.LoggingHandler(cfg.AccessLog, h)
	}
	return h
}

// Serve runs the HTTP server until ctx is canceled, then shuts it down.
func Serve(ctx context.Context, cfg ServerConfig, h http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a dispatch error to an HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidMessage), errors.Is(err, ErrUnknownType), errors.Is(err, ErrInvalidPayload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func messagesHandler(r *Router) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxMessageBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, schema.Response{Error: "message too large"})
				return
			}
			writeJSON(w, http.StatusBadRequest, schema.Response{Error: "Invalid message format"})
			return
		}
		resp, err := r.Dispatch(req.Context(), body)
		writeJSON(w, statusFor(err), resp)
	}
}

// queryWindow reads the from/to millisecond bounds. Missing bounds mean
// everything up to now.
func queryWindow(req *http.Request) (int64, int64, error) {
	q := req.URL.Query()
	from, to := int64(0), time.Now().UnixMilli()+1
	if v := q.Get("from"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid from %q", v)
		}
		from = n
	}
	if v := q.Get("to"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid to %q", v)
		}
		to = n
	}
	if to < from {
		return 0, 0, fmt.Errorf("to must not precede from")
	}
	return from, to, nil
}

func eventsHandler(store contract.EventStore, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		from, to, err := queryWindow(req)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, schema.Response{Error: err.Error()})
			return
		}
		limit := defaultLimit
		if v := req.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > contract.MaxResultLimit {
				writeJSON(w, http.StatusBadRequest, schema.Response{Error: fmt.Sprintf("limit must be between 1 and %d", contract.MaxResultLimit)})
				return
			}
			limit = n
		}
		events, err := store.Range(req.Context(), from, to, limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, schema.Response{Error: err.Error()})
			return
		}
		if events == nil {
			events = []schema.ActivityEvent{}
		}
		writeJSON(w, http.StatusOK, schema.Response{Success: true, Data: events})
	}
}

func totalsHandler(store contract.EventStore) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		from, to, err := queryWindow(req)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, schema.Response{Error: err.Error()})
			return
		}
		totals, err := store.TotalsByCategory(req.Context(), from, to)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, schema.Response{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, schema.Response{Success: true, Data: schema.EnrichTotals(totals)})
	}
}

type healthStatus struct {
	Status        string `json:"status"`
	SessionActive bool   `json:"sessionActive"`
	Store         string `json:"store"`
	StoreOK       bool   `json:"storeConnected"`
}

func healthHandler(r *Router, store contract.EventStore) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		out := healthStatus{Status: "ok", SessionActive: r.session.Active()}
		if st, err := store.GetStatus(); err == nil {
			out.Store = st.Backend
			out.StoreOK = st.Connected
		}
		writeJSON(w, http.StatusOK, out)
	}
}
