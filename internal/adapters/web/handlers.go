package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"order-service/internal/app"
	"order-service/internal/logging"
	"order-service/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Options configures NewHandler. Zero values disable the matching feature.
type Options struct {
	AllowedOrigins string
	RequestTimeout time.Duration
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
}

// Handler holds the ApplicationService the routes call into.
type Handler struct {
	svc app.ApplicationService
	log *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	logger := logging.OrNop(opts.Logger)
	h := &Handler{svc: svc, log: logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	if opts.Metrics != nil {
		r.Use(Metrics(opts.Metrics))
	}
	r.Use(CORS(opts.AllowedOrigins))
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	// ── Operations (public) ──────────────────────────────────────────────────
	r.Get("/health", h.health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	// ── Orders API ───────────────────────────────────────────────────────────
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// Reference data
		r.Get("/statuses", h.apiListStatuses)
		r.Get("/delivery-methods", h.apiListDeliveryMethods)
		r.Get("/payment-methods", h.apiListPaymentMethods)

		r.Get("/stats", h.apiOrderStats)

		r.Post("/", h.apiCreateOrder)
		r.Get("/", h.apiListOrders)
		r.Get("/number/{orderNumber}", h.apiGetOrderByNumber)
		r.Get("/{id}", h.apiGetOrder)
		r.Patch("/{id}", h.apiUpdateOrder)
		r.Patch("/{id}/status", h.apiTransitionStatus)
		r.Get("/{id}/history", h.apiStatusHistory)
	})

	return r
}

// health pings the database and reports 503 when it is unreachable.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}
	if err := h.svc.CheckHealth(r.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		writeJSONStatus(w, http.StatusServiceUnavailable, response{Status: "unavailable", Error: err.Error()})
		return
	}
	writeJSON(w, response{Status: "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
