package web

import (
	"net/http"
	"strconv"

	"order-service/internal/core"
)

// apiListStatuses handles GET /api/v1/orders/statuses.
func (h *Handler) apiListStatuses(w http.ResponseWriter, r *http.Request) {
	h.listReference(w, r, core.CatalogOrderStatus)
}

// apiListDeliveryMethods handles GET /api/v1/orders/delivery-methods.
func (h *Handler) apiListDeliveryMethods(w http.ResponseWriter, r *http.Request) {
	h.listReference(w, r, core.CatalogDeliveryMethod)
}

// apiListPaymentMethods handles GET /api/v1/orders/payment-methods.
func (h *Handler) apiListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	h.listReference(w, r, core.CatalogPaymentMethod)
}

func (h *Handler) listReference(w http.ResponseWriter, r *http.Request, kind core.CatalogKind) {
	activeOnly := false
	if raw := r.URL.Query().Get("active_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, "active_only must be true or false", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		activeOnly = v
	}
	result, err := h.svc.ListReferenceData(r.Context(), kind, activeOnly)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Entries)
}

// apiOrderStats handles GET /api/v1/orders/stats.
func (h *Handler) apiOrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetOrderStats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stats)
}
