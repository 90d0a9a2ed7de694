package web

import (
	"net/http"
	"strconv"
	"strings"

	"order-service/internal/app"
	"order-service/internal/core"

	"github.com/go-chi/chi/v5"
)

// apiCreateOrder handles POST /api/v1/orders.
func (h *Handler) apiCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req app.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CreateOrder(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/orders/"+result.Order.ID.String())
	writeJSONStatus(w, http.StatusCreated, result.Order)
}

// apiListOrders handles GET /api/v1/orders.
// Query params: skip, limit, search, status_id (id or code), date_from, date_to.
func (h *Handler) apiListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.ListOrdersRequest{
		Search: q.Get("search"),
		Status: q.Get("status_id"),
	}
	var err error
	if req.Skip, err = intParam(q.Get("skip"), 0); err != nil {
		writeError(w, r, "skip must be an integer", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if req.Limit, err = intParam(q.Get("limit"), core.DefaultListLimit); err != nil {
		writeError(w, r, "limit must be an integer", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if req.DateFrom, err = app.ParseTimeBound(q.Get("date_from"), false); err != nil {
		writeError(w, r, "date_from: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if req.DateTo, err = app.ParseTimeBound(q.Get("date_to"), true); err != nil {
		writeError(w, r, "date_to: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.ListOrders(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	writeJSON(w, result.Orders)
}

// apiGetOrder handles GET /api/v1/orders/{id}.
func (h *Handler) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Order)
}

// apiGetOrderByNumber handles GET /api/v1/orders/number/{orderNumber}.
func (h *Handler) apiGetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetOrder(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Order)
}

// apiUpdateOrder handles PATCH /api/v1/orders/{id}.
func (h *Handler) apiUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		core.OrderPatch
		DeliveryMethodID core.Field[string] `json:"delivery_method_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	patch := body.OrderPatch
	if body.DeliveryMethodID.Set {
		patch.DeliveryMethod = body.DeliveryMethodID
	}
	result, err := h.svc.UpdateOrder(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Order)
}

// apiTransitionStatus handles PATCH /api/v1/orders/{id}/status.
func (h *Handler) apiTransitionStatus(w http.ResponseWriter, r *http.Request) {
	var req app.TransitionStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.TransitionOrderStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Order)
}

// apiStatusHistory handles GET /api/v1/orders/{id}/history.
func (h *Handler) apiStatusHistory(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetStatusHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Entries)
}

func intParam(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
