package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
	"github.com/Imanilom/baraja-coffe-sub000/internal/core/service"
)

type HTTPHandler struct {
	pricing *service.PricingService
	logger  *zap.Logger
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(pricing *service.PricingService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{pricing: pricing, logger: logger}
}

func (h *HTTPHandler) PriceOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.PriceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	order, err := h.pricing.PriceOrder(r.Context(), req)
	if err != nil {
		status, message := mapError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("pricing failed",
				zap.String("order_id", req.OrderID),
				zap.Error(err))
			message = "internal error"
		}
		writeJSON(w, status, errorResponse{Message: message})
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// mapError translates the core's error taxonomy to HTTP. Validation and
// not-found are caller mistakes; conflict and lock-unavailable are retryable
// contention signals.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "stock contention, retry the request"
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusGone, "insufficient stock"
	case errors.Is(err, domain.ErrLockUnavailable):
		return http.StatusLocked, "order reservation in progress, retry later"
	default:
		return http.StatusInternalServerError, ""
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
