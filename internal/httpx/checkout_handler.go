package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/apperr"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/checkout"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/idempotency"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/orders"
)

type CheckoutHandler struct {
	Orch *checkout.Orchestrator
	Log  *slog.Logger
	Dev  bool
}

type checkoutReq struct {
	IdempotencyKey  string                 `json:"idempotency_key"`
	ShippingAddress orders.ShippingAddress `json:"shipping_address"`
}

func (h *CheckoutHandler) Register(r chi.Router) {
	r.Post("/checkout", h.checkout)
}

func (h *CheckoutHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, h.Log, h.Dev, apperr.Validationf("invalid json"))
		return
	}
	// The header form wins over the body field when both are present.
	if k := r.Header.Get(idempotency.Header); k != "" {
		req.IdempotencyKey = k
	}

	res, replayed, err := h.Orch.Checkout(r.Context(), checkout.Input{
		UserID:         UserID(r),
		IdempotencyKey: req.IdempotencyKey,
		Address:        req.ShippingAddress,
		TraceID:        middleware.GetReqID(r.Context()),
	})
	if err != nil {
		writeErr(w, h.Log, h.Dev, err)
		return
	}
	if replayed {
		writeData(w, http.StatusOK, res, "Order initiated")
		return
	}
	writeData(w, http.StatusCreated, res, "Order initiated")
}
