package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/apperr"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/expiration"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/kafka"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/orders"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/payment"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
)

type OrdersHandler struct {
	DB     postgres.Querier
	Repo   *orders.Repo
	Bridge *payment.Bridge
	Comp   *expiration.Compensator

	// AuthorizedEvents relays validated gateway callbacks onto the
	// payment.authorized topic; the worker applies the paid transition.
	AuthorizedEvents *kafka.Producer

	Service string
	Log     *slog.Logger
	Dev     bool
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Post("/orders/{orderID}/payment-intent", h.createPaymentIntent)
	r.Post("/orders/{orderID}/cancel", h.cancelOrder)
}

// RegisterWebhook mounts the gateway callback outside the user-auth group.
func (h *OrdersHandler) RegisterWebhook(r chi.Router) {
	r.Post("/payments/webhook", h.paymentWebhook)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.Repo.ListByUser(r.Context(), h.DB, UserID(r))
	if err != nil {
		writeErr(w, h.Log, h.Dev, err)
		return
	}
	if out == nil {
		out = []orders.Order{}
	}
	writeData(w, http.StatusOK, out, "User orders retrieved")
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Repo.GetOwned(r.Context(), h.DB, chi.URLParam(r, "orderID"), UserID(r))
	if err != nil {
		writeErr(w, h.Log, h.Dev, err)
		return
	}
	writeData(w, http.StatusOK, o, "Order retrieved")
}

func (h *OrdersHandler) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	intent, err := h.Bridge.CreateIntent(r.Context(), chi.URLParam(r, "orderID"), UserID(r))
	if err != nil {
		writeErr(w, h.Log, h.Dev, err)
		return
	}
	writeData(w, http.StatusCreated, intent, "Payment intent created")
}

// cancelOrder is the explicit cancel path. It shares the compensating body
// with the expiration worker, so stock release and the status change stay in
// one transaction here too.
func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	userID := UserID(r)

	// Ownership check before touching anything.
	if _, err := h.Repo.GetOwned(r.Context(), h.DB, orderID, userID); err != nil {
		writeErr(w, h.Log, h.Dev, err)
		return
	}

	cancelled, err := h.Comp.Cancel(r.Context(), orderID, expiration.ReasonAdminCancel)
	if err != nil {
		writeErr(w, h.Log, h.Dev, err)
		return
	}
	if !cancelled {
		writeErr(w, h.Log, h.Dev, apperr.Conflictf("order can no longer be cancelled"))
		return
	}
	writeData(w, http.StatusOK, struct{}{}, "Order cancelled")
}

type webhookReq struct {
	OrderID     string `json:"order_id"`
	PaymentRef  string `json:"payment_ref"`
	AmountCents int64  `json:"amount_cents"`
}

// paymentWebhook validates the callback and hands it to the async pipeline.
// The worker owns the actual paid transition.
func (h *OrdersHandler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" || req.PaymentRef == "" {
		writeErr(w, h.Log, h.Dev, apperr.Validationf("invalid webhook payload"))
		return
	}

	err := h.AuthorizedEvents.PublishEvent(orders.EventPaymentAuthorized, h.Service,
		middleware.GetReqID(r.Context()), req.OrderID,
		orders.PaymentAuthorizedPayload{
			OrderID:     req.OrderID,
			PaymentRef:  req.PaymentRef,
			AmountCents: req.AmountCents,
		})
	if err != nil {
		writeErr(w, h.Log, h.Dev, err)
		return
	}
	writeData(w, http.StatusAccepted, struct{}{}, "Payment confirmation accepted")
}
