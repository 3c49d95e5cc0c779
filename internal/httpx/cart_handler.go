package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/apperr"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/cart"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/redisx"
)

type CartHandler struct {
	DB    postgres.Querier
	Tx    postgres.TxRunner
	Repo  *cart.Repo
	Cache *redisx.CartCache
	Log   *slog.Logger
	Dev   bool
}

type cartItemReq struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.getCart)
	r.Post("/cart", h.addItem)
	r.Patch("/cart", h.setQuantity)
	r.Delete("/cart/{variantID}", h.removeItem)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VariantID == "" {
		writeErr(w, h.Log, h.Dev, apperr.Validationf("invalid json"))
		return
	}
	userID := UserID(r)

	var item *cart.Item
	err := h.Tx.InTx(r.Context(), func(ctx context.Context, q postgres.Querier) error {
		var err error
		item, err = h.Repo.AddItem(ctx, q, userID, req.VariantID, req.Quantity)
		return err
	})
	if err != nil {
		writeErr(w, h.Log, h.Dev, err)
		return
	}
	h.invalidate(r, userID)
	writeData(w, http.StatusOK, item, "Item added to cart successfully")
}

func (h *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VariantID == "" {
		writeErr(w, h.Log, h.Dev, apperr.Validationf("invalid json"))
		return
	}
	userID := UserID(r)
	if err := h.Repo.SetQuantity(r.Context(), h.DB, userID, req.VariantID, req.Quantity); err != nil {
		writeErr(w, h.Log, h.Dev, err)
		return
	}
	h.invalidate(r, userID)
	writeData(w, http.StatusOK, struct{}{}, "Cart quantity updated")
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)
	variantID := chi.URLParam(r, "variantID")
	if err := h.Repo.RemoveItem(r.Context(), h.DB, userID, variantID); err != nil {
		writeErr(w, h.Log, h.Dev, err)
		return
	}
	h.invalidate(r, userID)
	writeData(w, http.StatusOK, struct{}{}, "Item removed from cart")
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)

	if body, hit, err := h.Cache.Get(r.Context(), userID); err == nil && hit {
		writeData(w, http.StatusOK, json.RawMessage(body), "Cart fetched from cache")
		return
	}

	c, err := h.Repo.GetWithItems(r.Context(), h.DB, userID)
	if err != nil {
		writeErr(w, h.Log, h.Dev, err)
		return
	}
	if c == nil {
		writeData(w, http.StatusOK, cart.Cart{Items: []cart.Item{}}, "Empty cart")
		return
	}

	if body, err := json.Marshal(c); err == nil {
		if err := h.Cache.Set(r.Context(), userID, body); err != nil {
			h.Log.Warn("cart cache set failed", "user_id", userID, "err", err)
		}
	}
	writeData(w, http.StatusOK, c, "Cart fetched from database")
}

// invalidate is best effort: the cache repopulates on the next read.
func (h *CartHandler) invalidate(r *http.Request, userID string) {
	if err := h.Cache.Invalidate(r.Context(), userID); err != nil {
		h.Log.Warn("cart cache invalidation failed", "user_id", userID, "err", err)
	}
}
