package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/apperr"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/inventory"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
)

// StockHandler is the privileged stock surface; mounted behind RequireAdmin.
type StockHandler struct {
	DB     postgres.Querier
	Ledger *inventory.Ledger
	Log    *slog.Logger
	Dev    bool
}

type stockReq struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

func (h *StockHandler) Register(r chi.Router) {
	r.Post("/stock/add", h.addStock)
	r.Get("/stock/{variantID}", h.getStock)
}

func (h *StockHandler) addStock(w http.ResponseWriter, r *http.Request) {
	var req stockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VariantID == "" {
		writeErr(w, h.Log, h.Dev, apperr.Validationf("invalid input data"))
		return
	}
	if err := h.Ledger.AddStock(r.Context(), h.DB, req.VariantID, req.Quantity); err != nil {
		writeErr(w, h.Log, h.Dev, err)
		return
	}
	rec, err := h.Ledger.Get(r.Context(), h.DB, req.VariantID)
	if err != nil {
		writeErr(w, h.Log, h.Dev, err)
		return
	}
	writeData(w, http.StatusOK, rec, "Stock added successfully")
}

func (h *StockHandler) getStock(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Ledger.Get(r.Context(), h.DB, chi.URLParam(r, "variantID"))
	if err != nil {
		writeErr(w, h.Log, h.Dev, err)
		return
	}
	writeData(w, http.StatusOK, rec, "Stock retrieved")
}
