package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/freshmart/ordersaga/internal/app"
	"github.com/freshmart/ordersaga/internal/domain"
)

// BatchCreator is the minimal interface needed to replenish stock.
type BatchCreator interface {
	CreateBatch(ctx context.Context, in app.CreateBatchInput) (domain.Batch, error)
}

// HandleCreateBatch accepts a stock replenishment for a product.
func HandleCreateBatch(svc BatchCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createBatchRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		batch, err := svc.CreateBatch(r.Context(), app.CreateBatchInput{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			ExpiresAt: req.ExpiresAt,
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrProductRequired):
				writeError(w, http.StatusBadRequest, codeProductRequired, err.Error())
			case errors.Is(err, domain.ErrInvalidQuantity):
				writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
			case errors.Is(err, domain.ErrInvalidExpiry):
				writeError(w, http.StatusBadRequest, codeInvalidExpiresAt, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, createBatchResponse{
			ID:        batch.ID,
			ProductID: batch.ProductID,
			Quantity:  batch.Quantity,
			ExpiresAt: batch.ExpiresAt,
		})
	}
}

type createBatchRequest struct {
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	ExpiresAt time.Time `json:"expires_at"`
}

type createBatchResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	ExpiresAt time.Time `json:"expires_at"`
}
