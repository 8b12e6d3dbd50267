package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/freshmart/ordersaga/internal/app"
	"github.com/freshmart/ordersaga/internal/domain"
)

// OrderPlacer is the minimal interface needed to place and read orders.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, in app.PlaceOrderInput) (domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
}

// HandlePlaceOrder accepts a new-order request and returns the order
// id. The saga runs asynchronously; the response status is always
// pending.
func HandlePlaceOrder(svc OrderPlacer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req placeOrderRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		order, err := svc.PlaceOrder(r.Context(), app.PlaceOrderInput{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			Price:     req.Price,
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrProductRequired):
				writeError(w, http.StatusBadRequest, codeProductRequired, err.Error())
			case errors.Is(err, domain.ErrInvalidQuantity):
				writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
			case errors.Is(err, domain.ErrInvalidPrice):
				writeError(w, http.StatusBadRequest, codeInvalidPrice, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, orderResponse{
			ID:        order.ID,
			Status:    string(order.Status),
			CreatedAt: order.CreatedAt,
		})
	}
}

// HandleGetOrder serves order status, the externally observable saga
// outcome.
func HandleGetOrder(svc OrderPlacer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		orderID := strings.TrimPrefix(r.URL.Path, "/orders/")
		if orderID == "" || strings.Contains(orderID, "/") {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrOrderNotFound):
				writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
			case errors.Is(err, domain.ErrInvalidID):
				writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, orderResponse{
			ID:        order.ID,
			Status:    string(order.Status),
			CreatedAt: order.CreatedAt,
		})
	}
}

type placeOrderRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

type orderResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
