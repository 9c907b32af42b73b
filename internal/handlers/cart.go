package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/shoppie-mart/api/internal/domain"
	"github.com/shoppie-mart/api/internal/platform/httpx"
	"github.com/shoppie-mart/api/internal/platform/requestctx"
	"github.com/shoppie-mart/api/internal/services"
)

const maxCartBodySize = 16 * 1024

// CartHandlers exposes the per-user cart endpoints. Identity is taken from
// the request context populated by RequireUser.
type CartHandlers struct {
	carts services.CartService
}

// NewCartHandlers constructs handlers backed by the cart service.
func NewCartHandlers(carts services.CartService) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Patch("/items/{productID}", h.updateItem)
	r.Delete("/items/{productID}", h.removeItem)
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(ctx, userID)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req addCartItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	cart, err := h.carts.AddItem(ctx, services.AddCartItemCommand{
		UserID:    userID,
		ProductID: strings.TrimSpace(req.ProductID),
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req updateCartItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	cart, err := h.carts.UpdateItemQuantity(ctx, services.UpdateCartItemCommand{
		UserID:    userID,
		ProductID: strings.TrimSpace(chi.URLParam(r, "productID")),
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	cart, err := h.carts.RemoveItem(ctx, services.RemoveCartItemCommand{
		UserID:    userID,
		ProductID: strings.TrimSpace(chi.URLParam(r, "productID")),
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	if err := h.carts.ClearCart(ctx, userID); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandlers) requireIdentity(ctx context.Context, w http.ResponseWriter) (string, bool) {
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	userID := strings.TrimSpace(requestctx.UserID(ctx))
	if userID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "X-User-ID header is required", http.StatusUnauthorized))
		return "", false
	}
	return userID, true
}

func (h *CartHandlers) writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_item_not_found", "cart item not found", http.StatusNotFound))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to serve cart request", http.StatusInternalServerError))
	}
}

func buildCartPayload(cart domain.PricedCart) cartPayload {
	items := make([]cartItemPayload, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemPayload{
			ID:        item.Item.ID,
			ProductID: item.Item.ProductID,
			Name:      item.Product.Name,
			UnitPrice: item.Product.Price,
			Quantity:  item.Item.Quantity,
			LineTotal: item.LineTotal,
			AddedAt:   formatTime(item.Item.AddedAt),
		})
	}
	return cartPayload{
		ID:          cart.Cart.ID,
		UserID:      cart.Cart.UserID,
		Items:       items,
		ItemsCount:  len(items),
		TotalAmount: cart.TotalAmount,
		UpdatedAt:   formatTime(cart.Cart.UpdatedAt),
	}
}

type cartResponse struct {
	Cart cartPayload `json:"cart"`
}

type cartPayload struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Items       []cartItemPayload `json:"items"`
	ItemsCount  int               `json:"items_count"`
	TotalAmount int64             `json:"total_amount"`
	UpdatedAt   string            `json:"updated_at,omitempty"`
}

type cartItemPayload struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
	AddedAt   string `json:"added_at,omitempty"`
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
