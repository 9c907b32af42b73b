package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/shoppie-mart/api/internal/domain"
	"github.com/shoppie-mart/api/internal/platform/httpx"
	"github.com/shoppie-mart/api/internal/platform/requestctx"
	"github.com/shoppie-mart/api/internal/services"
)

const maxOrderBodySize = 32 * 1024

// OrderHandlers exposes the per-user order endpoints.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs handlers backed by the order service.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes wires the /orders endpoints onto the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.placeOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Patch("/{orderID}/status", h.updateStatus)
}

func (h *OrderHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req placeOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	order, err := h.orders.PlaceOrder(ctx, services.PlaceOrderCommand{
		UserID: userID,
		ShippingAddress: domain.ShippingAddress{
			FullName: req.ShippingAddress.FullName,
			Address:  req.ShippingAddress.Address,
			City:     req.ShippingAddress.City,
			State:    req.ShippingAddress.State,
			ZipCode:  req.ShippingAddress.ZipCode,
			Phone:    req.ShippingAddress.Phone,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	cmd := services.ListOrdersCommand{UserID: userID}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := domain.OrderStatus(strings.TrimSpace(part))
			if status == "" {
				continue
			}
			cmd.Status = append(cmd.Status, status)
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a non-negative integer", http.StatusBadRequest))
			return
		}
		cmd.Limit = limit
	}

	orders, err := h.orders.ListOrders(ctx, cmd)
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	payload := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, ordersResponse{Orders: payload})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	order, err := h.orders.GetOrder(ctx, userID, orderID)
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req updateOrderStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	order, err := h.orders.UpdateStatus(ctx, services.UpdateOrderStatusCommand{
		UserID:  userID,
		OrderID: strings.TrimSpace(chi.URLParam(r, "orderID")),
		Status:  domain.OrderStatus(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) requireIdentity(ctx context.Context, w http.ResponseWriter) (string, bool) {
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	userID := strings.TrimSpace(requestctx.UserID(ctx))
	if userID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "X-User-ID header is required", http.StatusUnauthorized))
		return "", false
	}
	return userID, true
}

func (h *OrderHandlers) writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart is empty", http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_status_transition", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("order_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to serve order request", http.StatusInternalServerError))
	}
}

func buildOrderPayload(order domain.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Total:     item.Total,
		})
	}
	return orderPayload{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Items:       items,
		Subtotal:    order.Subtotal,
		DeliveryFee: order.DeliveryFee,
		Tax:         order.Tax,
		TotalAmount: order.TotalAmount,
		ShippingAddress: orderAddressPayload{
			FullName: order.ShippingAddress.FullName,
			Address:  order.ShippingAddress.Address,
			City:     order.ShippingAddress.City,
			State:    order.ShippingAddress.State,
			ZipCode:  order.ShippingAddress.ZipCode,
			Phone:    order.ShippingAddress.Phone,
		},
		PaymentMethod: order.PaymentMethod,
		Status:        string(order.Status),
		CreatedAt:     formatTime(order.CreatedAt),
		UpdatedAt:     formatTime(order.UpdatedAt),
	}
}

type ordersResponse struct {
	Orders []orderPayload `json:"orders"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderPayload struct {
	ID              string              `json:"id"`
	OrderNumber     string              `json:"order_number"`
	UserID          string              `json:"user_id"`
	Items           []orderItemPayload  `json:"items"`
	Subtotal        int64               `json:"subtotal"`
	DeliveryFee     int64               `json:"delivery_fee"`
	Tax             int64               `json:"tax"`
	TotalAmount     int64               `json:"total_amount"`
	ShippingAddress orderAddressPayload `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method"`
	Status          string              `json:"status"`
	CreatedAt       string              `json:"created_at,omitempty"`
	UpdatedAt       string              `json:"updated_at,omitempty"`
}

type orderItemPayload struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Total     int64  `json:"total"`
}

type orderAddressPayload struct {
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	ZipCode  string `json:"zip_code,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type placeOrderRequest struct {
	ShippingAddress orderAddressPayload `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}
