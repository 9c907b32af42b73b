package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/shoppie-mart/api/internal/domain"
	"github.com/shoppie-mart/api/internal/repositories"
)

const (
	orderEventCreated       = "order.created"
	orderEventStatusChanged = "order.status.changed"

	orderIDPrefix       = "ord_"
	orderNumberCounter  = "orders"
	orderNumberTemplate = "SM-%04d-%06d"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderEmptyCart indicates checkout was attempted with no cart lines.
	ErrOrderEmptyCart = errors.New("order: cart is empty")
	// ErrOrderInvalidTransition indicates an invalid status transition was attempted.
	ErrOrderInvalidTransition = errors.New("order: invalid status transition")
	// ErrOrderUnavailable indicates a backend outage.
	ErrOrderUnavailable = errors.New("order: unavailable")
)

// PaymentMethods lists the accepted checkout payment methods.
var PaymentMethods = []string{"card", "upi", "cod"}

var orderStateTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:    {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:    {domain.OrderStatusDelivered},
}

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent captures metadata for emitted order domain events.
type OrderEvent struct {
	Type           string
	OrderID        string
	OrderNumber    string
	UserID         string
	PreviousStatus string
	CurrentStatus  string
	TotalAmount    int64
	OccurredAt     time.Time
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Carts       repositories.CartRepository
	Products    repositories.ProductRepository
	Counters    repositories.CounterRepository
	UnitOfWork  repositories.UnitOfWork
	Clock       func() time.Time
	IDGenerator func() string
	Events      OrderEventPublisher
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders     repositories.OrderRepository
	carts      repositories.CartRepository
	products   repositories.ProductRepository
	counters   repositories.CounterRepository
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	newID      func() string
	events     OrderEventPublisher
	logger     func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Carts == nil {
		return nil, errors.New("order service: cart repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("order service: product repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:     deps.Orders,
		carts:      deps.Carts,
		products:   deps.Products,
		counters:   deps.Counters,
		unitOfWork: unit,
		clock:      func() time.Time { return clock().UTC() },
		newID:      idGen,
		events:     deps.Events,
		logger:     logger,
	}, nil
}

// PlaceOrder snapshots the user's cart into an immutable order at current
// catalog prices and empties the cart. The cart read, price snapshot, order
// insert, and cart clear all share one transaction.
func (s *orderService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (Order, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return Order{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	if err := validateShippingAddress(cmd.ShippingAddress); err != nil {
		return Order{}, err
	}
	method := strings.ToLower(strings.TrimSpace(cmd.PaymentMethod))
	if !slices.Contains(PaymentMethods, method) {
		return Order{}, fmt.Errorf("%w: unsupported payment method %q", ErrOrderInvalidInput, cmd.PaymentMethod)
	}

	now := s.clock()

	// Firestore rejects reads issued after a buffered write, so the cart load,
	// price snapshot, and counter read all run before the first write. The
	// transaction may retry, so the order is rebuilt on every attempt.
	var order Order
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		cart, err := s.carts.GetCart(txCtx, userID)
		if err != nil {
			if isRepoNotFound(err) {
				return ErrOrderEmptyCart
			}
			return s.mapRepositoryError(err)
		}
		if len(cart.Items) == 0 {
			return ErrOrderEmptyCart
		}

		items, subtotal, err := s.snapshotLines(txCtx, cart.Items)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrOrderEmptyCart
		}

		seq, err := s.counters.Next(txCtx, orderNumberCounter, 1)
		if err != nil {
			return s.mapRepositoryError(err)
		}

		pricing := domain.PriceOrder(subtotal)
		order = Order{
			ID:              orderIDPrefix + s.newID(),
			OrderNumber:     fmt.Sprintf(orderNumberTemplate, now.Year(), seq),
			UserID:          userID,
			Items:           items,
			Subtotal:        pricing.Subtotal,
			DeliveryFee:     pricing.DeliveryFee,
			Tax:             pricing.Tax,
			TotalAmount:     pricing.Total,
			ShippingAddress: trimAddress(cmd.ShippingAddress),
			PaymentMethod:   method,
			Status:          domain.OrderStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if err := s.orders.Insert(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}

		cleared := domain.Cart{
			ID:        userID,
			UserID:    userID,
			Items:     []domain.CartItem{},
			CreatedAt: cart.CreatedAt,
			UpdatedAt: now,
		}
		if _, err := s.carts.UpsertCart(txCtx, cleared); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:          orderEventCreated,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        userID,
		CurrentStatus: string(order.Status),
		TotalAmount:   order.TotalAmount,
		OccurredAt:    now,
	})

	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *orderService) ListOrders(ctx context.Context, cmd ListOrdersCommand) ([]Order, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	for _, status := range cmd.Status {
		if !domain.ValidOrderStatus(status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, status)
		}
	}

	orders, err := s.orders.ListByUser(ctx, repositories.OrderListFilter{
		UserID: userID,
		Status: cmd.Status,
		Limit:  cmd.Limit,
	})
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return orders, nil
}

// GetOrder loads one order, scoped to its owner.
func (s *orderService) GetOrder(ctx context.Context, userID string, orderID string) (Order, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return Order{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if order.UserID != uid {
		return Order{}, fmt.Errorf("%w: order %s", ErrOrderNotFound, id)
	}
	return order, nil
}

// UpdateStatus applies a guarded status transition. Same-status updates are
// accepted as no-ops.
func (s *orderService) UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (Order, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return Order{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	id := strings.TrimSpace(cmd.OrderID)
	if id == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	target := domain.OrderStatus(strings.ToLower(strings.TrimSpace(string(cmd.Status))))
	if !domain.ValidOrderStatus(target) {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, cmd.Status)
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if order.UserID != uid {
		return Order{}, fmt.Errorf("%w: order %s", ErrOrderNotFound, id)
	}

	if order.Status == target {
		return order, nil
	}
	if !canTransition(order.Status, target) {
		return Order{}, fmt.Errorf("%w: %s to %s", ErrOrderInvalidTransition, order.Status, target)
	}

	now := s.clock()
	prev := order.Status
	if err := s.orders.UpdateStatus(ctx, order.ID, target, now); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	order.Status = target
	order.UpdatedAt = now

	s.publishEvent(ctx, OrderEvent{
		Type:           orderEventStatusChanged,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		UserID:         uid,
		PreviousStatus: string(prev),
		CurrentStatus:  string(target),
		TotalAmount:    order.TotalAmount,
		OccurredAt:     now,
	})

	return order, nil
}

// snapshotLines freezes current catalog prices into order lines. Cart lines
// whose product no longer resolves are dropped from the snapshot.
func (s *orderService) snapshotLines(ctx context.Context, cartItems []domain.CartItem) ([]OrderItem, int64, error) {
	ids := make([]string, 0, len(cartItems))
	for _, item := range cartItems {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, s.mapRepositoryError(err)
	}

	var subtotal int64
	lines := make([]OrderItem, 0, len(cartItems))
	for _, item := range cartItems {
		product, ok := products[item.ProductID]
		if !ok {
			s.logger(ctx, "order.line.dropped", map[string]any{
				"productID": item.ProductID,
			})
			continue
		}
		total := product.Price * int64(item.Quantity)
		lines = append(lines, OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
			Total:     total,
		})
		subtotal += total
	}
	return lines, subtotal, nil
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
}

func (s *orderService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func validateShippingAddress(addr ShippingAddress) error {
	var missing []string
	if strings.TrimSpace(addr.FullName) == "" {
		missing = append(missing, "full_name")
	}
	if strings.TrimSpace(addr.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(addr.City) == "" {
		missing = append(missing, "city")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: shipping address missing %s", ErrOrderInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

func trimAddress(addr ShippingAddress) ShippingAddress {
	return ShippingAddress{
		FullName: strings.TrimSpace(addr.FullName),
		Address:  strings.TrimSpace(addr.Address),
		City:     strings.TrimSpace(addr.City),
		State:    strings.TrimSpace(addr.State),
		ZipCode:  strings.TrimSpace(addr.ZipCode),
		Phone:    strings.TrimSpace(addr.Phone),
	}
}

func canTransition(current, target domain.OrderStatus) bool {
	if current == target {
		return true
	}
	next, ok := orderStateTransitions[current]
	if !ok {
		return false
	}
	return slices.Contains(next, target)
}
