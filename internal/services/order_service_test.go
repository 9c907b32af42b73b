package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/shoppie-mart/api/internal/domain"
	"github.com/shoppie-mart/api/internal/repositories"
)

type stubOrderRepo struct {
	insertFn       func(ctx context.Context, order domain.Order) error
	updateStatusFn func(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error
	findFn         func(ctx context.Context, orderID string) (domain.Order, error)
	listFn         func(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error)
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, order)
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error {
	if s.updateStatusFn == nil {
		return nil
	}
	return s.updateStatusFn(ctx, orderID, status, updatedAt)
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn == nil {
		return domain.Order{}, &stubRepoError{notFound: true}
	}
	return s.findFn(ctx, orderID)
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, filter)
}

type stubCounterRepo struct {
	nextFn func(ctx context.Context, counterID string, step int64) (int64, error)
}

func (s *stubCounterRepo) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	if s.nextFn == nil {
		return 42, nil
	}
	return s.nextFn(ctx, counterID, step)
}

type recordingUnitOfWork struct {
	calls int
}

func (u *recordingUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	u.calls++
	return fn(ctx)
}

type recordingPublisher struct {
	events []OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func validAddress() ShippingAddress {
	return ShippingAddress{
		FullName: "Asha Rao",
		Address:  "12 Gandhi Street",
		City:     "Chennai",
		State:    "TN",
		ZipCode:  "600001",
		Phone:    "+91 90000 00000",
	}
}

type orderServiceFixture struct {
	orders    *stubOrderRepo
	carts     *stubCartRepo
	products  *stubProductRepo
	counters  *stubCounterRepo
	unit      *recordingUnitOfWork
	publisher *recordingPublisher
}

func newTestOrderService(t *testing.T, fx *orderServiceFixture) OrderService {
	t.Helper()
	if fx.orders == nil {
		fx.orders = &stubOrderRepo{}
	}
	if fx.carts == nil {
		fx.carts = &stubCartRepo{}
	}
	if fx.products == nil {
		fx.products = catalogProducts()
	}
	if fx.counters == nil {
		fx.counters = &stubCounterRepo{}
	}
	if fx.unit == nil {
		fx.unit = &recordingUnitOfWork{}
	}
	if fx.publisher == nil {
		fx.publisher = &recordingPublisher{}
	}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:      fx.orders,
		Carts:       fx.carts,
		Products:    fx.products,
		Counters:    fx.counters,
		UnitOfWork:  fx.unit,
		Clock:       fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		IDGenerator: sequentialIDs("01HZX"),
		Events:      fx.publisher,
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return svc
}

func TestPlaceOrderComputesTotals(t *testing.T) {
	fx := &orderServiceFixture{
		products: catalogProducts(
			domain.Product{ID: "p1", Name: "Basmati Rice", Price: 250},
			domain.Product{ID: "p2", Name: "Toor Dal", Price: 125},
		),
		carts: &stubCartRepo{
			getFn: func(context.Context, string) (domain.Cart, error) {
				return domain.Cart{
					UserID: "user-1",
					Items: []domain.CartItem{
						{ID: "itm_1", ProductID: "p1", Quantity: 1},
						{ID: "itm_2", ProductID: "p2", Quantity: 2},
					},
				}, nil
			},
		},
	}

	var inserted domain.Order
	fx.orders = &stubOrderRepo{
		insertFn: func(_ context.Context, order domain.Order) error {
			inserted = order
			return nil
		},
	}

	var cleared *domain.Cart
	fx.carts.upsertFn = func(_ context.Context, cart domain.Cart) (domain.Cart, error) {
		cleared = &cart
		return cart, nil
	}

	svc := newTestOrderService(t, fx)

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID:          "user-1",
		ShippingAddress: validAddress(),
		PaymentMethod:   "card",
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if order.Subtotal != 500 {
		t.Errorf("subtotal = %d, want 500", order.Subtotal)
	}
	if order.DeliveryFee != 40 {
		t.Errorf("delivery fee = %d, want 40", order.DeliveryFee)
	}
	if order.Tax != 25 {
		t.Errorf("tax = %d, want 25", order.Tax)
	}
	if order.TotalAmount != 565 {
		t.Errorf("total = %d, want 565", order.TotalAmount)
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("status = %q, want pending", order.Status)
	}
	if order.OrderNumber != "SM-2025-000042" {
		t.Errorf("order number = %q, want SM-2025-000042", order.OrderNumber)
	}
	if order.ID != "ord_01HZX" {
		t.Errorf("order id = %q, want ord_01HZX", order.ID)
	}
	if inserted.ID != order.ID {
		t.Errorf("inserted order id = %q, want %q", inserted.ID, order.ID)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 order lines, got %d", len(order.Items))
	}
	if order.Items[0].UnitPrice != 250 || order.Items[1].Total != 250 {
		t.Errorf("unexpected line snapshot: %+v", order.Items)
	}

	if cleared == nil {
		t.Fatal("expected cart to be rewritten")
	}
	if cleared.UserID != "user-1" || len(cleared.Items) != 0 {
		t.Errorf("expected empty cart for user-1, got %+v", cleared)
	}
	if fx.unit.calls != 1 {
		t.Errorf("expected one transaction, got %d", fx.unit.calls)
	}
	if len(fx.publisher.events) != 1 || fx.publisher.events[0].Type != orderEventCreated {
		t.Errorf("expected order.created event, got %+v", fx.publisher.events)
	}
}

// orderedUnitOfWork mimics the Firestore transaction contract: once the
// callback buffers a write, any further read fails.
type orderedUnitOfWork struct {
	inTx  bool
	wrote bool
}

func (u *orderedUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	u.inTx = true
	u.wrote = false
	defer func() { u.inTx = false }()
	return fn(ctx)
}

func (u *orderedUnitOfWork) read(op string) error {
	if u.inTx && u.wrote {
		return errors.New("read after write in transaction: " + op)
	}
	return nil
}

func (u *orderedUnitOfWork) write() {
	if u.inTx {
		u.wrote = true
	}
}

func TestPlaceOrderTransactionReadsPrecedeWrites(t *testing.T) {
	unit := &orderedUnitOfWork{}
	products := catalogProducts(domain.Product{ID: "p1", Name: "Basmati Rice", Price: 250})
	baseFind := products.findFn
	products.findFn = func(ctx context.Context, productID string) (domain.Product, error) {
		if err := unit.read("products.get"); err != nil {
			return domain.Product{}, err
		}
		return baseFind(ctx, productID)
	}

	carts := &stubCartRepo{
		getFn: func(context.Context, string) (domain.Cart, error) {
			if err := unit.read("carts.get"); err != nil {
				return domain.Cart{}, err
			}
			return domain.Cart{
				UserID: "user-1",
				Items:  []domain.CartItem{{ID: "itm_1", ProductID: "p1", Quantity: 2}},
			}, nil
		},
		upsertFn: func(_ context.Context, cart domain.Cart) (domain.Cart, error) {
			unit.write()
			return cart, nil
		},
	}
	counters := &stubCounterRepo{
		nextFn: func(context.Context, string, int64) (int64, error) {
			if err := unit.read("counters.get"); err != nil {
				return 0, err
			}
			unit.write()
			return 7, nil
		},
	}
	orders := &stubOrderRepo{
		insertFn: func(context.Context, domain.Order) error {
			unit.write()
			return nil
		},
	}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:      orders,
		Carts:       carts,
		Products:    products,
		Counters:    counters,
		UnitOfWork:  unit,
		Clock:       fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		IDGenerator: sequentialIDs("01HZX"),
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID:          "user-1",
		ShippingAddress: validAddress(),
		PaymentMethod:   "card",
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.OrderNumber != "SM-2025-000007" {
		t.Errorf("order number = %q, want SM-2025-000007", order.OrderNumber)
	}
	if !unit.wrote {
		t.Error("expected transaction to buffer writes")
	}
}

func TestPlaceOrderSmallSubtotalRounding(t *testing.T) {
	fx := &orderServiceFixture{
		products: catalogProducts(domain.Product{ID: "p1", Name: "Cumin", Price: 133}),
		carts: &stubCartRepo{
			getFn: func(context.Context, string) (domain.Cart, error) {
				return domain.Cart{
					UserID: "user-1",
					Items:  []domain.CartItem{{ID: "itm_1", ProductID: "p1", Quantity: 1}},
				}, nil
			},
		},
	}
	svc := newTestOrderService(t, fx)

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID:          "user-1",
		ShippingAddress: validAddress(),
		PaymentMethod:   "upi",
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.Tax != 7 {
		t.Errorf("tax = %d, want 7", order.Tax)
	}
	if order.TotalAmount != 180 {
		t.Errorf("total = %d, want 180", order.TotalAmount)
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	fx := &orderServiceFixture{
		carts: &stubCartRepo{
			getFn: func(context.Context, string) (domain.Cart, error) {
				return domain.Cart{UserID: "user-1", Items: []domain.CartItem{}}, nil
			},
		},
	}
	svc := newTestOrderService(t, fx)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID:          "user-1",
		ShippingAddress: validAddress(),
		PaymentMethod:   "card",
	})
	if !errors.Is(err, ErrOrderEmptyCart) {
		t.Fatalf("expected ErrOrderEmptyCart, got %v", err)
	}
}

func TestPlaceOrderMissingCartDocument(t *testing.T) {
	svc := newTestOrderService(t, &orderServiceFixture{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID:          "user-1",
		ShippingAddress: validAddress(),
		PaymentMethod:   "card",
	})
	if !errors.Is(err, ErrOrderEmptyCart) {
		t.Fatalf("expected ErrOrderEmptyCart, got %v", err)
	}
}

func TestPlaceOrderAllLinesOrphaned(t *testing.T) {
	fx := &orderServiceFixture{
		carts: &stubCartRepo{
			getFn: func(context.Context, string) (domain.Cart, error) {
				return domain.Cart{
					UserID: "user-1",
					Items:  []domain.CartItem{{ID: "itm_1", ProductID: "gone", Quantity: 2}},
				}, nil
			},
		},
	}
	svc := newTestOrderService(t, fx)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID:          "user-1",
		ShippingAddress: validAddress(),
		PaymentMethod:   "card",
	})
	if !errors.Is(err, ErrOrderEmptyCart) {
		t.Fatalf("expected ErrOrderEmptyCart, got %v", err)
	}
}

func TestPlaceOrderShippingValidation(t *testing.T) {
	svc := newTestOrderService(t, &orderServiceFixture{})

	addr := validAddress()
	addr.FullName = ""
	addr.City = "  "
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID:          "user-1",
		ShippingAddress: addr,
		PaymentMethod:   "card",
	})
	if !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
	}
}

func TestPlaceOrderPaymentMethodValidation(t *testing.T) {
	svc := newTestOrderService(t, &orderServiceFixture{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID:          "user-1",
		ShippingAddress: validAddress(),
		PaymentMethod:   "cheque",
	})
	if !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
	}
}

func TestPlaceOrderInsertFailureSurfaces(t *testing.T) {
	fx := &orderServiceFixture{
		products: catalogProducts(domain.Product{ID: "p1", Price: 100}),
		carts: &stubCartRepo{
			getFn: func(context.Context, string) (domain.Cart, error) {
				return domain.Cart{
					UserID: "user-1",
					Items:  []domain.CartItem{{ID: "itm_1", ProductID: "p1", Quantity: 1}},
				}, nil
			},
		},
		orders: &stubOrderRepo{
			insertFn: func(context.Context, domain.Order) error {
				return &stubRepoError{unavailable: true}
			},
		},
	}
	svc := newTestOrderService(t, fx)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID:          "user-1",
		ShippingAddress: validAddress(),
		PaymentMethod:   "cod",
	})
	if !errors.Is(err, ErrOrderUnavailable) {
		t.Fatalf("expected ErrOrderUnavailable, got %v", err)
	}
	if len(fx.publisher.events) != 0 {
		t.Fatalf("expected no events on failure, got %+v", fx.publisher.events)
	}
}

func TestListOrders(t *testing.T) {
	fx := &orderServiceFixture{
		orders: &stubOrderRepo{
			listFn: func(_ context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
				if filter.UserID != "user-1" {
					t.Fatalf("unexpected user filter %q", filter.UserID)
				}
				return []domain.Order{{ID: "ord_2"}, {ID: "ord_1"}}, nil
			},
		},
	}
	svc := newTestOrderService(t, fx)

	orders, err := svc.ListOrders(context.Background(), ListOrdersCommand{UserID: "user-1"})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 2 || orders[0].ID != "ord_2" {
		t.Fatalf("unexpected orders: %+v", orders)
	}
}

func TestListOrdersRejectsUnknownStatus(t *testing.T) {
	svc := newTestOrderService(t, &orderServiceFixture{})

	_, err := svc.ListOrders(context.Background(), ListOrdersCommand{UserID: "user-1", Status: []OrderStatus{"refunded"}})
	if !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
	}
}

func TestGetOrderScopedToOwner(t *testing.T) {
	fx := &orderServiceFixture{
		orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) {
				return domain.Order{ID: "ord_1", UserID: "someone-else"}, nil
			},
		},
	}
	svc := newTestOrderService(t, fx)

	_, err := svc.GetOrder(context.Background(), "user-1", "ord_1")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign order, got %v", err)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	cases := []struct {
		from    domain.OrderStatus
		to      domain.OrderStatus
		allowed bool
	}{
		{domain.OrderStatusPending, domain.OrderStatusProcessing, true},
		{domain.OrderStatusPending, domain.OrderStatusCancelled, true},
		{domain.OrderStatusPending, domain.OrderStatusShipped, false},
		{domain.OrderStatusPending, domain.OrderStatusDelivered, false},
		{domain.OrderStatusProcessing, domain.OrderStatusShipped, true},
		{domain.OrderStatusProcessing, domain.OrderStatusCancelled, true},
		{domain.OrderStatusProcessing, domain.OrderStatusDelivered, false},
		{domain.OrderStatusShipped, domain.OrderStatusDelivered, true},
		{domain.OrderStatusShipped, domain.OrderStatusCancelled, false},
		{domain.OrderStatusDelivered, domain.OrderStatusPending, false},
		{domain.OrderStatusDelivered, domain.OrderStatusCancelled, false},
		{domain.OrderStatusCancelled, domain.OrderStatusPending, false},
		{domain.OrderStatusCancelled, domain.OrderStatusProcessing, false},
	}

	for _, tc := range cases {
		fx := &orderServiceFixture{
			orders: &stubOrderRepo{
				findFn: func(context.Context, string) (domain.Order, error) {
					return domain.Order{ID: "ord_1", UserID: "user-1", Status: tc.from}, nil
				},
			},
		}
		svc := newTestOrderService(t, fx)

		order, err := svc.UpdateStatus(context.Background(), UpdateOrderStatusCommand{
			UserID:  "user-1",
			OrderID: "ord_1",
			Status:  tc.to,
		})
		if tc.allowed {
			if err != nil {
				t.Errorf("%s to %s: unexpected error %v", tc.from, tc.to, err)
				continue
			}
			if order.Status != tc.to {
				t.Errorf("%s to %s: status = %q", tc.from, tc.to, order.Status)
			}
			if len(fx.publisher.events) != 1 || fx.publisher.events[0].Type != orderEventStatusChanged {
				t.Errorf("%s to %s: expected status change event", tc.from, tc.to)
			}
		} else if !errors.Is(err, ErrOrderInvalidTransition) {
			t.Errorf("%s to %s: expected ErrOrderInvalidTransition, got %v", tc.from, tc.to, err)
		}
	}
}

func TestUpdateStatusSameStatusNoOp(t *testing.T) {
	var updated bool
	fx := &orderServiceFixture{
		orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) {
				return domain.Order{ID: "ord_1", UserID: "user-1", Status: domain.OrderStatusProcessing}, nil
			},
			updateStatusFn: func(context.Context, string, domain.OrderStatus, time.Time) error {
				updated = true
				return nil
			},
		},
	}
	svc := newTestOrderService(t, fx)

	order, err := svc.UpdateStatus(context.Background(), UpdateOrderStatusCommand{
		UserID:  "user-1",
		OrderID: "ord_1",
		Status:  domain.OrderStatusProcessing,
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated {
		t.Error("expected no repository write for same-status update")
	}
	if order.Status != domain.OrderStatusProcessing {
		t.Errorf("status = %q, want processing", order.Status)
	}
	if len(fx.publisher.events) != 0 {
		t.Errorf("expected no events for no-op, got %+v", fx.publisher.events)
	}
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	svc := newTestOrderService(t, &orderServiceFixture{})

	_, err := svc.UpdateStatus(context.Background(), UpdateOrderStatusCommand{
		UserID:  "user-1",
		OrderID: "ord_1",
		Status:  "refunded",
	})
	if !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
	}
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	svc := newTestOrderService(t, &orderServiceFixture{})

	_, err := svc.UpdateStatus(context.Background(), UpdateOrderStatusCommand{
		UserID:  "user-1",
		OrderID: "ord_missing",
		Status:  domain.OrderStatusProcessing,
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
