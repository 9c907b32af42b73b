package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/shoppie-mart/api/internal/domain"
	pfirestore "github.com/shoppie-mart/api/internal/platform/firestore"
	"github.com/shoppie-mart/api/internal/repositories"
)

const orderCollection = "orders"

type orderItemDocument struct {
	ProductID string `firestore:"productId"`
	Name      string `firestore:"name"`
	UnitPrice int64  `firestore:"unitPrice"`
	Quantity  int    `firestore:"quantity"`
	Total     int64  `firestore:"total"`
}

type orderAddressDocument struct {
	FullName string `firestore:"fullName"`
	Address  string `firestore:"address"`
	City     string `firestore:"city"`
	State    string `firestore:"state,omitempty"`
	ZipCode  string `firestore:"zipCode,omitempty"`
	Phone    string `firestore:"phone,omitempty"`
}

type orderDocument struct {
	UserID          string               `firestore:"userId"`
	OrderNumber     string               `firestore:"orderNumber"`
	Items           []orderItemDocument  `firestore:"items"`
	Subtotal        int64                `firestore:"subtotal"`
	DeliveryFee     int64                `firestore:"deliveryFee"`
	Tax             int64                `firestore:"tax"`
	TotalAmount     int64                `firestore:"totalAmount"`
	ShippingAddress orderAddressDocument `firestore:"shippingAddress"`
	PaymentMethod   string               `firestore:"paymentMethod"`
	Status          string               `firestore:"status"`
	CreatedAt       time.Time            `firestore:"createdAt"`
	UpdatedAt       time.Time            `firestore:"updatedAt"`
}

// OrderRepository persists immutable order snapshots in Firestore. Only the
// status and updatedAt fields change after insert.
type OrderRepository struct {
	base *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil)
	return &OrderRepository{base: base}, nil
}

// Insert writes the order snapshot under its ID.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	_, err := r.base.Set(ctx, id, encodeOrder(order))
	return err
}

// UpdateStatus mutates only the status and updatedAt fields.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	_, err := r.base.Update(ctx, id, []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: updatedAt.UTC()},
	})
	return err
}

// FindByID loads a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrder(doc.ID, doc.Data), nil
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	uid := strings.TrimSpace(filter.UserID)
	if uid == "" {
		return nil, errors.New("order repository: user id is required")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		query = query.Where("userId", "==", uid)
		if len(filter.Status) > 0 {
			statuses := make([]string, 0, len(filter.Status))
			for _, status := range filter.Status {
				statuses = append(statuses, string(status))
			}
			query = query.Where("status", "in", statuses)
		}
		query = query.OrderBy("createdAt", firestore.Desc)
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		return query
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, decodeOrder(doc.ID, doc.Data))
	}
	return orders, nil
}

func encodeOrder(order domain.Order) orderDocument {
	items := make([]orderItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemDocument{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Total:     item.Total,
		})
	}
	return orderDocument{
		UserID:      strings.TrimSpace(order.UserID),
		OrderNumber: strings.TrimSpace(order.OrderNumber),
		Items:       items,
		Subtotal:    order.Subtotal,
		DeliveryFee: order.DeliveryFee,
		Tax:         order.Tax,
		TotalAmount: order.TotalAmount,
		ShippingAddress: orderAddressDocument{
			FullName: strings.TrimSpace(order.ShippingAddress.FullName),
			Address:  strings.TrimSpace(order.ShippingAddress.Address),
			City:     strings.TrimSpace(order.ShippingAddress.City),
			State:    strings.TrimSpace(order.ShippingAddress.State),
			ZipCode:  strings.TrimSpace(order.ShippingAddress.ZipCode),
			Phone:    strings.TrimSpace(order.ShippingAddress.Phone),
		},
		PaymentMethod: strings.TrimSpace(order.PaymentMethod),
		Status:        string(order.Status),
		CreatedAt:     order.CreatedAt.UTC(),
		UpdatedAt:     order.UpdatedAt.UTC(),
	}
}

func decodeOrder(id string, doc orderDocument) domain.Order {
	items := make([]domain.OrderItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Total:     item.Total,
		})
	}
	return domain.Order{
		ID:          id,
		OrderNumber: doc.OrderNumber,
		UserID:      doc.UserID,
		Items:       items,
		Subtotal:    doc.Subtotal,
		DeliveryFee: doc.DeliveryFee,
		Tax:         doc.Tax,
		TotalAmount: doc.TotalAmount,
		ShippingAddress: domain.ShippingAddress{
			FullName: doc.ShippingAddress.FullName,
			Address:  doc.ShippingAddress.Address,
			City:     doc.ShippingAddress.City,
			State:    doc.ShippingAddress.State,
			ZipCode:  doc.ShippingAddress.ZipCode,
			Phone:    doc.ShippingAddress.Phone,
		},
		PaymentMethod: doc.PaymentMethod,
		Status:        domain.OrderStatus(doc.Status),
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
