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

const productCollection = "products"

type productDocument struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description,omitempty"`
	Price       int64     `firestore:"price"`
	Category    string    `firestore:"category"`
	ImageURL    string    `firestore:"imageUrl,omitempty"`
	InStock     bool      `firestore:"inStock"`
	Rating      float64   `firestore:"rating"`
	Reviews     int       `firestore:"reviews"`
	Weight      string    `firestore:"weight,omitempty"`
	Brand       string    `firestore:"brand,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

// ProductRepository persists catalog products in Firestore.
type ProductRepository struct {
	base *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productCollection, nil, nil)
	return &ProductRepository{base: base}, nil
}

// Insert writes a new product document under its ID.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	return r.write(ctx, product)
}

// Update overwrites an existing product document.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	return r.write(ctx, product)
}

func (r *ProductRepository) write(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return errors.New("product repository: product id is required")
	}
	_, err := r.base.Set(ctx, id, encodeProduct(product))
	return err
}

// FindByID loads a single product.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, errors.New("product repository: product id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return decodeProduct(doc.ID, doc.Data), nil
}

// FindByIDs loads the given products, keyed by ID. Missing products are
// simply absent from the result rather than reported as errors.
func (r *ProductRepository) FindByIDs(ctx context.Context, productIDs []string) (map[string]domain.Product, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("product repository not initialised")
	}

	found := make(map[string]domain.Product, len(productIDs))
	for _, productID := range productIDs {
		id := strings.TrimSpace(productID)
		if id == "" {
			continue
		}
		if _, ok := found[id]; ok {
			continue
		}
		doc, err := r.base.Get(ctx, id)
		if err != nil {
			var repoErr repositories.RepositoryError
			if errors.As(err, &repoErr) && repoErr.IsNotFound() {
				continue
			}
			return nil, err
		}
		found[id] = decodeProduct(doc.ID, doc.Data)
	}
	return found, nil
}

// List returns catalog products matching the filter, newest first.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("product repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if filter.Category != nil {
			query = query.Where("category", "==", string(*filter.Category))
		}
		if filter.InStock != nil {
			query = query.Where("inStock", "==", *filter.InStock)
		}
		return query.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, decodeProduct(doc.ID, doc.Data))
	}
	return products, nil
}

func encodeProduct(product domain.Product) productDocument {
	return productDocument{
		Name:        strings.TrimSpace(product.Name),
		Description: strings.TrimSpace(product.Description),
		Price:       product.Price,
		Category:    string(product.Category),
		ImageURL:    strings.TrimSpace(product.ImageURL),
		InStock:     product.InStock,
		Rating:      product.Rating,
		Reviews:     product.Reviews,
		Weight:      strings.TrimSpace(product.Weight),
		Brand:       strings.TrimSpace(product.Brand),
		CreatedAt:   product.CreatedAt.UTC(),
		UpdatedAt:   product.UpdatedAt.UTC(),
	}
}

func decodeProduct(id string, doc productDocument) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		Price:       doc.Price,
		Category:    domain.Category(doc.Category),
		ImageURL:    doc.ImageURL,
		InStock:     doc.InStock,
		Rating:      doc.Rating,
		Reviews:     doc.Reviews,
		Weight:      doc.Weight,
		Brand:       doc.Brand,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)
