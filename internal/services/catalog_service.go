package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/shoppie-mart/api/internal/domain"
	"github.com/shoppie-mart/api/internal/repositories"
)

const productIDPrefix = "prd_"

var (
	// ErrProductInvalidInput signals the caller provided invalid data.
	ErrProductInvalidInput = errors.New("catalog: invalid input")
	// ErrProductNotFound indicates the product could not be located.
	ErrProductNotFound = errors.New("catalog: product not found")
	// ErrCatalogUnavailable indicates a backend outage.
	ErrCatalogUnavailable = errors.New("catalog: unavailable")
)

// CatalogServiceDeps bundles collaborators required to construct the catalog service.
type CatalogServiceDeps struct {
	Products    repositories.ProductRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	products repositories.ProductRepository
	clock    func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
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

	return &catalogService{
		products: deps.Products,
		clock:    func() time.Time { return clock().UTC() },
		newID:    idGen,
		logger:   logger,
	}, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductListFilter) ([]Product, error) {
	if filter.Category != nil && !domain.ValidCategory(*filter.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrProductInvalidInput, *filter.Category)
	}
	products, err := s.products.List(ctx, repositories.ProductListFilter{
		Category: filter.Category,
		InStock:  filter.InStock,
	})
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrProductInvalidInput)
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return Product{}, s.mapRepositoryError(err)
	}
	return product, nil
}

func (s *catalogService) Categories(_ context.Context) ([]Category, error) {
	return domain.Categories(), nil
}

func (s *catalogService) CreateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error) {
	product, err := s.buildProduct(cmd, Product{})
	if err != nil {
		return Product{}, err
	}

	now := s.clock()
	product.ID = strings.TrimSpace(cmd.ProductID)
	if product.ID == "" {
		product.ID = productIDPrefix + s.newID()
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.products.Insert(ctx, product); err != nil {
		return Product{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "catalog.product.created", map[string]any{
		"productID": product.ID,
		"category":  string(product.Category),
	})
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error) {
	id := strings.TrimSpace(cmd.ProductID)
	if id == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrProductInvalidInput)
	}

	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return Product{}, s.mapRepositoryError(err)
	}

	product, err := s.buildProduct(cmd, existing)
	if err != nil {
		return Product{}, err
	}
	product.ID = id
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = s.clock()

	if err := s.products.Update(ctx, product); err != nil {
		return Product{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "catalog.product.updated", map[string]any{
		"productID": product.ID,
	})
	return product, nil
}

func (s *catalogService) buildProduct(cmd UpsertProductCommand, base Product) (Product, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return Product{}, fmt.Errorf("%w: name is required", ErrProductInvalidInput)
	}
	if cmd.Price <= 0 {
		return Product{}, fmt.Errorf("%w: price must be greater than zero", ErrProductInvalidInput)
	}
	if !domain.ValidCategory(cmd.Category) {
		return Product{}, fmt.Errorf("%w: unknown category %q", ErrProductInvalidInput, cmd.Category)
	}
	if cmd.Rating < 0 || cmd.Rating > 5 {
		return Product{}, fmt.Errorf("%w: rating must be between 0 and 5", ErrProductInvalidInput)
	}
	if cmd.Reviews < 0 {
		return Product{}, fmt.Errorf("%w: reviews must be non-negative", ErrProductInvalidInput)
	}

	product := base
	product.Name = name
	product.Description = strings.TrimSpace(cmd.Description)
	product.Price = cmd.Price
	product.Category = cmd.Category
	product.ImageURL = strings.TrimSpace(cmd.ImageURL)
	product.Rating = cmd.Rating
	product.Reviews = cmd.Reviews
	product.Weight = strings.TrimSpace(cmd.Weight)
	product.Brand = strings.TrimSpace(cmd.Brand)
	if cmd.InStock != nil {
		product.InStock = *cmd.InStock
	} else if base.ID == "" {
		product.InStock = true
	}
	return product, nil
}

func (s *catalogService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrProductNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
}
