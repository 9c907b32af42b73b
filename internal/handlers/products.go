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
	"github.com/shoppie-mart/api/internal/services"
)

const maxProductBodySize = 32 * 1024

// ProductHandlers exposes the public catalog and admin product endpoints.
type ProductHandlers struct {
	catalog services.CatalogService
}

// NewProductHandlers constructs handlers backed by the catalog service.
func NewProductHandlers(catalog services.CatalogService) *ProductHandlers {
	return &ProductHandlers{catalog: catalog}
}

// Routes wires the public /products endpoints onto the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listProducts)
	r.Get("/categories", h.listCategories)
	r.Get("/{productID}", h.getProduct)
}

// AdminRoutes wires the admin product endpoints onto the provided router.
func (h *ProductHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/products", h.createProduct)
	r.Put("/products/{productID}", h.updateProduct)
}

func (h *ProductHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var filter services.ProductListFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		category := domain.Category(raw)
		filter.Category = &category
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("in_stock")); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "in_stock must be a boolean", http.StatusBadRequest))
			return
		}
		filter.InStock = &inStock
	}

	products, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productsResponse{Products: buildProductPayloads(products)})
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func (h *ProductHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	names := make([]string, 0, len(categories))
	for _, category := range categories {
		names = append(names, string(category))
	}
	writeJSONResponse(w, http.StatusOK, categoriesResponse{Categories: names})
}

func (h *ProductHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	cmd, ok := h.parseProductBody(w, r, "")
	if !ok {
		return
	}

	created, err := h.catalog.CreateProduct(ctx, cmd)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, productResponse{Product: buildProductPayload(created)})
}

func (h *ProductHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	cmd, ok := h.parseProductBody(w, r, productID)
	if !ok {
		return
	}

	updated, err := h.catalog.UpdateProduct(ctx, cmd)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(updated)})
}

func (h *ProductHandlers) parseProductBody(w http.ResponseWriter, r *http.Request, productID string) (services.UpsertProductCommand, bool) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxProductBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return services.UpsertProductCommand{}, false
	}

	var req productRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return services.UpsertProductCommand{}, false
	}

	return services.UpsertProductCommand{
		ProductID:   productID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    domain.Category(req.Category),
		ImageURL:    req.ImageURL,
		InStock:     req.InStock,
		Rating:      req.Rating,
		Reviews:     req.Reviews,
		Weight:      req.Weight,
		Brand:       req.Brand,
	}, true
}

func (h *ProductHandlers) writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrProductInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to serve catalog request", http.StatusInternalServerError))
	}
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func buildProductPayloads(products []domain.Product) []productPayload {
	payload := make([]productPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, buildProductPayload(product))
	}
	return payload
}

func buildProductPayload(product domain.Product) productPayload {
	return productPayload{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Category:    string(product.Category),
		ImageURL:    product.ImageURL,
		InStock:     product.InStock,
		Rating:      product.Rating,
		Reviews:     product.Reviews,
		Weight:      product.Weight,
		Brand:       product.Brand,
		CreatedAt:   formatTime(product.CreatedAt),
		UpdatedAt:   formatTime(product.UpdatedAt),
	}
}

type productsResponse struct {
	Products []productPayload `json:"products"`
}

type productResponse struct {
	Product productPayload `json:"product"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

type productPayload struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       int64   `json:"price"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"image_url,omitempty"`
	InStock     bool    `json:"in_stock"`
	Rating      float64 `json:"rating"`
	Reviews     int     `json:"reviews"`
	Weight      string  `json:"weight,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       int64   `json:"price"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"image_url"`
	InStock     *bool   `json:"in_stock"`
	Rating      float64 `json:"rating"`
	Reviews     int     `json:"reviews"`
	Weight      string  `json:"weight"`
	Brand       string  `json:"brand"`
}
