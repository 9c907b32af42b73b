package di

import (
	"context"
	"errors"
	"fmt"

	"github.com/shoppie-mart/api/internal/platform/config"
	"github.com/shoppie-mart/api/internal/repositories"
	"github.com/shoppie-mart/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Catalog services.CatalogService
	Cart    services.CartService
	Orders  services.OrderService
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// ContainerOption customises container construction.
type ContainerOption func(*containerOptions)

type containerOptions struct {
	events services.OrderEventPublisher
}

// WithOrderEventPublisher wires an event publisher into the order service.
func WithOrderEventPublisher(events services.OrderEventPublisher) ContainerOption {
	return func(o *containerOptions) {
		o.events = events
	}
}

// NewContainer constructs the runtime dependencies. Production wiring provides real
// repositories, while tests can supply in-memory registries.
func NewContainer(cfg config.Config, reg repositories.Registry, opts ...ContainerOption) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	var options containerOptions
	for _, opt := range opts {
		opt(&options)
	}

	svc, err := buildServices(reg, options)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(reg repositories.Registry, options containerOptions) (Services, error) {
	var svc Services

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products: reg.Products(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Carts:    reg.Carts(),
		Products: reg.Products(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart service: %w", err)
	}
	svc.Cart = cartSvc

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:     reg.Orders(),
		Carts:      reg.Carts(),
		Products:   reg.Products(),
		Counters:   reg.Counters(),
		UnitOfWork: reg,
		Events:     options.events,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	return svc, nil
}
