package web

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ErrProductNotFound возвращается, когда товара нет в каталоге.
var ErrProductNotFound = errors.New("product not found")

// Catalog кэширует товары backend по идентификатору: операции корзины
// обращаются к нему, а не к backend на каждое добавление.
type Catalog struct {
	gateway domain.BackendGateway
	logger  *log.Entry

	mu       sync.RWMutex
	products map[string]domain.Product
}

// NewCatalog создает кэш каталога поверх backend.
func NewCatalog(gateway domain.BackendGateway, logger *log.Entry) *Catalog {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &Catalog{
		gateway:  gateway,
		logger:   logger,
		products: make(map[string]domain.Product),
	}
}

// List возвращает каталог и обновляет кэш.
func (c *Catalog) List(ctx context.Context) ([]domain.Product, error) {
	products, err := c.gateway.Products(ctx)
	if err != nil {
		return nil, err
	}
	c.remember(products)
	return products, nil
}

// ListByCategory возвращает товары категории и пополняет кэш.
func (c *Catalog) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := c.gateway.ProductsByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	c.remember(products)
	return products, nil
}

// Search ищет товары и пополняет кэш.
func (c *Catalog) Search(ctx context.Context, query string) ([]domain.Product, error) {
	products, err := c.gateway.SearchProducts(ctx, query)
	if err != nil {
		return nil, err
	}
	c.remember(products)
	return products, nil
}

// Categories возвращает список категорий.
func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	return c.gateway.Categories(ctx)
}

// Product возвращает товар из кэша; при промахе перечитывает каталог.
func (c *Catalog) Product(ctx context.Context, id string) (domain.Product, error) {
	c.mu.RLock()
	product, ok := c.products[id]
	c.mu.RUnlock()
	if ok {
		return product, nil
	}

	if _, err := c.List(ctx); err != nil {
		return domain.Product{}, err
	}

	c.mu.RLock()
	product, ok = c.products[id]
	c.mu.RUnlock()
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return product, nil
}

// Refresh перечитывает каталог; используется после оплаты, когда остатки
// могли измениться.
func (c *Catalog) Refresh(ctx context.Context) error {
	_, err := c.List(ctx)
	return err
}

func (c *Catalog) remember(products []domain.Product) {
	c.mu.Lock()
	for _, product := range products {
		c.products[product.ID] = product
	}
	c.mu.Unlock()
}
