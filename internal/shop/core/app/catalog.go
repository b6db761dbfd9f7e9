package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/core/ports"
)

const PageSize = 10

// CacheObserver is told about every listing cache lookup.
type CacheObserver interface {
	CacheHit()
	CacheMiss()
}

type CatalogOption func(*CatalogService)

// WithCache turns on cache-aside for product pages. Writes bump a version
// key so stale pages are never read again; they expire after ttl.
func WithCache(c ports.Cache, ttl time.Duration) CatalogOption {
	return func(s *CatalogService) {
		s.cache = c
		s.ttl = ttl
	}
}

func WithCacheObserver(o CacheObserver) CatalogOption {
	return func(s *CatalogService) { s.observer = o }
}

type CatalogService struct {
	products ports.ProductRepository
	cache    ports.Cache
	ttl      time.Duration
	observer CacheObserver
}

func NewCatalogService(products ports.ProductRepository, opts ...CatalogOption) *CatalogService {
	s := &CatalogService{products: products}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type cachedPage struct {
	Products []entity.Product
	Page     entity.Page
}

func (s *CatalogService) pageKey(ctx context.Context, page int) (string, error) {
	version, err := s.cache.Get(ctx, s.cache.GenerateKey("products", "version"))
	if err != nil {
		return "", err
	}
	if version == "" {
		version = "0"
	}
	return s.cache.GenerateKey("products", fmt.Sprintf("v%s:page:%d", version, page)), nil
}

// ListProducts returns one page of PageSize products. Pages below 1 are
// treated as the first page.
func (s *CatalogService) ListProducts(ctx context.Context, page int) ([]entity.Product, entity.Page, error) {
	if page < 1 {
		page = 1
	}

	var key string
	if s.cache != nil {
		var err error
		if key, err = s.pageKey(ctx, page); err != nil {
			slog.WarnContext(ctx, "catalog cache unavailable", "error", err)
		} else if hit, ok := s.lookup(ctx, key); ok {
			return hit.Products, hit.Page, nil
		}
	}

	total, err := s.products.Count(ctx)
	if err != nil {
		return nil, entity.Page{}, fmt.Errorf("count products: %w", err)
	}
	items, err := s.products.List(ctx, (page-1)*PageSize, PageSize)
	if err != nil {
		return nil, entity.Page{}, fmt.Errorf("list products: %w", err)
	}
	meta := entity.NewPage(page, PageSize, total)

	if key != "" {
		s.store(ctx, key, cachedPage{Products: items, Page: meta})
	}
	return items, meta, nil
}

func (s *CatalogService) lookup(ctx context.Context, key string) (cachedPage, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "catalog cache read failed", "key", key, "error", err)
	}
	var hit cachedPage
	if raw == "" || json.Unmarshal([]byte(raw), &hit) != nil {
		if s.observer != nil {
			s.observer.CacheMiss()
		}
		return cachedPage{}, false
	}
	if s.observer != nil {
		s.observer.CacheHit()
	}
	return hit, true
}

func (s *CatalogService) store(ctx context.Context, key string, p cachedPage) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(b), s.ttl); err != nil {
		slog.WarnContext(ctx, "catalog cache write failed", "key", key, "error", err)
	}
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, s.cache.GenerateKey("products", "version")); err != nil {
		slog.WarnContext(ctx, "catalog cache invalidation failed", "error", err)
	}
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (entity.Product, error) {
	if strings.TrimSpace(id) == "" {
		return entity.Product{}, invalid("product id required")
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return entity.Product{}, fmt.Errorf("product: %w", err)
	}
	return p, nil
}

func validateProduct(in entity.ProductInput) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return invalid("title required")
	case strings.TrimSpace(in.Description) == "":
		return invalid("description required")
	case strings.TrimSpace(in.Image) == "" && strings.TrimSpace(in.ImageURL) == "":
		return invalid("image required")
	case in.Price < 0:
		return invalid("price must not be negative")
	}
	if r := in.Rating; r != nil && (r.Rate < 0 || r.Rate > 5 || r.Count < 0) {
		return invalid("rating must be between 0 and 5")
	}
	return nil
}

// apply copies the writable fields of in onto p.
func apply(p entity.Product, in entity.ProductInput) entity.Product {
	p.Title = strings.TrimSpace(in.Title)
	p.Price = in.Price
	p.Description = in.Description
	p.Image = in.Image
	if p.Image == "" {
		p.Image = in.ImageURL
	}
	p.ImageURL = in.ImageURL
	p.Category = strings.TrimSpace(in.Category)
	if p.Category == "" {
		p.Category = entity.DefaultCategory
	}
	if in.Rating != nil {
		p.Rating = *in.Rating
	}
	p.Gallery = in.Gallery
	return p
}

func (s *CatalogService) CreateProduct(ctx context.Context, userID string, in entity.ProductInput) (entity.Product, error) {
	if err := validateProduct(in); err != nil {
		return entity.Product{}, err
	}
	p, err := s.products.Create(ctx, apply(entity.Product{UserID: userID}, in))
	if err != nil {
		return entity.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx)
	return p, nil
}

// UpdateProduct replaces the writable fields; a nil rating keeps the current
// one.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in entity.ProductInput) (entity.Product, error) {
	if err := validateProduct(in); err != nil {
		return entity.Product{}, err
	}
	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return entity.Product{}, err
	}
	p, err := s.products.Update(ctx, apply(current, in))
	if err != nil {
		return entity.Product{}, fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("product id required")
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx)
	return nil
}
