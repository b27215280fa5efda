package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/domain"
	"github.com/jafarshop/ecostore/internal/storage"
)

// Source provides the remote catalog
type Source interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Brands(ctx context.Context) ([]string, error)
}

// Store holds the in-memory catalog. Every query returns a new slice and
// never changes the stored list.
type Store struct {
	mu         sync.RWMutex
	products   []domain.Product
	brands     []string
	generation uint64

	source Source
	cache  storage.Store
	logger *zap.Logger
}

// NewStore creates a new catalog store
func NewStore(source Source, cache storage.Store, logger *zap.Logger) *Store {
	return &Store{
		source: source,
		cache:  cache,
		logger: logger,
	}
}

// Load fetches the catalog and replaces the in-memory list and the cached
// copy. A remote failure is returned as *errors.ErrRemoteUnavailable and
// leaves the store untouched. If another Load started after this one, the
// response is discarded.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	products, err := s.source.Products(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("Discarding stale catalog response",
			zap.Uint64("generation", gen),
		)
		return nil
	}
	s.products = products
	s.mu.Unlock()

	if err := s.cache.Set(ctx, storage.KeyProducts, products); err != nil {
		s.logger.Warn("Failed to cache products", zap.Error(err))
	}

	s.logger.Info("Catalog loaded", zap.Int("products", len(products)))
	return nil
}

// Restore replaces the in-memory list with the cached copy, or an empty list
// when nothing is cached. It returns the number of products restored.
func (s *Store) Restore(ctx context.Context) int {
	var products []domain.Product
	found, err := s.cache.Get(ctx, storage.KeyProducts, &products)
	if err != nil {
		s.logger.Warn("Failed to read cached products", zap.Error(err))
		products = nil
	}
	if !found {
		products = nil
	}

	s.mu.Lock()
	s.generation++
	s.products = products
	s.mu.Unlock()

	return len(products)
}

// LoadBrands fetches the brand list. On failure the brands are derived from
// the loaded catalog.
func (s *Store) LoadBrands(ctx context.Context) error {
	brands, err := s.source.Brands(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.brands = brands
	s.mu.Unlock()
	return nil
}

// Products returns a copy of the catalog in original order
func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Product(nil), s.products...)
}

// Len returns the catalog size
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// ByID looks up a product
func (s *Store) ByID(id int64) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Filter returns the products matching every criterion of f
func (s *Store) Filter(f domain.FilterState) []domain.Product {
	return filter(s.Products(), f)
}

// Search matches the query against name, brand, description and category,
// case-insensitively. An empty query returns the whole catalog.
func (s *Store) Search(query string) []domain.Product {
	return search(s.Products(), query)
}

// Query combines search, filter and sort
func (s *Store) Query(query string, f domain.FilterState, key domain.SortKey) []domain.Product {
	return Sort(filter(search(s.Products(), query), f), key)
}

// Brands returns the remote brand list, falling back to the distinct brands
// of the catalog in first-appearance order
func (s *Store) Brands() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.brands) > 0 {
		return append([]string(nil), s.brands...)
	}
	return distinct(s.products, func(p domain.Product) []string { return []string{p.Brand} })
}

// Categories returns the distinct categories in first-appearance order
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return distinct(s.products, func(p domain.Product) []string { return []string{p.Category} })
}

// Features returns the distinct feature tags in first-appearance order
func (s *Store) Features() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return distinct(s.products, func(p domain.Product) []string { return p.Features })
}

// Popular returns up to n products rated 4 or higher
func (s *Store) Popular(n int) []domain.Product {
	return firstN(s.Products(), n, func(p domain.Product) bool { return p.Rating >= 4 })
}

// New returns up to n products flagged as new
func (s *Store) New(n int) []domain.Product {
	return firstN(s.Products(), n, func(p domain.Product) bool { return p.IsNew })
}

// Related returns up to n products sharing the category or a feature tag
// with the given product
func (s *Store) Related(id int64, n int) []domain.Product {
	product, ok := s.ByID(id)
	if !ok {
		return nil
	}
	return firstN(s.Products(), n, func(p domain.Product) bool {
		if p.ID == id {
			return false
		}
		if p.Category == product.Category {
			return true
		}
		for _, f := range p.Features {
			if product.HasFeature(f) {
				return true
			}
		}
		return false
	})
}

// Sort returns a sorted copy of products. The sort is stable, so ties keep
// their input order. Unknown keys sort by popularity.
func Sort(products []domain.Product, key domain.SortKey) []domain.Product {
	out := append([]domain.Product(nil), products...)

	var less func(a, b domain.Product) bool
	switch key {
	case domain.SortPriceAsc:
		less = func(a, b domain.Product) bool { return a.Price.LessThan(b.Price) }
	case domain.SortPriceDesc:
		less = func(a, b domain.Product) bool { return a.Price.GreaterThan(b.Price) }
	case domain.SortNewest:
		less = func(a, b domain.Product) bool { return a.IsNew && !b.IsNew }
	case domain.SortRating:
		less = func(a, b domain.Product) bool { return a.Rating > b.Rating }
	default:
		less = func(a, b domain.Product) bool { return a.Reviews > b.Reviews }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Page returns the first page*perPage products for a "load more" listing and
// whether more remain. Pages start at 1.
func Page(products []domain.Product, page, perPage int) ([]domain.Product, bool) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		return products, false
	}
	end := page * perPage
	if end >= len(products) {
		return products, false
	}
	return products[:end], true
}

func filter(products []domain.Product, f domain.FilterState) []domain.Product {
	if f.IsZero() {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

func search(products []domain.Product, query string) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Brand), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
		}
	}
	return out
}

func firstN(products []domain.Product, n int, keep func(domain.Product) bool) []domain.Product {
	var out []domain.Product
	for _, p := range products {
		if len(out) >= n {
			break
		}
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func distinct(products []domain.Product, values func(domain.Product) []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range products {
		for _, v := range values(p) {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
