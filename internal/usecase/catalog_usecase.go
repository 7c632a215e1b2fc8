package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	DefaultSortBy   = "name"
)

var allowedSorts = map[string]bool{
	"name":   true,
	"price":  true,
	"-price": true,
	"rating": true,
}

var _ domain.CatalogUseCase = (*catalogUseCase)(nil)

type catalogUseCase struct {
	catalog domain.CatalogAPI
	log     *logrus.Logger
}

func NewCatalogUseCase(catalog domain.CatalogAPI, logger *logrus.Logger) domain.CatalogUseCase {
	return &catalogUseCase{catalog: catalog, log: logger}
}

func (uc *catalogUseCase) ListItems(ctx context.Context, query domain.ItemQuery) (*domain.ItemPage, error) {
	query, err := normalizeItemQuery(query)
	if err != nil {
		uc.log.Warnf("Use Case: Rejected item query: %v", err)
		return nil, err
	}

	uc.log.Infof("Use Case: Listing items page %d (size %d, sort %s, category %q)", query.Page, query.PageSize, query.SortBy, query.Category)
	items, err := uc.catalog.ListItems(ctx, query)
	if err != nil {
		uc.log.Errorf("Use Case: Catalog listing failed: %v", err)
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	if items == nil {
		items = []domain.Item{}
	}

	return &domain.ItemPage{
		Items:    items,
		Page:     query.Page,
		PageSize: query.PageSize,
		HasNext:  len(items) >= query.PageSize,
	}, nil
}

func (uc *catalogUseCase) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		uc.log.Warn("Use Case: Attempted to get item with empty ID")
		return nil, fmt.Errorf("%w: item id cannot be empty", domain.ErrInvalidQuery)
	}
	item, err := uc.catalog.GetItem(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Catalog lookup failed for item %s: %v", id, err)
		return nil, fmt.Errorf("failed to get item %s: %w", id, err)
	}
	return item, nil
}

func (uc *catalogUseCase) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := uc.catalog.ListCategories(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Listing categories failed: %v", err)
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// normalizeItemQuery fills defaults and rejects out-of-range filters.
func normalizeItemQuery(q domain.ItemQuery) (domain.ItemQuery, error) {
	q.Category = strings.TrimSpace(q.Category)
	q.Search = strings.TrimSpace(q.Search)
	q.SortBy = strings.TrimSpace(q.SortBy)

	if q.Page == 0 {
		q.Page = 1
	}
	if q.Page < 1 {
		return q, fmt.Errorf("%w: page must be at least 1", domain.ErrInvalidQuery)
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return q, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrInvalidQuery, MaxPageSize)
	}
	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if !allowedSorts[q.SortBy] {
		return q, fmt.Errorf("%w: unsupported sortBy %q", domain.ErrInvalidQuery, q.SortBy)
	}
	if q.MinPrice != nil && *q.MinPrice < 0 {
		return q, fmt.Errorf("%w: minPrice cannot be negative", domain.ErrInvalidQuery)
	}
	if q.MaxPrice != nil && *q.MaxPrice < 0 {
		return q, fmt.Errorf("%w: maxPrice cannot be negative", domain.ErrInvalidQuery)
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return q, fmt.Errorf("%w: minPrice cannot exceed maxPrice", domain.ErrInvalidQuery)
	}
	return q, nil
}
