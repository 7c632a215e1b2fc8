package domain

import "context"

type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
}

// ItemQuery holds the listing filters. Nil price bounds are not sent.
type ItemQuery struct {
	Category string   `form:"category"`
	MinPrice *float64 `form:"minPrice"`
	MaxPrice *float64 `form:"maxPrice"`
	Search   string   `form:"search"`
	Page     int      `form:"page"`
	PageSize int      `form:"pageSize"`
	SortBy   string   `form:"sortBy"`
}

type ItemPage struct {
	Items    []Item `json:"items"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	HasNext  bool   `json:"has_next"`
}

type CatalogAPI interface {
	ListItems(ctx context.Context, query ItemQuery) ([]Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	ListCategories(ctx context.Context) ([]string, error)
}

type CatalogUseCase interface {
	ListItems(ctx context.Context, query ItemQuery) (*ItemPage, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	ListCategories(ctx context.Context) ([]string, error)
}
