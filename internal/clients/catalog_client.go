package clients

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/sirupsen/logrus"
)

type catalogHTTPClient struct {
	rest *restClient
	log  *logrus.Logger
}

var _ domain.CatalogAPI = (*catalogHTTPClient)(nil)

func NewCatalogHTTPClient(baseURL string, timeout time.Duration, logger *logrus.Logger) domain.CatalogAPI {
	return &catalogHTTPClient{
		rest: newRestClient(baseURL, timeout, nil, logger),
		log:  logger,
	}
}

func (c *catalogHTTPClient) ListItems(ctx context.Context, query domain.ItemQuery) ([]domain.Item, error) {
	var items []domain.Item
	if err := c.rest.do(ctx, "CatalogClient.ListItems", http.MethodGet, "/items", nil, &items, requestOptions{query: encodeItemQuery(query)}); err != nil {
		return nil, err
	}
	c.log.Infof("CatalogClient: Listed %d items (page %d)", len(items), query.Page)
	return items, nil
}

func (c *catalogHTTPClient) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	if id == "" {
		return nil, errors.New("item id cannot be empty")
	}
	var item domain.Item
	if err := c.rest.do(ctx, "CatalogClient.GetItem", http.MethodGet, "/items/"+url.PathEscape(id), nil, &item, requestOptions{}); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *catalogHTTPClient) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.rest.do(ctx, "CatalogClient.ListCategories", http.MethodGet, "/items/categories", nil, &categories, requestOptions{}); err != nil {
		return nil, err
	}
	return categories, nil
}

func encodeItemQuery(q domain.ItemQuery) url.Values {
	values := url.Values{}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.MinPrice != nil {
		values.Set("minPrice", strconv.FormatFloat(*q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice != nil {
		values.Set("maxPrice", strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64))
	}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.SortBy != "" {
		values.Set("sortBy", q.SortBy)
	}
	return values
}
