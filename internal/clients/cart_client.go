package clients

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/sirupsen/logrus"
)

type cartHTTPClient struct {
	rest *restClient
	log  *logrus.Logger
}

var _ domain.CartAPI = (*cartHTTPClient)(nil)

// NewCartHTTPClient talks to the /cart endpoints. Calls other than MergeCart
// authenticate with whatever credential tokens currently holds.
func NewCartHTTPClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *logrus.Logger) domain.CartAPI {
	return &cartHTTPClient{
		rest: newRestClient(baseURL, timeout, tokens, logger),
		log:  logger,
	}
}

type cartItemRequest struct {
	ItemID   string `json:"item_id"`
	Quantity *int   `json:"quantity,omitempty"`
}

func (c *cartHTTPClient) FetchCart(ctx context.Context) ([]domain.RemoteCartRecord, error) {
	var records []domain.RemoteCartRecord
	if err := c.rest.do(ctx, "CartClient.FetchCart", http.MethodGet, "/cart", nil, &records, requestOptions{}); err != nil {
		return nil, err
	}
	c.log.Infof("CartClient: Fetched %d cart records", len(records))
	return records, nil
}

func (c *cartHTTPClient) AddItem(ctx context.Context, itemID string, quantity int) error {
	if itemID == "" {
		return errors.New("item id cannot be empty")
	}
	body := cartItemRequest{ItemID: itemID}
	if quantity > 0 {
		body.Quantity = &quantity
	}
	if err := c.rest.do(ctx, "CartClient.AddItem", http.MethodPost, "/cart/add", body, nil, requestOptions{}); err != nil {
		return err
	}
	c.log.Infof("CartClient: Added item %s (quantity %d)", itemID, quantity)
	return nil
}

func (c *cartHTTPClient) UpdateItem(ctx context.Context, itemID string, quantity int) error {
	if itemID == "" {
		return errors.New("item id cannot be empty")
	}
	body := cartItemRequest{ItemID: itemID, Quantity: &quantity}
	if err := c.rest.do(ctx, "CartClient.UpdateItem", http.MethodPost, "/cart/update", body, nil, requestOptions{}); err != nil {
		return err
	}
	c.log.Infof("CartClient: Updated item %s to quantity %d", itemID, quantity)
	return nil
}

func (c *cartHTTPClient) RemoveItem(ctx context.Context, itemID string) error {
	if itemID == "" {
		return errors.New("item id cannot be empty")
	}
	body := cartItemRequest{ItemID: itemID}
	if err := c.rest.do(ctx, "CartClient.RemoveItem", http.MethodPost, "/cart/remove", body, nil, requestOptions{}); err != nil {
		return err
	}
	c.log.Infof("CartClient: Removed item %s", itemID)
	return nil
}

func (c *cartHTTPClient) MergeCart(ctx context.Context, token string, items []domain.MergeItem) error {
	if token == "" {
		return domain.ErrNotAuthenticated
	}
	if items == nil {
		items = []domain.MergeItem{}
	}
	if err := c.rest.do(ctx, "CartClient.MergeCart", http.MethodPost, "/cart/merge", items, nil, requestOptions{bearer: token}); err != nil {
		return err
	}
	c.log.Infof("CartClient: Merged %d guest lines into server cart", len(items))
	return nil
}
