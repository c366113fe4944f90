// Package webflow is a thin client for the Webflow Data API v2 CMS endpoints.
package webflow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"biaw-integrations/internal/common/httpclient"
)

const pageSize = 100

// FieldData holds an item's values keyed by field slug.
type FieldData map[string]interface{}

type Item struct {
	ID         string    `json:"id"`
	IsDraft    bool      `json:"isDraft"`
	IsArchived bool      `json:"isArchived"`
	FieldData  FieldData `json:"fieldData"`
}

// String returns a text field value, or "" when absent or not text.
func (i *Item) String(slug string) string {
	if i == nil {
		return ""
	}
	s, _ := i.FieldData[slug].(string)
	return s
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type listItemsResponse struct {
	Items      []Item     `json:"items"`
	Pagination Pagination `json:"pagination"`
}

type itemRequest struct {
	IsArchived bool      `json:"isArchived"`
	IsDraft    bool      `json:"isDraft"`
	FieldData  FieldData `json:"fieldData"`
}

type patchRequest struct {
	FieldData FieldData `json:"fieldData"`
}

type Client struct {
	http *httpclient.Client
}

type ClientOptions struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func NewClient(opts ClientOptions) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.webflow.com/v2"
	}
	return &Client{
		http: httpclient.New("webflow", baseURL, opts.Timeout, httpclient.WithBearerToken(opts.APIKey)),
	}
}

func collectionPath(collectionID string) string {
	return "/collections/" + url.PathEscape(collectionID)
}

// ListItems returns every item in the collection, following pagination.
func (c *Client) ListItems(ctx context.Context, collectionID string) ([]Item, error) {
	var items []Item
	offset := 0

	for {
		params := url.Values{
			"limit":  {strconv.Itoa(pageSize)},
			"offset": {strconv.Itoa(offset)},
		}

		var page listItemsResponse
		if err := c.http.Do(ctx, "list items", http.MethodGet, collectionPath(collectionID)+"/items", params, nil, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.Pagination.Total {
			break
		}
	}

	return items, nil
}

// FindItem scans the collection for the first item whose field equals value.
// The CMS offers no server-side filter on custom fields, so this is O(collection).
func (c *Client) FindItem(ctx context.Context, collectionID, field, value string) (*Item, error) {
	items, err := c.ListItems(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].String(field) == value {
			return &items[i], nil
		}
	}
	return nil, nil
}

// CreateItem adds an item, publishing it immediately when live is set.
func (c *Client) CreateItem(ctx context.Context, collectionID string, fields FieldData, live bool) (*Item, error) {
	path := collectionPath(collectionID) + "/items"
	if live {
		path += "/live"
	}

	var created Item
	req := itemRequest{FieldData: fields}
	if err := c.http.Do(ctx, "create item", http.MethodPost, path, nil, req, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, fmt.Errorf("failed to create item in %s: response carried no id", collectionID)
	}
	return &created, nil
}

// UpdateItem patches the given fields, on the live item when live is set.
func (c *Client) UpdateItem(ctx context.Context, collectionID, itemID string, fields FieldData, live bool) (*Item, error) {
	path := collectionPath(collectionID) + "/items/" + url.PathEscape(itemID)
	if live {
		path += "/live"
	}

	var updated Item
	if err := c.http.Do(ctx, "update item", http.MethodPatch, path, nil, patchRequest{FieldData: fields}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) GetCollection(ctx context.Context, collectionID string) (*Collection, error) {
	var collection Collection
	if err := c.http.Do(ctx, "get collection", http.MethodGet, collectionPath(collectionID), nil, nil, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}
