// Package airtable is a thin client for the Airtable REST API scoped to one base.
package airtable

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"biaw-integrations/internal/common/httpclient"
)

// maxBatch is the largest number of records Airtable accepts per write.
const maxBatch = 10

// Fields is a record's column values keyed by column name.
type Fields map[string]interface{}

type Record struct {
	ID          string `json:"id,omitempty"`
	CreatedTime string `json:"createdTime,omitempty"`
	Fields      Fields `json:"fields"`
}

// String returns a text column value, or "" when absent or not text.
func (r *Record) String(field string) string {
	if r == nil {
		return ""
	}
	s, _ := r.Fields[field].(string)
	return s
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

type recordsRequest struct {
	Records []Record `json:"records"`
}

// Query narrows a table listing.
type Query struct {
	Formula    string
	MaxRecords int
}

type Client struct {
	baseID string
	http   *httpclient.Client
}

type ClientOptions struct {
	APIKey  string
	BaseID  string
	BaseURL string
	Timeout time.Duration
}

func NewClient(opts ClientOptions) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.airtable.com/v0"
	}
	return &Client{
		baseID: opts.BaseID,
		http:   httpclient.New("airtable", baseURL, opts.Timeout, httpclient.WithBearerToken(opts.APIKey)),
	}
}

func (c *Client) tablePath(table string) string {
	return fmt.Sprintf("/%s/%s", url.PathEscape(c.baseID), url.PathEscape(table))
}

// ListRecords pages through a table, stopping at q.MaxRecords when set.
func (c *Client) ListRecords(ctx context.Context, table string, q Query) ([]Record, error) {
	var records []Record
	offset := ""

	for {
		params := url.Values{}
		if q.Formula != "" {
			params.Set("filterByFormula", q.Formula)
		}
		if q.MaxRecords > 0 {
			params.Set("maxRecords", strconv.Itoa(q.MaxRecords))
		}
		if offset != "" {
			params.Set("offset", offset)
		}

		var page listResponse
		if err := c.http.Do(ctx, "list records", http.MethodGet, c.tablePath(table), params, nil, &page); err != nil {
			return nil, err
		}
		records = append(records, page.Records...)

		if page.Offset == "" || (q.MaxRecords > 0 && len(records) >= q.MaxRecords) {
			break
		}
		offset = page.Offset
	}

	if q.MaxRecords > 0 && len(records) > q.MaxRecords {
		records = records[:q.MaxRecords]
	}
	return records, nil
}

// FindRecord returns the first record matching formula, or nil when none does.
func (c *Client) FindRecord(ctx context.Context, table, formula string) (*Record, error) {
	records, err := c.ListRecords(ctx, table, Query{Formula: formula, MaxRecords: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (c *Client) CreateRecord(ctx context.Context, table string, fields Fields) (*Record, error) {
	records, err := c.CreateRecords(ctx, table, []Fields{fields})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("failed to create record in %s: empty response", table)
	}
	return &records[0], nil
}

// CreateRecords writes rows in batches of ten. Earlier batches stay written if a later one fails.
func (c *Client) CreateRecords(ctx context.Context, table string, rows []Fields) ([]Record, error) {
	created := make([]Record, 0, len(rows))

	for start := 0; start < len(rows); start += maxBatch {
		end := start + maxBatch
		if end > len(rows) {
			end = len(rows)
		}

		req := recordsRequest{Records: make([]Record, 0, end-start)}
		for _, fields := range rows[start:end] {
			req.Records = append(req.Records, Record{Fields: fields})
		}

		var resp recordsRequest
		if err := c.http.Do(ctx, "create records", http.MethodPost, c.tablePath(table), nil, req, &resp); err != nil {
			return created, err
		}
		created = append(created, resp.Records...)
	}

	return created, nil
}

func (c *Client) UpdateRecord(ctx context.Context, table, id string, fields Fields) (*Record, error) {
	path := c.tablePath(table) + "/" + url.PathEscape(id)

	var updated Record
	if err := c.http.Do(ctx, "update record", http.MethodPatch, path, nil, Record{Fields: fields}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
