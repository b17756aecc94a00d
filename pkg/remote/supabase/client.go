// Package supabase mirrors entries into a Supabase table through its
// PostgREST endpoint.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the PostgREST API of one Supabase project.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

// New creates a new Supabase client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("supabase: url is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("supabase: api key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// From starts a query against table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table}
}

// Query accumulates PostgREST parameters for one request.
type Query struct {
	client     *Client
	table      string
	columns    string
	filters    url.Values
	orders     []string
	limit      int
	onConflict string
	upsert     bool
}

// Select sets the returned columns.
func (q *Query) Select(columns string) *Query {
	q.columns = columns
	return q
}

// Eq adds an equality filter.
func (q *Query) Eq(column string, value any) *Query {
	if q.filters == nil {
		q.filters = url.Values{}
	}
	q.filters.Add(column, fmt.Sprintf("eq.%v", value))
	return q
}

// Order adds an ordering term.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

// Limit caps the number of rows returned.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Upsert turns the next Insert into an upsert resolved on onConflict.
func (q *Query) Upsert(onConflict string) *Query {
	q.upsert = true
	q.onConflict = onConflict
	return q
}

// Execute runs a GET.
func (q *Query) Execute(ctx context.Context) (*Response, error) {
	params := q.params()
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	if len(q.orders) > 0 {
		params.Set("order", strings.Join(q.orders, ","))
	}
	if q.limit > 0 {
		params.Set("limit", strconv.Itoa(q.limit))
	}
	req, err := q.request(ctx, http.MethodGet, params, nil)
	if err != nil {
		return nil, err
	}
	return q.client.do(req)
}

// Insert POSTs data, a row or a slice of rows.
func (q *Query) Insert(ctx context.Context, data any) (*Response, error) {
	params := q.params()
	prefer := "return=minimal"
	if q.upsert {
		prefer = "resolution=merge-duplicates," + prefer
		if q.onConflict != "" {
			params.Set("on_conflict", q.onConflict)
		}
	}
	req, err := q.request(ctx, http.MethodPost, params, data)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", prefer)
	return q.client.do(req)
}

// Update PATCHes the rows matching the filters with data.
func (q *Query) Update(ctx context.Context, data any) (*Response, error) {
	if len(q.filters) == 0 {
		return nil, errors.New("supabase: update without a filter")
	}
	req, err := q.request(ctx, http.MethodPatch, q.params(), data)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=minimal")
	return q.client.do(req)
}

func (q *Query) params() url.Values {
	params := url.Values{}
	for k, vs := range q.filters {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	return params
}

func (q *Query) request(ctx context.Context, method string, params url.Values, data any) (*http.Request, error) {
	reqURL := fmt.Sprintf("%s/rest/v1/%s", q.client.baseURL, url.PathEscape(q.table))
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var body io.Reader
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("supabase: marshal body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("supabase: create request: %w", err)
	}
	req.Header.Set("apikey", q.client.apiKey)
	req.Header.Set("Authorization", "Bearer "+q.client.apiKey)
	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("supabase: read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// Response is a raw PostgREST response.
type Response struct {
	StatusCode int
	Body       []byte
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("supabase: decode response: %w", err)
	}
	return nil
}

// Err reports a failed status, using PostgREST's message when it sent one.
func (r *Response) Err() error {
	if r.StatusCode < 400 {
		return nil
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(r.Body, &body); err == nil {
		switch {
		case body.Message != "" && body.Code != "":
			return fmt.Errorf("supabase: %s (%s, status %d)", body.Message, body.Code, r.StatusCode)
		case body.Message != "":
			return fmt.Errorf("supabase: %s (status %d)", body.Message, r.StatusCode)
		case body.Error != "":
			return fmt.Errorf("supabase: %s (status %d)", body.Error, r.StatusCode)
		}
	}
	return fmt.Errorf("supabase: status %d", r.StatusCode)
}
