package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultRESTTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a store response is read.
	maxResponseBytes = 16 << 20
)

// PostgRESTClient talks to a hosted PostgREST endpoint (Supabase's
// /rest/v1) using the project URL and its public key.
type PostgRESTClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewPostgREST validates the project URL and key and returns a client.
// No request is made.
func NewPostgREST(projectURL, apiKey string) (*PostgRESTClient, error) {
	if projectURL == "" || apiKey == "" {
		return nil, fmt.Errorf("store URL and key are required")
	}
	u, err := url.Parse(projectURL)
	if err != nil {
		return nil, fmt.Errorf("parse store URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid store URL %q", projectURL)
	}
	return &PostgRESTClient{
		BaseURL:    strings.TrimRight(projectURL, "/") + "/rest/v1",
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: defaultRESTTimeout},
	}, nil
}

// Select issues GET /{table} with PostgREST filter syntax.
func (c *PostgRESTClient) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	params := url.Values{}
	params.Set("select", "*")
	addFilters(params, q.Filters)
	if q.Order != nil {
		dir := "asc"
		if q.Order.Desc {
			dir = "desc"
		}
		params.Set("order", q.Order.Column+"."+dir)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	req, err := c.newRequest(ctx, http.MethodGet, table, params, nil)
	if err != nil {
		return nil, err
	}
	if q.Single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if q.Single {
		var row Row
		if err := decodeJSON(body, &row); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", table, err)
		}
		return []Row{row}, nil
	}
	return decodeRows(table, body)
}

// Insert issues POST /{table} and returns the inserted representation.
func (c *PostgRESTClient) Insert(ctx context.Context, table string, values Row) ([]Row, error) {
	payload, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode %s insert: %w", table, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, table, nil, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return decodeRows(table, body)
}

// Update issues PATCH /{table} restricted by filters.
func (c *PostgRESTClient) Update(ctx context.Context, table string, values Row, filters []Filter) ([]Row, error) {
	payload, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode %s update: %w", table, err)
	}
	params := url.Values{}
	addFilters(params, filters)

	req, err := c.newRequest(ctx, http.MethodPatch, table, params, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return decodeRows(table, body)
}

func (c *PostgRESTClient) newRequest(ctx context.Context, method, table string, params url.Values, payload []byte) (*http.Request, error) {
	target := c.BaseURL + "/" + url.PathEscape(table)
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *PostgRESTClient) do(req *http.Request) ([]byte, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRESTTimeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read store response: %w", err)
	}
	if len(body) > maxResponseBytes {
		return nil, &Error{Status: resp.StatusCode, Message: fmt.Sprintf("store response exceeds %d bytes", maxResponseBytes)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseRESTError(resp.StatusCode, body)
	}
	return body, nil
}

func addFilters(params url.Values, filters []Filter) {
	for _, f := range filters {
		params.Add(f.Column, "eq."+fmt.Sprint(f.Value))
	}
}

// parseRESTError reads PostgREST's {code, message, details, hint} body.
func parseRESTError(status int, body []byte) *Error {
	e := &Error{Status: status}
	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		e.Code = res.Get("code").String()
		e.Message = res.Get("message").String()
		e.Details = res.Get("details").String()
		e.Hint = res.Get("hint").String()
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("store request failed with status %d", status)
		if text := strings.TrimSpace(string(body)); text != "" && !gjson.ValidBytes(body) {
			e.Details = text
		}
	}
	return e
}

func decodeRows(table string, body []byte) ([]Row, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []Row{}, nil
	}
	var rows []Row
	if err := decodeJSON(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", table, err)
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}
