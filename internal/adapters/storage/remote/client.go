// Package remote implements app.Store against a skadi server's REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hylla/skadi/internal/adapters/server/common"
	"github.com/hylla/skadi/internal/app"
	"github.com/hylla/skadi/internal/domain"
)

// defaultTimeout bounds one request when the caller's context has no deadline.
const defaultTimeout = 15 * time.Second

// Client is an app.Store backed by HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements error.
func (e *APIError) Error() string {
	return fmt.Sprintf("remote %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps 404 responses onto app.ErrNotFound.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return app.ErrNotFound
	}
	return nil
}

// New constructs a client for the API rooted at baseURL (e.g. http://127.0.0.1:8080/api/v1).
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("remote url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

// ListJobLists implements app.Store.
func (c *Client) ListJobLists(ctx context.Context) ([]domain.JobList, error) {
	var out struct {
		Lists []common.JobList `json:"lists"`
	}
	if err := c.do(ctx, http.MethodGet, "/lists", nil, &out); err != nil {
		return nil, err
	}
	lists := make([]domain.JobList, 0, len(out.Lists))
	for _, list := range out.Lists {
		lists = append(lists, list.Domain())
	}
	return lists, nil
}

// GetJobList implements app.Store.
func (c *Client) GetJobList(ctx context.Context, id string) (domain.JobList, error) {
	var out common.JobList
	if err := c.do(ctx, http.MethodGet, "/lists/"+url.PathEscape(id), nil, &out); err != nil {
		return domain.JobList{}, err
	}
	return out.Domain(), nil
}

// InsertJobList implements app.Store.
func (c *Client) InsertJobList(ctx context.Context, title string) (domain.JobList, error) {
	var out common.JobList
	if err := c.do(ctx, http.MethodPost, "/lists", common.CreateListRequest{Title: title}, &out); err != nil {
		return domain.JobList{}, err
	}
	return out.Domain(), nil
}

// DeleteJobList implements app.Store.
func (c *Client) DeleteJobList(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/lists/"+url.PathEscape(id), nil, nil)
}

// ListStatuses implements app.Store.
func (c *Client) ListStatuses(ctx context.Context, listID string) ([]domain.JobStatus, error) {
	var out struct {
		Statuses []common.JobStatus `json:"statuses"`
	}
	if err := c.do(ctx, http.MethodGet, "/lists/"+url.PathEscape(listID)+"/statuses", nil, &out); err != nil {
		return nil, err
	}
	statuses := make([]domain.JobStatus, 0, len(out.Statuses))
	for _, status := range out.Statuses {
		statuses = append(statuses, status.Domain())
	}
	return statuses, nil
}

// InsertStatus implements app.Store.
func (c *Client) InsertStatus(ctx context.Context, listID, title string, order int) (domain.JobStatus, error) {
	var out common.JobStatus
	body := common.CreateStatusRequest{Title: title, Order: order}
	if err := c.do(ctx, http.MethodPost, "/lists/"+url.PathEscape(listID)+"/statuses", body, &out); err != nil {
		return domain.JobStatus{}, err
	}
	return out.Domain(), nil
}

// ListItems implements app.Store.
func (c *Client) ListItems(ctx context.Context, listID string) ([]domain.JobItem, error) {
	var out struct {
		Items []common.JobItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/lists/"+url.PathEscape(listID)+"/items", nil, &out); err != nil {
		return nil, err
	}
	items := make([]domain.JobItem, 0, len(out.Items))
	for _, item := range out.Items {
		items = append(items, item.Domain())
	}
	return items, nil
}

// GetItem implements app.Store.
func (c *Client) GetItem(ctx context.Context, id string) (domain.JobItem, error) {
	var out common.JobItem
	if err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(id), nil, &out); err != nil {
		return domain.JobItem{}, err
	}
	return out.Domain(), nil
}

// InsertItem implements app.Store.
func (c *Client) InsertItem(ctx context.Context, in domain.JobItemInput) (domain.JobItem, error) {
	fields, err := in.Fields.Normalize()
	if err != nil {
		return domain.JobItem{}, err
	}
	in.Fields = fields
	var out common.JobItem
	if err := c.do(ctx, http.MethodPost, "/items", common.NewCreateItemRequest(in), &out); err != nil {
		return domain.JobItem{}, err
	}
	return out.Domain(), nil
}

// UpdateItem implements app.Store. Status and rank travel in the same request.
func (c *Client) UpdateItem(ctx context.Context, id string, patch domain.JobItemPatch) error {
	return c.do(ctx, http.MethodPatch, "/items/"+url.PathEscape(id), common.NewPatchItemRequest(patch), nil)
}

// UpsertRanks implements app.Store.
func (c *Client) UpsertRanks(ctx context.Context, changes []domain.RankChange) error {
	if len(changes) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPut, "/items", common.NewUpsertRanksRequest(changes), nil)
}

// DeleteItem implements app.Store.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/items/"+url.PathEscape(id), nil, nil)
}

// do sends one JSON request and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Code: "http_error", Message: resp.Status}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Code != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	}
	return apiErr
}

// IsRemote reports whether err came back from the server as an error response.
func IsRemote(err error) bool {
	var target *APIError
	return errors.As(err, &target)
}
