package api

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

	"github.com/go-playground/validator/v10"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
)

const maxBodyBytes = 1 << 20

// Client talks to the resource server. Its http.Client is expected to be
// the authenticated gateway.
type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
}

var _ ports.LinkAPI = (*Client)(nil)

func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type createLinkRequest struct {
	OriginalURL string `json:"originalUrl"`
}

type deleteLinkRequest struct {
	ShortCode string `json:"shortCode"`
}

// clickPage is the page shape the resource server emits.
type clickPage struct {
	Content          []domain.ClickEvent `json:"content" validate:"required,dive"`
	Last             *bool               `json:"last" validate:"required"`
	First            bool                `json:"first"`
	TotalElements    int64               `json:"totalElements" validate:"gte=0"`
	TotalPages       int                 `json:"totalPages" validate:"gte=0"`
	Size             int                 `json:"size" validate:"gt=0"`
	Number           int                 `json:"number" validate:"gte=0"`
	NumberOfElements int                 `json:"numberOfElements"`
	Empty            bool                `json:"empty"`
}

func (c *Client) ListLinks(ctx context.Context) ([]domain.LinkRecord, error) {
	const op = "GET /api/urls"
	body, err := c.do(ctx, http.MethodGet, "/api/urls", nil, op)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		return nil, shapeError(op, errors.New("expected a JSON array"))
	}
	var records []domain.LinkRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, shapeError(op, err)
	}
	for i := range records {
		if err := c.validate.Struct(records[i]); err != nil {
			return nil, shapeError(op, fmt.Errorf("record %d: %w", i, err))
		}
	}
	return records, nil
}

func (c *Client) CreateLink(ctx context.Context, originalURL string) (*domain.LinkRecord, error) {
	const op = "POST /api/urls"
	body, err := c.do(ctx, http.MethodPost, "/api/urls", createLinkRequest{OriginalURL: originalURL}, op)
	if err != nil {
		return nil, err
	}
	var record domain.LinkRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, shapeError(op, err)
	}
	if err := c.validate.Struct(record); err != nil {
		return nil, shapeError(op, err)
	}
	return &record, nil
}

func (c *Client) DeleteLink(ctx context.Context, shortCode string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/urls", deleteLinkRequest{ShortCode: shortCode}, "DELETE /api/urls")
	return err
}

// ClickCount expects a bare JSON integer.
func (c *Client) ClickCount(ctx context.Context, shortCode string) (int64, error) {
	path := "/api/analytics/" + url.PathEscape(shortCode) + "/count"
	op := "GET " + path
	body, err := c.do(ctx, http.MethodGet, path, nil, op)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(bytes.TrimSpace(body)), 10, 64)
	if err != nil {
		return 0, shapeError(op, fmt.Errorf("expected an integer: %w", err))
	}
	if n < 0 {
		return 0, shapeError(op, fmt.Errorf("negative count %d", n))
	}
	return n, nil
}

func (c *Client) ClickPage(ctx context.Context, req ports.PageRequest) (*domain.Page[domain.ClickEvent], error) {
	q := url.Values{}
	q.Set("pageNumber", strconv.Itoa(req.PageNumber))
	q.Set("pageSize", strconv.Itoa(req.PageSize))
	q.Set("sortOrder", string(req.SortOrder))
	path := "/api/analytics/" + url.PathEscape(req.ShortCode) + "/clicks"
	op := "GET " + path

	body, err := c.do(ctx, http.MethodGet, path+"?"+q.Encode(), nil, op)
	if err != nil {
		return nil, err
	}
	var wire clickPage
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, shapeError(op, err)
	}
	if err := c.validate.Struct(wire); err != nil {
		return nil, shapeError(op, err)
	}
	return &domain.Page[domain.ClickEvent]{
		Content:       wire.Content,
		PageNumber:    wire.Number,
		PageSize:      wire.Size,
		TotalPages:    wire.TotalPages,
		TotalElements: wire.TotalElements,
		IsFirst:       wire.First,
		IsLast:        *wire.Last,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, op string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return doRequest(c.http, req, op)
}

// doRequest executes req and turns every non-2xx outcome into a *domain.Error.
func doRequest(client *http.Client, req *http.Request, op string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		var derr *domain.Error
		if errors.As(err, &derr) {
			return nil, derr
		}
		return nil, &domain.Error{Kind: domain.KindNetworkFailure, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindNetworkFailure, Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.Error{
			Kind:    domain.KindForStatus(resp.StatusCode),
			Op:      op,
			Status:  resp.StatusCode,
			Message: errorMessage(body),
		}
	}
	return body, nil
}

// errorMessage pulls a human readable message out of an error body, which
// may be JSON with a "message" or "error" field or plain text.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	if strings.HasPrefix(msg, "{") || strings.HasPrefix(msg, "<") {
		return ""
	}
	return msg
}

func shapeError(op string, err error) error {
	return &domain.Error{Kind: domain.KindShapeMismatch, Op: op, Err: err}
}
