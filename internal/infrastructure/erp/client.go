package erp

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

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/infrastructure/telemetry"
)

// maxResponseSize is the default maximum accepted response body (32MB)
const maxResponseSize = 32 * 1024 * 1024

// maxPages stops FetchAllProducts on a server that never returns a short page
const maxPages = 10000

// Client implements integration.RemoteCatalog over the ERP HTTP API
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
	maxBody    int64
}

var _ integration.RemoteCatalog = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMaxResponseSize bounds the accepted response body; larger bodies fail
// with a response_too_large RemoteAPIError
func WithMaxResponseSize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client
func NewClient(config Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     zap.NewNop(),
		maxBody:    maxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("erp")
	return c, nil
}

// PageSize implements integration.RemoteCatalog
func (c *Client) PageSize() int {
	return c.config.PageSize
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// FetchProducts fetches one page of the catalog. A non-empty id fetches that
// single item and page is ignored.
func (c *Client) FetchProducts(ctx context.Context, id string, page int) ([]integration.RemoteItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "erp.fetch_products",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrRemoteItemID, id),
		telemetry.WithAttribute(telemetry.SpanAttrPage, page),
	)
	defer span.End()

	path := "/products"
	query := url.Values{}
	if id != "" {
		path += "/" + url.PathEscape(id)
	} else if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}

	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	products, err := decodeProducts(body)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	items := make([]integration.RemoteItem, 0, len(products))
	for _, p := range products {
		items = append(items, p.toDomain())
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrItemCount, len(items))
	return items, nil
}

// FetchAllProducts walks the pages until a short page is returned
func (c *Client) FetchAllProducts(ctx context.Context) ([]integration.RemoteItem, error) {
	var all []integration.RemoteItem
	for page := 1; page <= maxPages; page++ {
		items, err := c.FetchProducts(ctx, "", page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		all = append(all, items...)
		if len(items) < c.config.PageSize {
			c.logger.Debug("catalog pulled", zap.Int("pages", page), zap.Int("items", len(all)))
			return all, nil
		}
	}
	return nil, &integration.RemoteAPIError{Code: "pagination", Message: "catalog exceeds the page limit"}
}

// decodeProducts accepts a list, or a single object for GET /products/{id}
func decodeProducts(body []byte) ([]wireProduct, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var list []wireProduct
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, malformed(err)
		}
		return list, nil
	}

	var one wireProduct
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, malformed(err)
	}
	if one.ID == "" {
		return nil, nil
	}
	return []wireProduct{one}, nil
}

// FetchImage downloads the main image of an item
func (c *Client) FetchImage(ctx context.Context, remoteItemID string) ([]byte, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "erp.fetch_image",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrRemoteItemID, remoteItemID),
	)
	defer span.End()

	resp, err := c.send(ctx, http.MethodGet, "/products/"+url.PathEscape(remoteItemID)+"/image", nil, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, "", integration.ErrImageNotAvailable
	}

	data, err := c.readBody(resp)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, "", err
	}
	if resp.StatusCode >= 300 {
		err := apiError(resp.StatusCode, data)
		telemetry.RecordError(span, err)
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", integration.ErrImageNotAvailable
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// FetchRates lists the remote price rates
func (c *Client) FetchRates(ctx context.Context) ([]integration.Rate, error) {
	ctx, span := telemetry.StartSpan(ctx, "erp.fetch_rates", telemetry.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	body, err := c.do(ctx, http.MethodGet, "/rates", nil, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var wire []wireRateInfo
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, malformed(err)
	}

	rates := make([]integration.Rate, 0, len(wire))
	for _, r := range wire {
		rates = append(rates, integration.Rate{ID: r.ID, Name: r.Name})
	}
	return rates, nil
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

// CreateDocument creates a remote document of the given type
func (c *Client) CreateDocument(ctx context.Context, docType integration.DocumentType, req integration.DocumentRequest) (*integration.DocumentResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "erp.create_document",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrDocumentType, string(docType)),
		telemetry.WithAttribute(telemetry.SpanAttrLineCount, len(req.Lines)),
	)
	defer span.End()

	payload, err := json.Marshal(toWireDocument(req))
	if err != nil {
		return nil, fmt.Errorf("erp: failed to encode document: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/documents/"+url.PathEscape(string(docType)), nil, payload)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result wireDocumentResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, malformed(err)
	}
	if result.ID == "" {
		err := &integration.RemoteAPIError{Code: "no_document_id", Message: "document created without id"}
		telemetry.RecordError(span, err)
		return nil, err
	}

	return &integration.DocumentResult{ID: result.ID, InvoiceNumber: result.InvoiceNum}, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// do sends a request and returns the body of a successful JSON response
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	resp, err := c.send(ctx, method, path, query, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := c.readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		return nil, apiError(resp.StatusCode, body)
	}

	var envelope wireError
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
		return nil, &integration.RemoteAPIError{
			StatusCode: resp.StatusCode,
			Code:       envelope.Error.Code,
			Message:    envelope.Error.Message,
		}
	}
	return body, nil
}

// readBody reads at most maxBody bytes; a longer body is an error rather
// than a silently truncated payload
func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, transportError(err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, &integration.RemoteAPIError{
			StatusCode: resp.StatusCode,
			Code:       "response_too_large",
			Message:    fmt.Sprintf("response body exceeds %d bytes", c.maxBody),
		}
	}
	return data, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) (*http.Response, error) {
	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("erp: failed to create request: %w", err)
	}
	req.Header.Set("key", c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, transportError(err)
	}
	return resp, nil
}

func apiError(status int, body []byte) error {
	apiErr := &integration.RemoteAPIError{StatusCode: status, Code: "http_error", Message: http.StatusText(status)}

	var envelope wireError
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

func transportError(err error) error {
	code := "transport"
	var timeout interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &timeout) && timeout.Timeout()) {
		code = "timeout"
	}
	return &integration.RemoteAPIError{Code: code, Message: err.Error()}
}

func malformed(err error) error {
	return &integration.RemoteAPIError{Code: "malformed_payload", Message: err.Error()}
}
