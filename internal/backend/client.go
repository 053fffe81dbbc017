package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vmxmy/salary-system-v2-sub006/internal/shared/apperror"
)

// Client is the interface to the payroll core API. The editing service never
// computes automatic amounts itself; it consumes them through this boundary.
//
//go:generate mockgen -source=client.go -destination=mock/client_mock.go -package=mock
type Client interface {
	FetchEntry(ctx context.Context, entryID string) (*Entry, error)
	FetchComponents(ctx context.Context) ([]RawComponent, error)
	SubmitAdjustment(ctx context.Context, entryID string, req AdjustmentRequest) (*AdjustmentResult, error)
	SaveEntry(ctx context.Context, entryID string, req SaveEntryRequest) (*Entry, error)
}

type httpClient struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  *zap.Logger
}

func NewHTTPClient(baseURL, token string, logger *zap.Logger) Client {
	l := zap.L().Named("backend.client")
	if logger != nil {
		l = logger.Named("backend.client")
	}
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		logger:  l,
	}
}

func (c *httpClient) FetchEntry(ctx context.Context, entryID string) (*Entry, error) {
	var entry Entry
	path := fmt.Sprintf("/payroll-entries/%s", entryID)
	if err := c.do(ctx, http.MethodGet, path, nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *httpClient) FetchComponents(ctx context.Context) ([]RawComponent, error) {
	var records []RawComponent
	if err := c.do(ctx, http.MethodGet, "/payroll-components", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *httpClient) SubmitAdjustment(ctx context.Context, entryID string, req AdjustmentRequest) (*AdjustmentResult, error) {
	var result AdjustmentResult
	path := fmt.Sprintf("/payroll-entries/%s/manual-adjustments", entryID)
	if err := c.do(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveEntry creates the entry when no id exists yet and replaces it
// otherwise.
func (c *httpClient) SaveEntry(ctx context.Context, entryID string, req SaveEntryRequest) (*Entry, error) {
	var entry Entry
	method := http.MethodPost
	path := "/payroll-entries"
	if entryID != "" {
		method = http.MethodPut
		path = fmt.Sprintf("/payroll-entries/%s", entryID)
	}
	if err := c.do(ctx, method, path, req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeUpstreamError, "payroll core is unreachable", http.StatusBadGateway)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeUpstreamError, "reading payroll core response failed", http.StatusBadGateway)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn("payroll core returned an error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return mapStatusError(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.Wrap(err, apperror.CodeUpstreamError, "decoding payroll core response failed", http.StatusBadGateway)
	}
	return nil
}

// mapStatusError keeps the backend's own message when it sends one, so save
// validation failures surface verbatim to the user.
func mapStatusError(status int, body []byte) error {
	message := extractMessage(body)

	switch {
	case status == http.StatusNotFound:
		return apperror.ErrNotFound
	case status == http.StatusUnauthorized:
		return apperror.ErrUnauthorized
	case status == http.StatusForbidden:
		return apperror.ErrForbidden
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if message == "" {
			message = "The payroll entry failed validation"
		}
		return apperror.New(apperror.CodeValidationError, message, http.StatusBadRequest)
	default:
		if message == "" {
			message = "payroll core request failed"
		}
		return apperror.New(apperror.CodeUpstreamError, message, http.StatusBadGateway)
	}
}

func extractMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Detail
}
