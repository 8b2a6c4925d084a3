// Package client talks to the cancellation API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"subscription-cancel-be/internal/dto"
	"subscription-cancel-be/internal/pkg/serverutils"
	"subscription-cancel-be/pkg/security"
)

const DefaultBaseURL = "http://localhost:3000"

// APIError is a non-2xx response. Message is the server's "error" field.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client with a cookie jar, which the CSRF double-submit needs.
func New(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: 15 * time.Second, Jar: jar})
}

func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *Client) ListUsers(ctx context.Context) ([]string, error) {
	var res dto.UserListResponse
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, "", &res); err != nil {
		return nil, err
	}
	return res.Users, nil
}

func (c *Client) SubscriptionStatus(ctx context.Context, email string) (*dto.SubscriptionStatusResponse, error) {
	var res dto.SubscriptionStatusResponse
	path := "/api/subscription-status?email=" + url.QueryEscape(email)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) RequestCancel(ctx context.Context, email string) (*dto.SubscriptionCancelResponse, error) {
	token, err := c.CSRFToken(ctx)
	if err != nil {
		return nil, err
	}
	var res dto.SubscriptionCancelResponse
	body := dto.SubscriptionCancelRequest{Email: email}
	if err := c.do(ctx, http.MethodPost, "/api/subscription-cancel-request", body, token, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CSRFToken fetches a fresh token. The matching cookie lands in the jar.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	var res dto.CSRFResponse
	if err := c.do(ctx, http.MethodGet, "/api/csrf", nil, "", &res); err != nil {
		return "", err
	}
	return res.CSRFToken, nil
}

func (c *Client) RecordCancellation(ctx context.Context, req dto.CreateCancellationRequest) error {
	token, err := c.CSRFToken(ctx)
	if err != nil {
		return err
	}
	var res dto.StatusResponse
	return c.do(ctx, http.MethodPost, "/api/cancellations", req, token, &res)
}

func (c *Client) StartWizard(ctx context.Context, email string) (*dto.WizardSessionResponse, error) {
	var res serverutils.BaseResponse[*dto.WizardSessionResponse]
	if err := c.do(ctx, http.MethodPost, "/api/wizard/sessions", dto.StartWizardRequest{Email: email}, "", &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) GetWizard(ctx context.Context, id string) (*dto.WizardSessionResponse, error) {
	var res serverutils.BaseResponse[*dto.WizardSessionResponse]
	if err := c.do(ctx, http.MethodGet, "/api/wizard/sessions/"+url.PathEscape(id), nil, "", &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) ApplyWizardEvent(ctx context.Context, id string, ev dto.WizardEventRequest) (*dto.WizardSessionResponse, error) {
	var res serverutils.BaseResponse[*dto.WizardSessionResponse]
	path := "/api/wizard/sessions/" + url.PathEscape(id) + "/events"
	if err := c.do(ctx, http.MethodPost, path, ev, "", &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, csrfToken string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrfToken != "" {
		req.Header.Set(security.CSRFHeaderName, csrfToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var errBody serverutils.ErrorBody
		if json.Unmarshal(raw, &errBody) != nil || errBody.Error == "" {
			errBody.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
