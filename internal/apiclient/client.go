package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"growskill/internal/util"
)

// BasePath is the API prefix every endpoint lives under.
const BasePath = "/api/v1"

const (
	defaultTimeout    = 20 * time.Second
	defaultRetryWait  = 500 * time.Millisecond
	defaultRetryLimit = 1
)

// Config configures the API client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// GetRetries is how many times an idempotent GET is retried on a
	// transport error or a 5xx response. Negative disables retries.
	GetRetries int
	RetryWait  time.Duration
	Logger     *slog.Logger
}

// Client calls the GrowSkill backend over HTTP. It holds no credentials;
// callers pass the bearer token on every authenticated call.
type Client struct {
	rc *resty.Client
}

// New constructs a client rooted at cfg.BaseURL + /api/v1.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api base URL is required")
	}
	if !strings.HasSuffix(base, BasePath) {
		base += BasePath
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.GetRetries
	switch {
	case retries == 0:
		retries = defaultRetryLimit
	case retries < 0:
		retries = 0
	}
	wait := cfg.RetryWait
	if wait <= 0 {
		wait = defaultRetryWait
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rc := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(4*wait).
		SetLogger(slogAdapter{logger: logger}).
		SetHeader("Accept", "application/json").
		AddRetryCondition(retryIdempotentGET)
	return &Client{rc: rc}, nil
}

// retryIdempotentGET retries only GET calls, on transport errors and 5xx.
func retryIdempotentGET(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	return resp.StatusCode() >= http.StatusInternalServerError
}

// call sends one request. payload is JSON-encoded when non-nil; out receives
// the decoded JSON body when non-nil. It returns the raw body.
func (c *Client) call(ctx context.Context, method, path, token string, payload, out any) ([]byte, error) {
	req := c.newRequest(ctx, token)
	if payload != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}
	return c.execute(ctx, req, method, path, out)
}

func (c *Client) newRequest(ctx context.Context, token string) *resty.Request {
	ctx, requestID := util.WithRequestID(ctx)
	req := c.rc.R().SetContext(ctx).SetHeader(util.RequestIDHeader, requestID)
	if strings.TrimSpace(token) != "" {
		req.SetAuthToken(token)
	}
	return req
}

func (c *Client) execute(ctx context.Context, req *resty.Request, method, path string, out any) ([]byte, error) {
	started := time.Now()
	resp, err := req.Execute(method, path)
	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	util.LogRequest(req.Context(), method, path, status, started, err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	body := resp.Body()
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), resp.Status(), body)
	}
	if out == nil {
		return body, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return body, nil
}

type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Errorf(format string, v ...any) {
	a.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (a slogAdapter) Warnf(format string, v ...any) {
	a.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (a slogAdapter) Debugf(format string, v ...any) {
	a.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}
