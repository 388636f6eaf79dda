package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/adsight/fbads-mcp/internal/auth"
)

const (
	DefaultBaseURL = "https://graph.facebook.com"
	DefaultVersion = "v23.0"

	httpMethodGet = http.MethodGet
)

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a read-only Marketing API client. Only rate-limit responses are
// retried; every other failure surfaces as a typed error on the first attempt.
type Client struct {
	BaseURL        string
	HTTP           HTTPClient
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Sleep          func(time.Duration)
	UserAgent      string
}

type Request struct {
	Path        string
	Version     string
	Query       map[string]string
	AccessToken string
	AppSecret   string
}

type Response struct {
	StatusCode int
	Body       map[string]any
	Raw        []byte
	Headers    http.Header
	Usage      Usage
}

// Usage carries the throttling headers Facebook attaches to every response.
type Usage struct {
	AppUsage       map[string]any `json:"app_usage,omitempty"`
	AdAccountUsage map[string]any `json:"ad_account_usage,omitempty"`
}

func NewClient(httpClient HTTPClient, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		BaseURL:        strings.TrimSuffix(baseURL, "/"),
		HTTP:           httpClient,
		MaxRetries:     4,
		InitialBackoff: 300 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Sleep:          time.Sleep,
		UserAgent:      "fbads-mcp/1.0",
	}
}

// Do issues a single GET request, retrying only on rate limiting. The retry
// bound is MaxRetries; once exceeded the RateLimitError is returned to the
// caller instead of looping forever.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Path == "" {
		return nil, errors.New("graph request path is required")
	}
	version := req.Version
	if version == "" {
		version = DefaultVersion
	}
	attempt := 0
	backoff := c.InitialBackoff

	for {
		attempt++
		response, err := c.doOnce(ctx, version, req)
		if err == nil {
			return response, nil
		}

		var rateLimited *RateLimitError
		if errors.As(err, &rateLimited) && attempt <= c.MaxRetries {
			c.Sleep(backoff)
			backoff = nextBackoff(backoff, c.MaxBackoff)
			continue
		}

		return nil, err
	}
}

func (c *Client) doOnce(ctx context.Context, version string, req Request) (*Response, error) {
	endpoint, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse graph base url: %w", err)
	}
	endpoint.Path = path.Join(endpoint.Path, version, strings.TrimPrefix(req.Path, "/"))

	query := url.Values{}
	for key, value := range req.Query {
		query.Set(key, value)
	}
	if req.AccessToken != "" {
		query.Set("access_token", req.AccessToken)
	}
	if req.AccessToken != "" && req.AppSecret != "" {
		proof, err := auth.AppSecretProof(req.AccessToken, req.AppSecret)
		if err != nil {
			return nil, err
		}
		query.Set("appsecret_proof", proof)
	}
	endpoint.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, httpMethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build graph request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.UserAgent)

	httpRes, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, &FetchError{Message: "send request", Err: err}
	}
	defer httpRes.Body.Close()

	body, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, &FetchError{Message: "read response", StatusCode: httpRes.StatusCode, Err: err}
	}

	parsed := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, &FetchError{Message: "decode response JSON", StatusCode: httpRes.StatusCode, Err: err}
		}
	}

	if err := classifyError(httpRes.StatusCode, parsed); err != nil {
		return nil, err
	}
	if httpRes.StatusCode < 200 || httpRes.StatusCode >= 300 {
		return nil, &FetchError{
			Message:    fmt.Sprintf("request failed with status %d", httpRes.StatusCode),
			StatusCode: httpRes.StatusCode,
		}
	}

	return &Response{
		StatusCode: httpRes.StatusCode,
		Body:       parsed,
		Raw:        body,
		Headers:    httpRes.Header.Clone(),
		Usage:      parseUsage(httpRes.Header),
	}, nil
}

func parseUsage(headers http.Header) Usage {
	return Usage{
		AppUsage:       parseUsageHeader(headers.Get("X-App-Usage")),
		AdAccountUsage: parseUsageHeader(headers.Get("X-Ad-Account-Usage")),
	}
}

func parseUsageHeader(value string) map[string]any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parsed := map[string]any{}
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		return map[string]any{
			"raw": value,
		}
	}
	return parsed
}

// Graph throttling codes: 4 app-level, 17 user-level, 32 page-level,
// 613 custom rate limit, 80004 ads insights throttle.
func isRateLimitCode(code int) bool {
	switch code {
	case 4, 17, 32, 613, 80004:
		return true
	default:
		return false
	}
}

func isAuthFailure(statusCode int, errType string, code int) bool {
	if errType == "OAuthException" && !isRateLimitCode(code) {
		return true
	}
	return statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden
}

func classifyError(statusCode int, payload map[string]any) error {
	rawErr, ok := payload["error"]
	if !ok {
		if statusCode == http.StatusTooManyRequests {
			return &RateLimitError{
				Code:       http.StatusTooManyRequests,
				Message:    "rate limited",
				StatusCode: statusCode,
			}
		}
		return nil
	}
	errMap, ok := rawErr.(map[string]any)
	if !ok {
		return &FetchError{
			Message:    "unparseable error payload",
			StatusCode: statusCode,
		}
	}

	errCode := intFromAny(errMap["code"])
	subcode := intFromAny(errMap["error_subcode"])
	message, _ := errMap["message"].(string)
	errType, _ := errMap["type"].(string)
	trace, _ := errMap["fbtrace_id"].(string)

	if statusCode == http.StatusTooManyRequests || isRateLimitCode(errCode) {
		return &RateLimitError{
			Code:       errCode,
			Message:    message,
			FBTraceID:  trace,
			StatusCode: statusCode,
		}
	}
	if isAuthFailure(statusCode, errType, errCode) {
		return &AuthError{
			Type:       errType,
			Code:       errCode,
			Subcode:    subcode,
			Message:    message,
			FBTraceID:  trace,
			StatusCode: statusCode,
		}
	}
	return &FetchError{
		Message:    fmt.Sprintf("graph api error type=%s code=%d fbtrace_id=%s: %s", errType, errCode, trace, message),
		StatusCode: statusCode,
	}
}

func intFromAny(value any) int {
	switch typed := value.(type) {
	case float64:
		return int(typed)
	case int:
		return typed
	case string:
		parsed, err := strconv.Atoi(typed)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}
