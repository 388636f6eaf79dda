package graph

import "fmt"

// AuthError reports an invalid or expired access token. It is never retried.
type AuthError struct {
	Type       string `json:"type"`
	Code       int    `json:"code"`
	Subcode    int    `json:"error_subcode"`
	Message    string `json:"message"`
	FBTraceID  string `json:"fbtrace_id"`
	StatusCode int    `json:"-"`
}

func (e *AuthError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("auth error type=%s code=%d fbtrace_id=%s: %s", e.Type, e.Code, e.FBTraceID, e.Message)
}

// RateLimitError reports upstream throttling. The client retries it with
// bounded backoff; once the bound is exceeded the error surfaces as-is.
type RateLimitError struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	FBTraceID  string `json:"fbtrace_id"`
	StatusCode int    `json:"-"`
}

func (e *RateLimitError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("rate limited code=%d fbtrace_id=%s: %s", e.Code, e.FBTraceID, e.Message)
}

// ProtocolError reports a pagination contract violation from the upstream,
// such as a next cursor that does not advance. Fatal, never retried.
type ProtocolError struct {
	Field   string
	Message string
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return fmt.Sprintf("upstream protocol violation: %s", e.Message)
	}
	return fmt.Sprintf("upstream protocol violation in %q: %s", e.Field, e.Message)
}

// FetchError covers transport failures and HTTP errors that are neither
// auth nor rate-limit shaped. It surfaces to the caller without retry.
type FetchError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
