package graph

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type PaginationOptions struct {
	// Limit caps the total number of items returned across all pages.
	// Zero means unlimited.
	Limit int
	// PageSize sets the per-page limit parameter when the request does not
	// already carry one.
	PageSize int
}

type PaginationResult struct {
	PagesFetched int `json:"pages_fetched"`
	ItemsFetched int `json:"items_fetched"`
	// Usage carries the throttling headers from the last page fetched.
	Usage Usage `json:"usage,omitzero"`
}

// FetchAll follows paging.next cursors until the collection is exhausted and
// returns the concatenation of all pages in server order. A failed request
// yields no rows at all, never a truncated result. A next cursor identical to
// the one just consumed is a ProtocolError; terminating beats looping on a
// misbehaving upstream.
func (c *Client) FetchAll(ctx context.Context, req Request, options PaginationOptions) ([]map[string]any, *PaginationResult, error) {
	if req.Query == nil {
		req.Query = map[string]string{}
	}
	if options.PageSize > 0 && req.Query["limit"] == "" {
		req.Query["limit"] = strconv.Itoa(options.PageSize)
	}

	result := &PaginationResult{}
	rows := make([]map[string]any, 0)
	current := req
	lastCursor := ""

	for {
		resp, err := c.Do(ctx, current)
		if err != nil {
			return nil, nil, err
		}
		result.PagesFetched++
		result.Usage = resp.Usage

		items, err := extractDataItems(resp.Body)
		if err != nil {
			return nil, nil, err
		}
		if len(items) == 0 {
			return rows, result, nil
		}
		for _, item := range items {
			if options.Limit > 0 && result.ItemsFetched >= options.Limit {
				return rows, result, nil
			}
			rows = append(rows, item)
			result.ItemsFetched++
		}

		next := extractNextCursor(resp.Body)
		if next == "" {
			return rows, result, nil
		}
		if next == lastCursor {
			return nil, nil, &ProtocolError{
				Field:   "paging.next",
				Message: fmt.Sprintf("cursor %q did not advance", next),
			}
		}
		lastCursor = next

		nextReq, err := followRequestFromNextURL(next, current)
		if err != nil {
			return nil, nil, err
		}
		current = nextReq
	}
}

func extractDataItems(payload map[string]any) ([]map[string]any, error) {
	raw, ok := payload["data"]
	if !ok {
		return nil, &ProtocolError{Field: "data", Message: "response has no data array"}
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &ProtocolError{Field: "data", Message: "data is not an array"}
	}

	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		itemMap, ok := item.(map[string]any)
		if ok {
			out = append(out, itemMap)
		}
	}
	return out, nil
}

func extractNextCursor(payload map[string]any) string {
	paging, ok := payload["paging"].(map[string]any)
	if !ok {
		return ""
	}
	next, _ := paging["next"].(string)
	return next
}

// followRequestFromNextURL rebuilds a Request from an opaque paging.next URL,
// re-attaching credentials rather than trusting the ones echoed in the URL.
func followRequestFromNextURL(nextURL string, previous Request) (Request, error) {
	parsed, err := url.Parse(nextURL)
	if err != nil {
		return Request{}, &ProtocolError{
			Field:   "paging.next",
			Message: fmt.Sprintf("unparseable url %q: %v", nextURL, err),
		}
	}
	segments := strings.Split(strings.TrimPrefix(parsed.Path, "/"), "/")
	if len(segments) < 2 {
		return Request{}, &ProtocolError{
			Field:   "paging.next",
			Message: fmt.Sprintf("invalid path %q", parsed.Path),
		}
	}
	version := previous.Version
	if version == "" {
		version = segments[0]
	}
	relPath := strings.Join(segments[1:], "/")

	query := map[string]string{}
	for key, values := range parsed.Query() {
		if len(values) == 0 {
			continue
		}
		if key == "access_token" || key == "appsecret_proof" {
			continue
		}
		query[key] = values[len(values)-1]
	}

	return Request{
		Path:        relPath,
		Version:     version,
		Query:       query,
		AccessToken: previous.AccessToken,
		AppSecret:   previous.AppSecret,
	}, nil
}
