package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/adsight/fbads-mcp/internal/ads"
	"github.com/adsight/fbads-mcp/internal/graph"
)

func TestWriteJSONEnvelope(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	env := NewEnvelope("fbads-mcp campaigns list", []map[string]any{{"id": "c_1"}}, nil)
	if err := Write(&buf, "json", env); err != nil {
		t.Fatalf("write json: %v", err)
	}

	decoded := map[string]any{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["success"] != true {
		t.Fatalf("unexpected envelope: %v", decoded)
	}
}

func TestWriteJSONLOneLinePerRow(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	env := NewEnvelope("fbads-mcp insights", []map[string]any{
		{"id": "1"},
		{"id": "2"},
	}, nil)
	if err := Write(&buf, "jsonl", env); err != nil {
		t.Fatalf("write jsonl: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestWriteCSVIncludesSortedHeaders(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	env := NewEnvelope("fbads-mcp insights", []map[string]any{
		{"spend": 10.5, "action_purchase": 5.0},
	}, nil)
	if err := Write(&buf, "csv", env); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "action_purchase,spend") {
		t.Fatalf("unexpected csv header: %q", buf.String())
	}
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	if err := Write(&bytes.Buffer{}, "xml", Envelope{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		err      error
		wantKind string
	}{
		{name: "auth", err: &graph.AuthError{Code: 190, Message: "expired"}, wantKind: "auth"},
		{name: "rate limit", err: &graph.RateLimitError{Code: 4}, wantKind: "rate_limit"},
		{name: "validation", err: &ads.ValidationError{Param: "level"}, wantKind: "validation"},
		{name: "protocol", err: &graph.ProtocolError{Field: "paging.next"}, wantKind: "protocol"},
		{name: "fetch", err: &graph.FetchError{Message: "boom"}, wantKind: "fetch"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			info := ClassifyError(tc.err)
			if info.Kind != tc.wantKind {
				t.Fatalf("expected kind %q, got %q", tc.wantKind, info.Kind)
			}
		})
	}

	if info := ClassifyError(&graph.RateLimitError{}); !info.Retryable {
		t.Fatal("rate limit errors are retryable")
	}
}
