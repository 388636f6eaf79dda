package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adsight/fbads-mcp/internal/ads"
	"github.com/adsight/fbads-mcp/internal/graph"
	"github.com/adsight/fbads-mcp/internal/insights"
	"github.com/adsight/fbads-mcp/internal/testutil"
)

func stubInsightsService(t *testing.T, server *httptest.Server) {
	t.Helper()

	previous := newInsightsService
	newInsightsService = func(creds *ProfileCredentials) *insights.Service {
		return insights.New(graph.NewClient(server.Client(), server.URL))
	}
	t.Cleanup(func() { newInsightsService = previous })
}

func TestInsightsRunCommandFlattensActions(t *testing.T) {
	server := testutil.NewJSONServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v23.0/act_42/insights" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("level"); got != "account" {
			t.Errorf("expected account level, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{
				"spend":   "12.50",
				"actions": []map[string]any{{"action_type": "purchase", "value": "3"}},
			}},
		})
	})
	defer server.Close()

	stubCredentials(t, server.URL)
	stubInsightsService(t, server)

	cmd := NewInsightsCommand(testRuntime())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run", "--start", "2025-01-01", "--end", "2025-01-31"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("insights run: %v", err)
	}

	envelope := struct {
		Data []map[string]any `json:"data"`
	}{}
	if err := json.Unmarshal(out.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("expected one row, got %d", len(envelope.Data))
	}
	row := envelope.Data[0]
	if row["action_purchase"] != 3.0 {
		t.Errorf("expected flattened action_purchase=3, got %v", row["action_purchase"])
	}
	if _, present := row["actions"]; present {
		t.Error("nested actions array must be replaced by flattened columns")
	}
}

func TestInsightsCampaignsCommandForcesCampaignLevel(t *testing.T) {
	server := testutil.NewJSONServer(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("level"); got != "campaign" {
			t.Errorf("expected campaign level, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}})
	})
	defer server.Close()

	stubCredentials(t, server.URL)
	stubInsightsService(t, server)

	cmd := NewInsightsCommand(testRuntime())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"campaigns", "--account-id", "99", "--start", "2025-02-01", "--end", "2025-02-28"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("insights campaigns: %v", err)
	}
}

func TestInsightsRunRejectsBadDatesBeforeNetwork(t *testing.T) {
	calls := 0
	server := testutil.NewJSONServer(func(w http.ResponseWriter, r *http.Request) {
		calls++
	})
	defer server.Close()

	stubCredentials(t, server.URL)
	stubInsightsService(t, server)

	cmd := NewInsightsCommand(testRuntime())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	cmd.SetArgs([]string{"run", "--start", "2025-03-31", "--end", "2025-03-01"})

	err := cmd.Execute()
	var validationErr *ads.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no upstream calls, got %d", calls)
	}
}
