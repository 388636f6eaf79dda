package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adsight/fbads-mcp/internal/ads"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Server, *httptest.Server) {
	t.Helper()

	upstream := httptest.NewServer(handler)
	t.Cleanup(upstream.Close)

	server := New(Options{
		BaseURL:      upstream.URL,
		GraphVersion: "v23.0",
		Token:        "token",
		HTTP:         upstream.Client(),
		Logger:       testLogger(),
	})
	return server, upstream
}

func TestHandleListAdAccounts(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v23.0/me/adaccounts" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "act_1", "name": "First", "currency": "USD"},
			},
		})
	})

	_, out, err := server.handleListAdAccounts(context.Background(), nil, listAdAccountsInput{})
	if err != nil {
		t.Fatalf("list_ad_accounts: %v", err)
	}
	if len(out.Accounts) != 1 || out.Accounts[0]["id"] != "act_1" {
		t.Fatalf("unexpected accounts: %v", out.Accounts)
	}
}

func TestHandleListCampaignsAppliesStatusFilter(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "c_1", "status": "ACTIVE"},
				{"id": "c_2", "status": "PAUSED"},
			},
		})
	})

	_, out, err := server.handleListCampaigns(context.Background(), nil, listEntitiesInput{
		AccountID:    "42",
		StatusFilter: "PAUSED",
	})
	if err != nil {
		t.Fatalf("list_campaigns: %v", err)
	}
	if len(out.Campaigns) != 1 || out.Campaigns[0]["id"] != "c_2" {
		t.Fatalf("unexpected campaigns: %v", out.Campaigns)
	}
}

func TestHandleGetAccountInsightsFlattensByDefault(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"spend": "50",
					"actions": []any{
						map[string]any{"action_type": "purchase", "value": "5"},
					},
				},
			},
		})
	})

	_, out, err := server.handleGetAccountInsights(context.Background(), nil, accountInsightsInput{
		AccountID: "1",
		StartDate: "2025-01-01",
		EndDate:   "2025-01-31",
		Fields:    []string{"spend", "actions"},
	})
	if err != nil {
		t.Fatalf("get_account_insights: %v", err)
	}
	if out.Rows[0]["action_purchase"] != 5.0 {
		t.Fatalf("expected flattened row, got %v", out.Rows[0])
	}
	if _, exists := out.Rows[0]["actions"]; exists {
		t.Fatal("actions array must be removed after flattening")
	}
}

func TestHandleGetAccountInsightsRespectsFlattenOptOut(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"actions": []any{map[string]any{"action_type": "lead", "value": "2"}}},
			},
		})
	})

	flatten := false
	_, out, err := server.handleGetAccountInsights(context.Background(), nil, accountInsightsInput{
		AccountID:      "1",
		StartDate:      "2025-01-01",
		EndDate:        "2025-01-31",
		FlattenActions: &flatten,
	})
	if err != nil {
		t.Fatalf("get_account_insights: %v", err)
	}
	if _, exists := out.Rows[0]["actions"]; !exists {
		t.Fatal("raw mode must keep the actions array")
	}
}

func TestHandleGetAccountInsightsRejectsBadInputWithoutNetwork(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for invalid input")
		http.Error(w, "unexpected", http.StatusInternalServerError)
	})

	_, _, err := server.handleGetAccountInsights(context.Background(), nil, accountInsightsInput{
		AccountID: "1",
		StartDate: "2025-12-31",
		EndDate:   "2025-01-01",
	})
	var validationErr *ads.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestHandleGetCampaignInsightsUsesDefaultAccount(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v23.0/act_777/insights" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("level"); got != "campaign" {
			t.Errorf("expected level=campaign, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}})
	}))
	defer upstream.Close()

	server := New(Options{
		BaseURL:          upstream.URL,
		GraphVersion:     "v23.0",
		Token:            "token",
		DefaultAccountID: "777",
		HTTP:             upstream.Client(),
		Logger:           testLogger(),
	})

	_, out, err := server.handleGetCampaignInsights(context.Background(), nil, campaignInsightsInput{
		StartDate: "2025-01-01",
		EndDate:   "2025-01-31",
	})
	if err != nil {
		t.Fatalf("get_campaign_insights: %v", err)
	}
	if len(out.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(out.Rows))
	}
}
