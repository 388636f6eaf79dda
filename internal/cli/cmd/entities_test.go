package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adsight/fbads-mcp/internal/ads"
	"github.com/adsight/fbads-mcp/internal/config"
	"github.com/adsight/fbads-mcp/internal/graph"
	"github.com/adsight/fbads-mcp/internal/testutil"
)

func stubCredentials(t *testing.T, serverURL string) {
	t.Helper()

	previous := loadProfileCredentials
	loadProfileCredentials = func(string) (*ProfileCredentials, error) {
		return &ProfileCredentials{
			Name: "test",
			Profile: config.Profile{
				GraphVersion:     "v23.0",
				BaseURL:          serverURL,
				DefaultAccountID: "42",
			},
			Token: "token",
		}, nil
	}
	t.Cleanup(func() { loadProfileCredentials = previous })
}

func stubAdsService(t *testing.T, server *httptest.Server) {
	t.Helper()

	previous := newAdsService
	newAdsService = func(creds *ProfileCredentials) *ads.Service {
		return ads.NewService(graph.NewClient(server.Client(), server.URL))
	}
	t.Cleanup(func() { newAdsService = previous })
}

func testRuntime() Runtime {
	profile := ""
	format := "json"
	debug := false
	return Runtime{Profile: &profile, Output: &format, Debug: &debug}
}

func TestCampaignsListCommand(t *testing.T) {
	server := testutil.NewJSONServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v23.0/act_42/campaigns" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "c_1", "status": "ACTIVE"},
				{"id": "c_2", "status": "PAUSED"},
			},
		})
	})
	defer server.Close()

	stubCredentials(t, server.URL)
	stubAdsService(t, server)

	cmd := NewCampaignsCommand(testRuntime())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list", "--status", "ACTIVE"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("campaigns list: %v", err)
	}

	envelope := map[string]any{}
	if err := json.Unmarshal(out.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	rows, _ := envelope["data"].([]any)
	if len(rows) != 1 {
		t.Fatalf("expected 1 campaign after filter, got %d", len(rows))
	}
}

func TestAccountsListCommand(t *testing.T) {
	server := testutil.NewJSONServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v23.0/me/adaccounts" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": "act_1", "name": "First"}},
		})
	})
	defer server.Close()

	stubCredentials(t, server.URL)
	stubAdsService(t, server)

	cmd := NewAccountsCommand(testRuntime())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("accounts list: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("act_1")) {
		t.Fatalf("output missing account: %s", out.String())
	}
}

func TestAdSetsListUsesDefaultAccountFromProfile(t *testing.T) {
	server := testutil.NewJSONServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v23.0/act_42/adsets" {
			t.Errorf("expected profile default account in path, got %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}})
	})
	defer server.Close()

	stubCredentials(t, server.URL)
	stubAdsService(t, server)

	cmd := NewAdSetsCommand(testRuntime())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"list"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("adsets list: %v", err)
	}
}

func TestCsvToSlice(t *testing.T) {
	t.Parallel()

	got := csvToSlice(" spend, impressions ,,clicks ")
	want := []string{"spend", "impressions", "clicks"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if csvToSlice("  ") != nil {
		t.Fatal("blank input must yield nil")
	}
}
