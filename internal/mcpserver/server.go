// Package mcpserver exposes entity listing and insights reporting as MCP
// tools over stdio. Tool handlers are thin: validation and fetching live in
// the ads and insights services.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/adsight/fbads-mcp/internal/ads"
	"github.com/adsight/fbads-mcp/internal/graph"
	"github.com/adsight/fbads-mcp/internal/insights"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "fbads-mcp"

type Options struct {
	// BaseURL overrides the Graph API host, mainly for tests.
	BaseURL      string
	GraphVersion string
	Token        string
	AppSecret    string
	// DefaultAccountID fills in account_id when a tool call omits it.
	DefaultAccountID string
	HTTP             graph.HTTPClient
	Version          string
	Logger           *slog.Logger
}

type Server struct {
	MCPServer *sdkmcp.Server

	ads      *ads.Service
	insights *insights.Service

	graphVersion     string
	token            string
	appSecret        string
	defaultAccountID string
	log              *slog.Logger
}

func New(options Options) *Server {
	client := graph.NewClient(options.HTTP, options.BaseURL)
	version := options.Version
	if version == "" {
		version = "dev"
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		ads:              ads.NewService(client),
		insights:         insights.New(client),
		graphVersion:     options.GraphVersion,
		token:            options.Token,
		appSecret:        options.AppSecret,
		defaultAccountID: options.DefaultAccountID,
		log:              logger.With("component", "mcp"),
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: serverName, Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the context is cancelled or the client
// disconnects. Stdout carries the protocol; all logging goes to stderr.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("starting MCP server over stdio", "graph_version", s.graphVersion)
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_ad_accounts",
		Description: "List all ad accounts accessible with the configured access token. Pagination is handled internally; the complete list is returned in one call.",
	}, s.handleListAdAccounts)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_campaigns",
		Description: "List all campaigns for an ad account, optionally filtered by status (ACTIVE, PAUSED, ARCHIVED). Fetches every page automatically.",
	}, s.handleListCampaigns)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_ad_sets",
		Description: "List all ad sets for an ad account, optionally filtered by status. Fetches every page automatically.",
	}, s.handleListAdSets)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_ads",
		Description: "List all ads for an ad account, optionally filtered by status. Fetches every page automatically.",
	}, s.handleListAds)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_account_insights",
		Description: "Get performance insights for an ad account over a date range. Fetches every page and flattens nested action arrays into flat fields like action_purchase unless flatten_actions is false.",
	}, s.handleGetAccountInsights)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_campaign_insights",
		Description: "Get performance insights broken down by campaign. Convenience variant of get_account_insights with level fixed to campaign.",
	}, s.handleGetCampaignInsights)
}

// --- Tool input/output types ---

type listAdAccountsInput struct{}

type listAdAccountsOutput struct {
	Accounts []map[string]any `json:"accounts"`
}

type listEntitiesInput struct {
	AccountID    string `json:"account_id,omitempty" jsonschema:"ad account id, with or without act_ prefix"`
	StatusFilter string `json:"status_filter,omitempty" jsonschema:"exact status to keep (ACTIVE, PAUSED, ARCHIVED); empty returns all"`
}

type listCampaignsOutput struct {
	Campaigns []map[string]any `json:"campaigns"`
}

type listAdSetsOutput struct {
	AdSets []map[string]any `json:"ad_sets"`
}

type listAdsOutput struct {
	Ads []map[string]any `json:"ads"`
}

type accountInsightsInput struct {
	AccountID      string   `json:"account_id,omitempty" jsonschema:"ad account id, with or without act_ prefix"`
	StartDate      string   `json:"start_date" jsonschema:"start date in YYYY-MM-DD format"`
	EndDate        string   `json:"end_date" jsonschema:"end date in YYYY-MM-DD format"`
	Fields         []string `json:"fields" jsonschema:"metrics to retrieve, for example spend, impressions, clicks, actions, conversions"`
	Level          string   `json:"level,omitempty" jsonschema:"aggregation level: account, campaign, adset or ad (default account)"`
	Breakdowns     []string `json:"breakdowns,omitempty" jsonschema:"segmentation dimensions, for example age, gender, country"`
	TimeIncrement  string   `json:"time_increment,omitempty" jsonschema:"time granularity: 1 for daily, 7 for weekly, monthly, or all_days"`
	FlattenActions *bool    `json:"flatten_actions,omitempty" jsonschema:"flatten action arrays into flat fields like action_purchase (default true)"`
}

type campaignInsightsInput struct {
	AccountID      string   `json:"account_id,omitempty" jsonschema:"ad account id, with or without act_ prefix"`
	StartDate      string   `json:"start_date" jsonschema:"start date in YYYY-MM-DD format"`
	EndDate        string   `json:"end_date" jsonschema:"end date in YYYY-MM-DD format"`
	Fields         []string `json:"fields" jsonschema:"metrics to retrieve; should include campaign_name"`
	TimeIncrement  string   `json:"time_increment,omitempty" jsonschema:"time granularity: 1 for daily, 7 for weekly, monthly, or all_days"`
	FlattenActions *bool    `json:"flatten_actions,omitempty" jsonschema:"flatten action arrays into flat fields (default true)"`
}

type insightsOutput struct {
	Rows []map[string]any `json:"rows"`
}

// --- Handlers ---

func (s *Server) handleListAdAccounts(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listAdAccountsInput) (*sdkmcp.CallToolResult, listAdAccountsOutput, error) {
	accounts, _, err := s.ads.ListAdAccounts(ctx, s.graphVersion, s.token, s.appSecret, ads.ListOptions{})
	if err != nil {
		s.log.Error("list_ad_accounts failed", "error", err)
		return nil, listAdAccountsOutput{}, err
	}
	s.log.Info("list_ad_accounts", "count", len(accounts))
	return nil, listAdAccountsOutput{Accounts: accounts}, nil
}

func (s *Server) handleListCampaigns(ctx context.Context, _ *sdkmcp.CallToolRequest, input listEntitiesInput) (*sdkmcp.CallToolResult, listCampaignsOutput, error) {
	campaigns, _, err := s.ads.ListCampaigns(ctx, s.graphVersion, s.token, s.appSecret, s.accountID(input.AccountID), ads.ListOptions{
		StatusFilter: input.StatusFilter,
	})
	if err != nil {
		s.log.Error("list_campaigns failed", "error", err)
		return nil, listCampaignsOutput{}, err
	}
	return nil, listCampaignsOutput{Campaigns: campaigns}, nil
}

func (s *Server) handleListAdSets(ctx context.Context, _ *sdkmcp.CallToolRequest, input listEntitiesInput) (*sdkmcp.CallToolResult, listAdSetsOutput, error) {
	adSets, _, err := s.ads.ListAdSets(ctx, s.graphVersion, s.token, s.appSecret, s.accountID(input.AccountID), ads.ListOptions{
		StatusFilter: input.StatusFilter,
	})
	if err != nil {
		s.log.Error("list_ad_sets failed", "error", err)
		return nil, listAdSetsOutput{}, err
	}
	return nil, listAdSetsOutput{AdSets: adSets}, nil
}

func (s *Server) handleListAds(ctx context.Context, _ *sdkmcp.CallToolRequest, input listEntitiesInput) (*sdkmcp.CallToolResult, listAdsOutput, error) {
	allAds, _, err := s.ads.ListAds(ctx, s.graphVersion, s.token, s.appSecret, s.accountID(input.AccountID), ads.ListOptions{
		StatusFilter: input.StatusFilter,
	})
	if err != nil {
		s.log.Error("list_ads failed", "error", err)
		return nil, listAdsOutput{}, err
	}
	return nil, listAdsOutput{Ads: allAds}, nil
}

func (s *Server) handleGetAccountInsights(ctx context.Context, _ *sdkmcp.CallToolRequest, input accountInsightsInput) (*sdkmcp.CallToolResult, insightsOutput, error) {
	rows, _, err := s.insights.GetAccountInsights(ctx, s.graphVersion, s.token, s.appSecret, insights.Query{
		AccountID:     s.accountID(input.AccountID),
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		Fields:        input.Fields,
		Level:         input.Level,
		Breakdowns:    input.Breakdowns,
		TimeIncrement: input.TimeIncrement,
		RawActions:    input.FlattenActions != nil && !*input.FlattenActions,
	})
	if err != nil {
		s.log.Error("get_account_insights failed", "error", err)
		return nil, insightsOutput{}, err
	}
	s.log.Info("get_account_insights", "rows", len(rows))
	return nil, insightsOutput{Rows: rows}, nil
}

func (s *Server) handleGetCampaignInsights(ctx context.Context, _ *sdkmcp.CallToolRequest, input campaignInsightsInput) (*sdkmcp.CallToolResult, insightsOutput, error) {
	rows, _, err := s.insights.GetCampaignInsights(ctx, s.graphVersion, s.token, s.appSecret, insights.Query{
		AccountID:     s.accountID(input.AccountID),
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		Fields:        input.Fields,
		TimeIncrement: input.TimeIncrement,
		RawActions:    input.FlattenActions != nil && !*input.FlattenActions,
	})
	if err != nil {
		s.log.Error("get_campaign_insights failed", "error", err)
		return nil, insightsOutput{}, err
	}
	s.log.Info("get_campaign_insights", "rows", len(rows))
	return nil, insightsOutput{Rows: rows}, nil
}

func (s *Server) accountID(fromInput string) string {
	if fromInput != "" {
		return fromInput
	}
	return s.defaultAccountID
}
