// Package ads lists ad accounts and the campaign/ad set/ad hierarchy with
// automatic full pagination.
package ads

import (
	"context"
	"fmt"
	"strings"

	"github.com/adsight/fbads-mcp/internal/graph"
)

var DefaultAccountFields = []string{
	"id",
	"account_id",
	"name",
	"currency",
	"timezone_name",
	"account_status",
	"business",
}

var DefaultCampaignFields = []string{
	"id",
	"name",
	"status",
	"effective_status",
	"objective",
	"daily_budget",
	"lifetime_budget",
	"created_time",
	"updated_time",
}

var DefaultAdSetFields = []string{
	"id",
	"name",
	"status",
	"effective_status",
	"daily_budget",
	"lifetime_budget",
	"targeting",
	"created_time",
	"updated_time",
}

var DefaultAdFields = []string{
	"id",
	"name",
	"status",
	"effective_status",
	"creative{id,title,body,image_url}",
	"created_time",
	"updated_time",
}

type Service struct {
	Client *graph.Client
}

func NewService(client *graph.Client) *Service {
	if client == nil {
		client = graph.NewClient(nil, "")
	}
	return &Service{Client: client}
}

type ListOptions struct {
	// Fields overrides the endpoint's default field set.
	Fields []string
	// StatusFilter keeps only records whose status matches exactly.
	// Applied client-side after the full fetch.
	StatusFilter string
	Limit        int
	PageSize     int
}

// ListAdAccounts returns every ad account the token can reach.
func (s *Service) ListAdAccounts(ctx context.Context, version string, token string, appSecret string, options ListOptions) ([]map[string]any, *graph.PaginationResult, error) {
	return s.list(ctx, version, token, appSecret, "me/adaccounts", DefaultAccountFields, options)
}

func (s *Service) ListCampaigns(ctx context.Context, version string, token string, appSecret string, accountID string, options ListOptions) ([]map[string]any, *graph.PaginationResult, error) {
	return s.listForAccount(ctx, version, token, appSecret, accountID, "campaigns", DefaultCampaignFields, options)
}

func (s *Service) ListAdSets(ctx context.Context, version string, token string, appSecret string, accountID string, options ListOptions) ([]map[string]any, *graph.PaginationResult, error) {
	return s.listForAccount(ctx, version, token, appSecret, accountID, "adsets", DefaultAdSetFields, options)
}

func (s *Service) ListAds(ctx context.Context, version string, token string, appSecret string, accountID string, options ListOptions) ([]map[string]any, *graph.PaginationResult, error) {
	return s.listForAccount(ctx, version, token, appSecret, accountID, "ads", DefaultAdFields, options)
}

func (s *Service) listForAccount(ctx context.Context, version string, token string, appSecret string, accountID string, edge string, defaults []string, options ListOptions) ([]map[string]any, *graph.PaginationResult, error) {
	canonicalID, err := NormalizeAccountID(accountID)
	if err != nil {
		return nil, nil, err
	}
	return s.list(ctx, version, token, appSecret, fmt.Sprintf("%s/%s", canonicalID, edge), defaults, options)
}

func (s *Service) list(ctx context.Context, version string, token string, appSecret string, path string, defaults []string, options ListOptions) ([]map[string]any, *graph.PaginationResult, error) {
	fields, err := normalizeFields(options.Fields, defaults)
	if err != nil {
		return nil, nil, err
	}

	rows, result, err := s.Client.FetchAll(ctx, graph.Request{
		Path:    path,
		Version: strings.TrimSpace(version),
		Query: map[string]string{
			"fields": strings.Join(fields, ","),
		},
		AccessToken: token,
		AppSecret:   appSecret,
	}, graph.PaginationOptions{
		Limit:    options.Limit,
		PageSize: options.PageSize,
	})
	if err != nil {
		return nil, nil, err
	}
	return FilterByStatus(rows, options.StatusFilter), result, nil
}

func normalizeFields(fields []string, defaults []string) ([]string, error) {
	if len(fields) == 0 {
		return append([]string(nil), defaults...), nil
	}

	normalized := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		trimmed := strings.TrimSpace(field)
		if trimmed == "" {
			return nil, &ValidationError{Param: "fields", Message: "fields contain blank entries"}
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized, nil
}
