// Package insights runs Marketing API insights queries with automatic full
// pagination and optional action flattening.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adsight/fbads-mcp/internal/ads"
	"github.com/adsight/fbads-mcp/internal/flatten"
	"github.com/adsight/fbads-mcp/internal/graph"
)

const dateLayout = "2006-01-02"

const (
	LevelAccount  = "account"
	LevelCampaign = "campaign"
	LevelAdSet    = "adset"
	LevelAd       = "ad"
)

var validLevels = map[string]struct{}{
	LevelAccount:  {},
	LevelCampaign: {},
	LevelAdSet:    {},
	LevelAd:       {},
}

type Query struct {
	AccountID string
	// StartDate and EndDate are inclusive ISO calendar dates (YYYY-MM-DD).
	StartDate string
	EndDate   string
	Fields    []string
	// Level defaults to account when empty.
	Level      string
	Breakdowns []string
	// TimeIncrement is passed through unvalidated ("1", "7", "monthly",
	// "all_days"); the upstream API owns the legal values.
	TimeIncrement string
	// RawActions skips flattening and returns rows with nested action
	// arrays intact.
	RawActions bool
	Limit      int
	PageSize   int
}

type Service struct {
	Client *graph.Client
}

func New(client *graph.Client) *Service {
	if client == nil {
		client = graph.NewClient(nil, "")
	}
	return &Service{Client: client}
}

// GetAccountInsights validates the query, fetches every page of the insights
// report and flattens action arrays unless RawActions is set. Validation
// failures reject before any network call.
func (s *Service) GetAccountInsights(ctx context.Context, version string, token string, appSecret string, query Query) ([]map[string]any, *graph.PaginationResult, error) {
	accountID, err := ads.NormalizeAccountID(query.AccountID)
	if err != nil {
		return nil, nil, err
	}
	start, end, err := validateDateRange(query.StartDate, query.EndDate)
	if err != nil {
		return nil, nil, err
	}
	level, err := validateLevel(query.Level)
	if err != nil {
		return nil, nil, err
	}
	fields, err := normalizeFields(query.Fields)
	if err != nil {
		return nil, nil, err
	}
	breakdowns, err := normalizeBreakdowns(query.Breakdowns)
	if err != nil {
		return nil, nil, err
	}

	params := map[string]string{
		"level":      level,
		"time_range": encodeTimeRange(start, end),
	}
	if len(fields) > 0 {
		params["fields"] = strings.Join(fields, ",")
	}
	if len(breakdowns) > 0 {
		params["breakdowns"] = strings.Join(breakdowns, ",")
	}
	if increment := strings.TrimSpace(query.TimeIncrement); increment != "" {
		params["time_increment"] = increment
	}

	rows, result, err := s.Client.FetchAll(ctx, graph.Request{
		Path:        accountID + "/insights",
		Version:     strings.TrimSpace(version),
		Query:       params,
		AccessToken: token,
		AppSecret:   appSecret,
	}, graph.PaginationOptions{
		Limit:    query.Limit,
		PageSize: query.PageSize,
	})
	if err != nil {
		return nil, nil, err
	}
	if query.RawActions {
		return rows, result, nil
	}

	flattened, err := flatten.Rows(rows)
	if err != nil {
		return nil, nil, err
	}
	return flatten.CoerceNumeric(flattened), result, nil
}

// GetCampaignInsights fixes the level to campaign and forwards everything
// else unchanged.
func (s *Service) GetCampaignInsights(ctx context.Context, version string, token string, appSecret string, query Query) ([]map[string]any, *graph.PaginationResult, error) {
	query.Level = LevelCampaign
	return s.GetAccountInsights(ctx, version, token, appSecret, query)
}

func validateDateRange(startDate string, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, strings.TrimSpace(startDate))
	if err != nil {
		return time.Time{}, time.Time{}, &ads.ValidationError{
			Param:   "start_date",
			Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", startDate),
		}
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(endDate))
	if err != nil {
		return time.Time{}, time.Time{}, &ads.ValidationError{
			Param:   "end_date",
			Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", endDate),
		}
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, &ads.ValidationError{
			Param:   "start_date",
			Message: fmt.Sprintf("start_date %s is after end_date %s", start.Format(dateLayout), end.Format(dateLayout)),
		}
	}
	return start, end, nil
}

func validateLevel(level string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if normalized == "" {
		return LevelAccount, nil
	}
	if _, ok := validLevels[normalized]; !ok {
		return "", &ads.ValidationError{
			Param:   "level",
			Message: fmt.Sprintf("%q is not one of account|campaign|adset|ad", level),
		}
	}
	return normalized, nil
}

func normalizeFields(fields []string) ([]string, error) {
	normalized := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		trimmed := strings.TrimSpace(field)
		if trimmed == "" {
			return nil, &ads.ValidationError{Param: "fields", Message: "fields contain blank entries"}
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized, nil
}

func normalizeBreakdowns(breakdowns []string) ([]string, error) {
	normalized := make([]string, 0, len(breakdowns))
	for _, breakdown := range breakdowns {
		trimmed := strings.TrimSpace(breakdown)
		if trimmed == "" {
			return nil, &ads.ValidationError{Param: "breakdowns", Message: "breakdowns contain blank entries"}
		}
		normalized = append(normalized, trimmed)
	}
	return normalized, nil
}

func encodeTimeRange(start time.Time, end time.Time) string {
	encoded, _ := json.Marshal(map[string]string{
		"since": start.Format(dateLayout),
		"until": end.Format(dateLayout),
	})
	return string(encoded)
}
