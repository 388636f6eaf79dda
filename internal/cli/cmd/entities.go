package cmd

import (
	"context"

	"github.com/adsight/fbads-mcp/internal/ads"
	"github.com/adsight/fbads-mcp/internal/config"
	"github.com/adsight/fbads-mcp/internal/graph"
	"github.com/adsight/fbads-mcp/internal/output"
	"github.com/spf13/cobra"
)

// test seam
var newAdsService = func(creds *ProfileCredentials) *ads.Service {
	return ads.NewService(newGraphClient(creds))
}

func NewAccountsCommand(runtime Runtime) *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Ad account commands",
	}
	accountsCmd.AddCommand(newEntityListCommand(runtime, entityListSpec{
		entity: "accounts",
		short:  "List all accessible ad accounts",
		list: func(ctx context.Context, svc *ads.Service, profile config.Profile, creds *ProfileCredentials, _ string, options ads.ListOptions) ([]map[string]any, *graph.PaginationResult, error) {
			return svc.ListAdAccounts(ctx, profile.GraphVersion, creds.Token, creds.AppSecret, options)
		},
	}))
	return accountsCmd
}

func NewCampaignsCommand(runtime Runtime) *cobra.Command {
	campaignsCmd := &cobra.Command{
		Use:   "campaigns",
		Short: "Campaign commands",
	}
	campaignsCmd.AddCommand(newEntityListCommand(runtime, entityListSpec{
		entity:       "campaigns",
		short:        "List all campaigns for an ad account",
		needsAccount: true,
		list: func(ctx context.Context, svc *ads.Service, profile config.Profile, creds *ProfileCredentials, accountID string, options ads.ListOptions) ([]map[string]any, *graph.PaginationResult, error) {
			return svc.ListCampaigns(ctx, profile.GraphVersion, creds.Token, creds.AppSecret, accountID, options)
		},
	}))
	return campaignsCmd
}

func NewAdSetsCommand(runtime Runtime) *cobra.Command {
	adSetsCmd := &cobra.Command{
		Use:   "adsets",
		Short: "Ad set commands",
	}
	adSetsCmd.AddCommand(newEntityListCommand(runtime, entityListSpec{
		entity:       "adsets",
		short:        "List all ad sets for an ad account",
		needsAccount: true,
		list: func(ctx context.Context, svc *ads.Service, profile config.Profile, creds *ProfileCredentials, accountID string, options ads.ListOptions) ([]map[string]any, *graph.PaginationResult, error) {
			return svc.ListAdSets(ctx, profile.GraphVersion, creds.Token, creds.AppSecret, accountID, options)
		},
	}))
	return adSetsCmd
}

func NewAdsCommand(runtime Runtime) *cobra.Command {
	adsCmd := &cobra.Command{
		Use:   "ads",
		Short: "Ad commands",
	}
	adsCmd.AddCommand(newEntityListCommand(runtime, entityListSpec{
		entity:       "ads",
		short:        "List all ads for an ad account",
		needsAccount: true,
		list: func(ctx context.Context, svc *ads.Service, profile config.Profile, creds *ProfileCredentials, accountID string, options ads.ListOptions) ([]map[string]any, *graph.PaginationResult, error) {
			return svc.ListAds(ctx, profile.GraphVersion, creds.Token, creds.AppSecret, accountID, options)
		},
	}))
	return adsCmd
}

type entityListSpec struct {
	entity       string
	short        string
	needsAccount bool
	list         func(context.Context, *ads.Service, config.Profile, *ProfileCredentials, string, ads.ListOptions) ([]map[string]any, *graph.PaginationResult, error)
}

func newEntityListCommand(runtime Runtime, spec entityListSpec) *cobra.Command {
	var (
		accountID string
		status    string
		fields    string
		limit     int
		pageSize  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: spec.short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := loadProfileCredentials(runtime.ProfileName())
			if err != nil {
				return err
			}
			if accountID == "" {
				accountID = creds.Profile.DefaultAccountID
			}

			svc := newAdsService(creds)
			rows, stats, err := spec.list(cmd.Context(), svc, creds.Profile, creds, accountID, ads.ListOptions{
				Fields:       csvToSlice(fields),
				StatusFilter: status,
				Limit:        limit,
				PageSize:     pageSize,
			})
			if err != nil {
				return err
			}

			env := output.NewEnvelope(appCommandName(spec.entity, "list"), rows, stats)
			return output.Write(cmd.OutOrStdout(), runtime.OutputFormat(), env)
		},
	}

	if spec.needsAccount {
		cmd.Flags().StringVar(&accountID, "account-id", "", "Ad account id, with or without act_ prefix")
	}
	cmd.Flags().StringVar(&status, "status", "", "Keep only records with this exact status (ACTIVE, PAUSED, ARCHIVED)")
	cmd.Flags().StringVar(&fields, "fields", "", "Comma-separated field override")
	cmd.Flags().IntVar(&limit, "limit", 0, "Limit total records returned")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Per-page limit sent upstream")
	return cmd
}

func appCommandName(parts ...string) string {
	name := "fbads-mcp"
	for _, part := range parts {
		name += " " + part
	}
	return name
}
