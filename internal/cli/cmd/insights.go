package cmd

import (
	"github.com/adsight/fbads-mcp/internal/graph"
	"github.com/adsight/fbads-mcp/internal/insights"
	"github.com/adsight/fbads-mcp/internal/output"
	"github.com/spf13/cobra"
)

// test seam
var newInsightsService = func(creds *ProfileCredentials) *insights.Service {
	return insights.New(newGraphClient(creds))
}

func NewInsightsCommand(runtime Runtime) *cobra.Command {
	insightsCmd := &cobra.Command{
		Use:   "insights",
		Short: "Insights reporting commands",
	}
	insightsCmd.AddCommand(newInsightsRunCommand(runtime))
	insightsCmd.AddCommand(newInsightsCampaignsCommand(runtime))
	return insightsCmd
}

func newInsightsRunCommand(runtime Runtime) *cobra.Command {
	var flags insightsFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an insights query over a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInsights(cmd, runtime, flags, func(creds *ProfileCredentials, query insights.Query) ([]map[string]any, *graph.PaginationResult, error) {
				return newInsightsService(creds).GetAccountInsights(cmd.Context(), creds.Profile.GraphVersion, creds.Token, creds.AppSecret, query)
			}, "insights", "run")
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newInsightsCampaignsCommand(runtime Runtime) *cobra.Command {
	var flags insightsFlags

	cmd := &cobra.Command{
		Use:   "campaigns",
		Short: "Run a campaign-level insights query",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInsights(cmd, runtime, flags, func(creds *ProfileCredentials, query insights.Query) ([]map[string]any, *graph.PaginationResult, error) {
				return newInsightsService(creds).GetCampaignInsights(cmd.Context(), creds.Profile.GraphVersion, creds.Token, creds.AppSecret, query)
			}, "insights", "campaigns")
		},
	}
	flags.register(cmd, false)
	return cmd
}

type insightsFlags struct {
	accountID     string
	startDate     string
	endDate       string
	fields        string
	level         string
	breakdowns    string
	timeIncrement string
	rawActions    bool
	limit         int
	pageSize      int
}

func (f *insightsFlags) register(cmd *cobra.Command, withLevel bool) {
	cmd.Flags().StringVar(&f.accountID, "account-id", "", "Ad account id, with or without act_ prefix")
	cmd.Flags().StringVar(&f.startDate, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.endDate, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.fields, "fields", "spend,impressions,clicks,actions", "Comma-separated metrics")
	if withLevel {
		cmd.Flags().StringVar(&f.level, "level", "account", "Aggregation level: account|campaign|adset|ad")
		cmd.Flags().StringVar(&f.breakdowns, "breakdowns", "", "Comma-separated breakdowns (age, gender, country, ...)")
	}
	cmd.Flags().StringVar(&f.timeIncrement, "time-increment", "", "Time granularity: 1|7|monthly|all_days")
	cmd.Flags().BoolVar(&f.rawActions, "raw-actions", false, "Keep nested action arrays instead of flattening")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Limit total rows returned")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "Per-page limit sent upstream")
}

func runInsights(cmd *cobra.Command, runtime Runtime, flags insightsFlags, run func(*ProfileCredentials, insights.Query) ([]map[string]any, *graph.PaginationResult, error), nameParts ...string) error {
	creds, err := loadProfileCredentials(runtime.ProfileName())
	if err != nil {
		return err
	}
	accountID := flags.accountID
	if accountID == "" {
		accountID = creds.Profile.DefaultAccountID
	}

	rows, stats, err := run(creds, insights.Query{
		AccountID:     accountID,
		StartDate:     flags.startDate,
		EndDate:       flags.endDate,
		Fields:        csvToSlice(flags.fields),
		Level:         flags.level,
		Breakdowns:    csvToSlice(flags.breakdowns),
		TimeIncrement: flags.timeIncrement,
		RawActions:    flags.rawActions,
		Limit:         flags.limit,
		PageSize:      flags.pageSize,
	})
	if err != nil {
		return err
	}

	env := output.NewEnvelope(appCommandName(nameParts...), rows, stats)
	return output.Write(cmd.OutOrStdout(), runtime.OutputFormat(), env)
}
