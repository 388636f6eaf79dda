package cli

import (
	"fmt"

	"github.com/adsight/fbads-mcp/internal/cli/cmd"
	"github.com/spf13/cobra"
)

const appName = "fbads-mcp"

type GlobalFlags struct {
	Profile string
	Output  string
	Debug   bool
}

func Execute() error {
	root := NewRootCommand()
	return root.Execute()
}

func NewRootCommand() *cobra.Command {
	flags := &GlobalFlags{}

	root := &cobra.Command{
		Use:               appName,
		Short:             "Facebook Ads MCP server and CLI",
		Long:              "fbads-mcp exposes Facebook Marketing API entity listing and insights reporting as MCP tools, with a companion CLI for direct use.",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: validateGlobalFlags(flags),
	}

	root.PersistentFlags().StringVar(&flags.Profile, "profile", "", "Config profile name")
	root.PersistentFlags().StringVar(&flags.Output, "output", "json", "Output format: json|jsonl|table|csv")
	root.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")

	runtime := cmd.Runtime{
		Profile: &flags.Profile,
		Output:  &flags.Output,
		Debug:   &flags.Debug,
	}

	root.AddCommand(cmd.NewServeCommand(runtime))
	root.AddCommand(cmd.NewAccountsCommand(runtime))
	root.AddCommand(cmd.NewCampaignsCommand(runtime))
	root.AddCommand(cmd.NewAdSetsCommand(runtime))
	root.AddCommand(cmd.NewAdsCommand(runtime))
	root.AddCommand(cmd.NewInsightsCommand(runtime))
	root.AddCommand(cmd.NewProfileCommand(runtime))

	return root
}

func validateGlobalFlags(flags *GlobalFlags) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		switch flags.Output {
		case "json", "jsonl", "table", "csv":
			return nil
		default:
			return WrapExit(ExitCodeInput, fmt.Errorf("invalid --output value %q; expected json|jsonl|table|csv", flags.Output))
		}
	}
}
