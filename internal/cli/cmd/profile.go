package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/adsight/fbads-mcp/internal/auth"
	"github.com/adsight/fbads-mcp/internal/config"
	"github.com/spf13/cobra"
)

func NewProfileCommand(runtime Runtime) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage config profiles and stored credentials",
	}
	profileCmd.AddCommand(newProfileSetCommand(runtime))
	profileCmd.AddCommand(newProfileTokenCommand(runtime))
	return profileCmd
}

func newProfileSetCommand(runtime Runtime) *cobra.Command {
	var (
		graphVersion     string
		baseURL          string
		defaultAccountID string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update a profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := runtime.ProfileName()
			if name == "" {
				name = "default"
			}

			configPath, err := config.DefaultPath()
			if err != nil {
				return err
			}
			cfg, err := config.LoadOrCreate(configPath)
			if err != nil {
				return err
			}

			profile := cfg.Profiles[name]
			if graphVersion != "" {
				profile.GraphVersion = graphVersion
			}
			if baseURL != "" {
				profile.BaseURL = baseURL
			}
			if defaultAccountID != "" {
				profile.DefaultAccountID = defaultAccountID
			}
			if profile.TokenRef == "" {
				ref, err := auth.SecretRef(name, auth.SecretToken)
				if err != nil {
					return err
				}
				profile.TokenRef = ref
			}

			if err := cfg.UpsertProfile(name, profile); err != nil {
				return err
			}
			if err := config.Save(configPath, cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "profile %q saved to %s\n", name, configPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&graphVersion, "graph-version", "", "Graph API version (for example v23.0)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Graph API base URL override")
	cmd.Flags().StringVar(&defaultAccountID, "default-account-id", "", "Account id used when commands omit --account-id")
	return cmd
}

// newProfileTokenCommand stores an access token in the OS keychain. The token
// is read from stdin so it never lands in shell history.
func newProfileTokenCommand(runtime Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Store an access token in the OS keychain (reads one line from stdin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := runtime.ProfileName()
			if name == "" {
				name = "default"
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return err
				}
				return errors.New("no token on stdin")
			}
			token := strings.TrimSpace(scanner.Text())
			if token == "" {
				return errors.New("token cannot be empty")
			}

			ref, err := auth.SecretRef(name, auth.SecretToken)
			if err != nil {
				return err
			}
			if err := auth.NewKeychainStore().Set(ref, token); err != nil {
				return err
			}

			configPath, err := config.DefaultPath()
			if err != nil {
				return err
			}
			cfg, err := config.LoadOrCreate(configPath)
			if err != nil {
				return err
			}
			profile := cfg.Profiles[name]
			profile.TokenRef = ref
			if err := cfg.UpsertProfile(name, profile); err != nil {
				return err
			}
			if err := config.Save(configPath, cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "token stored for profile %q\n", name)
			return nil
		},
	}
	return cmd
}
