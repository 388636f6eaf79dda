package cmd

import (
	"log/slog"
	"os"

	"github.com/adsight/fbads-mcp/internal/mcpserver"
	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

func NewServeCommand(runtime Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Long:  "Starts an MCP stdio server exposing entity listing and insights tools. Stdout carries the protocol; logs go to stderr.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := loadProfileCredentials(runtime.ProfileName())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if runtime.DebugEnabled() {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			server := mcpserver.New(mcpserver.Options{
				BaseURL:          creds.Profile.BaseURL,
				GraphVersion:     creds.Profile.GraphVersion,
				Token:            creds.Token,
				AppSecret:        creds.AppSecret,
				DefaultAccountID: creds.Profile.DefaultAccountID,
				Version:          Version,
				Logger:           logger,
			})
			return server.Run(cmd.Context())
		},
	}
	return cmd
}
