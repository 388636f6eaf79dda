package cmd

import (
	"errors"
	"os"

	"github.com/adsight/fbads-mcp/internal/auth"
	"github.com/adsight/fbads-mcp/internal/config"
	"github.com/adsight/fbads-mcp/internal/graph"
)

type Runtime struct {
	Profile *string
	Output  *string
	Debug   *bool
}

func (r Runtime) ProfileName() string {
	if r.Profile == nil {
		return ""
	}
	return *r.Profile
}

func (r Runtime) OutputFormat() string {
	if r.Output == nil || *r.Output == "" {
		return "json"
	}
	return *r.Output
}

func (r Runtime) DebugEnabled() bool {
	return r.Debug != nil && *r.Debug
}

type ProfileCredentials struct {
	Name      string
	Profile   config.Profile
	Token     string
	AppSecret string
}

// test seam
var loadProfileCredentials = loadProfileCredentialsFromDisk

// loadProfileCredentialsFromDisk resolves the profile and its credentials. A
// missing config file is fine as long as the token comes from the
// environment; a missing token is fatal before any network call.
func loadProfileCredentialsFromDisk(profile string) (*ProfileCredentials, error) {
	configPath, err := config.DefaultPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = config.New()
	}

	name, selected, err := cfg.ResolveProfile(profile)
	if err != nil {
		return nil, err
	}

	store := auth.NewKeychainStore()
	token, err := auth.ResolveToken(store, selected.TokenRef)
	if err != nil {
		return nil, err
	}
	appSecret, err := auth.ResolveAppSecret(store, selected.AppSecretRef)
	if err != nil {
		return nil, err
	}

	return &ProfileCredentials{
		Name:      name,
		Profile:   selected,
		Token:     token,
		AppSecret: appSecret,
	}, nil
}

func newGraphClient(creds *ProfileCredentials) *graph.Client {
	return graph.NewClient(nil, creds.Profile.BaseURL)
}
