package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adsight/fbads-mcp/internal/config"
)

func TestProfileSetCreatesConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	name := "prod"
	format := "json"
	debug := false
	runtime := Runtime{Profile: &name, Output: &format, Debug: &debug}

	cmd := NewProfileCommand(runtime)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"set", "--graph-version", "v23.0", "--default-account-id", "123"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("profile set: %v", err)
	}
	if !strings.Contains(out.String(), `profile "prod" saved`) {
		t.Errorf("unexpected output: %s", out.String())
	}

	cfg, err := config.Load(filepath.Join(home, ".fbads", "config.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	profile, ok := cfg.Profiles["prod"]
	if !ok {
		t.Fatal("profile not persisted")
	}
	if profile.GraphVersion != "v23.0" {
		t.Errorf("graph version: %q", profile.GraphVersion)
	}
	if profile.DefaultAccountID != "123" {
		t.Errorf("default account id: %q", profile.DefaultAccountID)
	}
	if profile.TokenRef == "" {
		t.Error("token ref should be seeded for later token storage")
	}
	if cfg.DefaultProfile != "prod" {
		t.Errorf("first profile should become the default, got %q", cfg.DefaultProfile)
	}
}

func TestProfileSetUpdatesExistingProfile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	format := "json"
	debug := false
	runtime := Runtime{Profile: new(string), Output: &format, Debug: &debug}

	run := func(args ...string) {
		t.Helper()
		cmd := NewProfileCommand(runtime)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(args)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("profile %v: %v", args, err)
		}
	}

	run("set", "--default-account-id", "123")
	run("set", "--graph-version", "v24.0")

	cfg, err := config.Load(filepath.Join(home, ".fbads", "config.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	profile := cfg.Profiles["default"]
	if profile.DefaultAccountID != "123" {
		t.Errorf("existing field must survive update, got %q", profile.DefaultAccountID)
	}
	if profile.GraphVersion != "v24.0" {
		t.Errorf("graph version not updated: %q", profile.GraphVersion)
	}
}
