package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const sampleConfig = `accounts:
  dev:
    aws_profile: acme-dev
    composition_path: infra/composition
    region: eu-west-1
    var_files:
      - dev.tfvars
  prod:
    aws_profile: acme-prod
    composition_path: infra/composition
`

func TestFindConfigPathCandidateOrder(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", "accounts: {}\n")
	writeConfig(t, dir, "terradeck.yaml", "accounts: {}\n")

	path, err := findConfigPath(dir, "")
	if err != nil {
		t.Fatalf("findConfigPath: %v", err)
	}
	if filepath.Base(path) != "terradeck.yaml" {
		t.Errorf("expected terradeck.yaml to win, got %s", path)
	}
}

func TestFindConfigPathExplicit(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "custom.yaml", "accounts: {}\n")

	got, err := findConfigPath(dir, "custom.yaml")
	if err != nil {
		t.Fatalf("findConfigPath: %v", err)
	}
	if got != path {
		t.Errorf("expected %s, got %s", path, got)
	}

	_, err = findConfigPath(dir, "missing.yaml")
	if err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
	if !strings.Contains(err.Error(), "Config file does not exist") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFindConfigPathEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := writeConfig(t, dir, "elsewhere.yaml", "accounts: {}\n")
	t.Setenv(configEnvVar, envPath)

	got, err := findConfigPath(t.TempDir(), "")
	if err != nil {
		t.Fatalf("findConfigPath: %v", err)
	}
	if got != envPath {
		t.Errorf("expected env config %s, got %s", envPath, got)
	}
}

func TestFindConfigPathNone(t *testing.T) {
	_, err := findConfigPath(t.TempDir(), "")
	if err == nil {
		t.Fatalf("expected error when no config present")
	}
	if !strings.Contains(err.Error(), "No config file found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "terradeck.yaml", sampleConfig)

	loaded, err := loadConfigFile(dir, "")
	if err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}

	dev, ok := loaded.Config.Accounts["dev"]
	if !ok {
		t.Fatalf("expected dev account")
	}
	if dev.AWSProfile != "acme-dev" {
		t.Errorf("expected aws_profile=acme-dev, got %s", dev.AWSProfile)
	}
	if dev.Region != "eu-west-1" {
		t.Errorf("expected region=eu-west-1, got %s", dev.Region)
	}
	if len(dev.VarFiles) != 1 || dev.VarFiles[0] != "dev.tfvars" {
		t.Errorf("expected var_files=[dev.tfvars], got %v", dev.VarFiles)
	}

	prod := loaded.Config.Accounts["prod"]
	if prod.Region != "" {
		t.Errorf("expected empty region for prod, got %s", prod.Region)
	}
}

func TestLoadConfigFileMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing aws_profile",
			content: `accounts:
  dev:
    composition_path: infra
`,
			wantErr: "missing aws_profile",
		},
		{
			name: "missing composition_path",
			content: `accounts:
  dev:
    aws_profile: acme-dev
`,
			wantErr: "missing composition_path",
		},
		{
			name:    "invalid yaml",
			content: "accounts: [not a map",
			wantErr: "Failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "terradeck.yaml", tt.content)

			_, err := loadConfigFile(dir, "")
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuildAccountsSortedAndResolved(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "infra", "composition"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, dir, "terradeck.yaml", sampleConfig)

	loaded, err := loadConfigFile(dir, "")
	if err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}
	composition := filepath.Join(loaded.BaseDir, "infra", "composition")

	accounts, warnings, err := buildAccounts(loaded.Config, loaded.BaseDir)
	if err != nil {
		t.Fatalf("buildAccounts: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Name != "dev" || accounts[1].Name != "prod" {
		t.Errorf("expected sorted order [dev prod], got [%s %s]", accounts[0].Name, accounts[1].Name)
	}
	if accounts[0].Auth != AuthUnknown {
		t.Errorf("expected AuthUnknown, got %v", accounts[0].Auth)
	}
	if accounts[0].CompositionPath != composition {
		t.Errorf("expected composition %s, got %s", composition, accounts[0].CompositionPath)
	}
	wantVarFile := filepath.Join(composition, "dev.tfvars")
	if len(accounts[0].VarFiles) != 1 || accounts[0].VarFiles[0] != wantVarFile {
		t.Errorf("expected var file %s, got %v", wantVarFile, accounts[0].VarFiles)
	}
}

func TestBuildAccountsEmpty(t *testing.T) {
	_, _, err := buildAccounts(Config{}, t.TempDir())
	if err == nil {
		t.Fatalf("expected error for empty accounts")
	}
	if !strings.Contains(err.Error(), "no accounts") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBuildAccountsFallbackOnBadComposition(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Accounts: map[string]AccountConfig{
		"dev": {AWSProfile: "acme-dev", CompositionPath: "does/not/exist"},
	}}

	accounts, warnings, err := buildAccounts(cfg, dir)
	if err != nil {
		t.Fatalf("buildAccounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}

	account := accounts[0]
	if account.CompositionIssue == "" {
		t.Errorf("expected composition issue to be recorded")
	}
	wantFallback := filepath.Join(dir, "does/not/exist")
	if account.CompositionPath != wantFallback {
		t.Errorf("expected fallback path %s, got %s", wantFallback, account.CompositionPath)
	}

	if len(warnings) != 2 {
		t.Fatalf("expected 2 warning lines, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "account `dev`") {
		t.Errorf("unexpected first warning: %s", warnings[0])
	}
	if !strings.Contains(warnings[1], "fallback path") {
		t.Errorf("unexpected second warning: %s", warnings[1])
	}
}

func TestResolveCompositionPathGlob(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"envs/alpha", "envs/beta"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	// A matching file must be ignored in favor of directories.
	if err := os.WriteFile(filepath.Join(dir, "envs", "aaa"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := resolveCompositionPath(dir, "envs/*")
	if err != nil {
		t.Fatalf("resolveCompositionPath: %v", err)
	}
	if got != filepath.Join(dir, "envs", "alpha") {
		t.Errorf("expected first directory match, got %s", got)
	}

	_, err = resolveCompositionPath(dir, "missing/*")
	if err == nil {
		t.Fatalf("expected error for unmatched pattern")
	}
	if !strings.Contains(err.Error(), "did not match any directories") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestResolveCompositionPathPlain(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "stack")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	file := filepath.Join(dir, "file.tf")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := resolveCompositionPath(dir, "stack")
	if err != nil {
		t.Fatalf("resolveCompositionPath: %v", err)
	}
	if got != sub {
		t.Errorf("expected %s, got %s", sub, got)
	}

	if _, err := resolveCompositionPath(dir, "nope"); err == nil {
		t.Errorf("expected error for missing path")
	}
	_, err = resolveCompositionPath(dir, "file.tf")
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("expected not-a-directory error, got %v", err)
	}
}

func TestResolveVarFiles(t *testing.T) {
	composition := t.TempDir()

	got := resolveVarFiles([]string{"dev.tfvars", "/abs/common.tfvars"}, composition)
	if len(got) != 2 {
		t.Fatalf("expected 2 var files, got %d", len(got))
	}
	if got[0] != filepath.Join(composition, "dev.tfvars") {
		t.Errorf("expected relative var file joined to composition, got %s", got[0])
	}
	if got[1] != "/abs/common.tfvars" {
		t.Errorf("expected absolute var file kept, got %s", got[1])
	}

	if resolveVarFiles(nil, composition) != nil {
		t.Errorf("expected nil for empty var files")
	}
}
