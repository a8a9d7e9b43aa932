package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var configCandidates = []string{"terradeck.yaml", "Config.yaml", "config.yaml"}

const configEnvVar = "TERRADECK_CONFIG"

type Config struct {
	Accounts map[string]AccountConfig `yaml:"accounts"`
}

type AccountConfig struct {
	AWSProfile      string   `yaml:"aws_profile"`
	CompositionPath string   `yaml:"composition_path"`
	Region          string   `yaml:"region,omitempty"`
	VarFiles        []string `yaml:"var_files,omitempty"`
}

type LoadedConfig struct {
	Path    string
	BaseDir string
	Config  Config
}

// Account is the runtime view of one configured AWS account. Workers receive
// a copy; only the UI loop mutates the instance held in appState.
type Account struct {
	Name             string
	AWSProfile       string
	Region           string
	CompositionPath  string
	CompositionIssue string
	VarFiles         []string
	Auth             AuthStatus
	Workspaces       []string
}

func findConfigPath(cwd, explicit string) (string, error) {
	if explicit != "" {
		resolved := explicit
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(cwd, resolved)
		}
		if !pathExists(resolved) {
			return "", fmt.Errorf("Config file does not exist: %s", resolved)
		}
		return resolved, nil
	}

	if env := os.Getenv(configEnvVar); env != "" {
		if !pathExists(env) {
			return "", fmt.Errorf("Config file does not exist: %s", env)
		}
		return env, nil
	}

	for _, candidate := range configCandidates {
		path := filepath.Join(cwd, candidate)
		if pathExists(path) {
			return path, nil
		}
	}

	return "", fmt.Errorf("No config file found. Expected one of: %s", strings.Join(configCandidates, ", "))
}

func loadConfigFile(cwd, explicit string) (LoadedConfig, error) {
	path, err := findConfigPath(cwd, explicit)
	if err != nil {
		return LoadedConfig{}, err
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return LoadedConfig{}, fmt.Errorf("Failed to read config file at %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return LoadedConfig{}, fmt.Errorf("Failed to parse YAML config at %s: %w", path, err)
	}

	for _, name := range sortedAccountNames(cfg) {
		account := cfg.Accounts[name]
		if account.AWSProfile == "" {
			return LoadedConfig{}, fmt.Errorf("Account `%s` is missing aws_profile", name)
		}
		if account.CompositionPath == "" {
			return LoadedConfig{}, fmt.Errorf("Account `%s` is missing composition_path", name)
		}
	}

	return LoadedConfig{
		Path:    path,
		BaseDir: filepath.Dir(path),
		Config:  cfg,
	}, nil
}

func sortedAccountNames(cfg Config) []string {
	names := make([]string, 0, len(cfg.Accounts))
	for name := range cfg.Accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buildAccounts turns the parsed config into runtime accounts, ordered by
// name. A composition path that fails to resolve does not abort startup: the
// account keeps a fallback path plus a recorded issue, and the returned
// warning lines tell the user why execution stays blocked for it.
func buildAccounts(cfg Config, baseDir string) ([]Account, []string, error) {
	if len(cfg.Accounts) == 0 {
		return nil, nil, fmt.Errorf("Config has no accounts. Add at least one account under `accounts:`")
	}

	accounts := make([]Account, 0, len(cfg.Accounts))
	warnings := []string{}

	for _, name := range sortedAccountNames(cfg) {
		accountCfg := cfg.Accounts[name]

		compositionPath, issue := "", ""
		resolved, err := resolveCompositionPath(baseDir, accountCfg.CompositionPath)
		if err != nil {
			fallback := fallbackCompositionPath(baseDir, accountCfg.CompositionPath)
			issue = fmt.Sprintf("composition_path `%s` invalid: %v", accountCfg.CompositionPath, err)
			warnings = append(warnings, fmt.Sprintf("warning: account `%s` %s", name, issue))
			warnings = append(warnings, fmt.Sprintf("warning: using fallback path `%s` so UI can start; execution remains blocked until fixed", fallback))
			compositionPath = fallback
		} else {
			compositionPath = resolved
		}

		accounts = append(accounts, Account{
			Name:             name,
			AWSProfile:       accountCfg.AWSProfile,
			Region:           accountCfg.Region,
			CompositionPath:  compositionPath,
			CompositionIssue: issue,
			VarFiles:         resolveVarFiles(accountCfg.VarFiles, compositionPath),
			Auth:             AuthUnknown,
		})
	}

	return accounts, warnings, nil
}

// resolveCompositionPath resolves a configured composition path relative to
// the config file's directory. Patterns containing glob metacharacters match
// directories only; the lexically first match wins so the selection is stable
// across runs.
func resolveCompositionPath(baseDir, raw string) (string, error) {
	if strings.ContainsAny(raw, "*?[") {
		pattern := raw
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(baseDir, pattern)
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return "", fmt.Errorf("Invalid glob pattern: %s", pattern)
		}

		dirs := []string{}
		for _, match := range matches {
			if info, err := os.Stat(match); err == nil && info.IsDir() {
				dirs = append(dirs, match)
			}
		}
		sort.Strings(dirs)

		if len(dirs) == 0 {
			return "", fmt.Errorf("Path pattern `%s` did not match any directories from %s", raw, baseDir)
		}
		return dirs[0], nil
	}

	path := raw
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("Configured composition_path does not exist: %s", path)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("Configured composition_path is not a directory: %s", path)
	}

	return path, nil
}

func fallbackCompositionPath(baseDir, raw string) string {
	if strings.ContainsAny(raw, "*?[") {
		return baseDir
	}
	if filepath.IsAbs(raw) {
		return raw
	}
	return filepath.Join(baseDir, raw)
}

// resolveVarFiles anchors relative var file paths at the composition
// directory, which is where terraform runs.
func resolveVarFiles(raw []string, compositionPath string) []string {
	if len(raw) == 0 {
		return nil
	}
	resolved := make([]string, 0, len(raw))
	for _, varFile := range raw {
		if filepath.IsAbs(varFile) {
			resolved = append(resolved, varFile)
			continue
		}
		resolved = append(resolved, filepath.Join(compositionPath, varFile))
	}
	return resolved
}
