package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Auth probes and workspace listings run outside the single-flight operation
// slot: they never touch the inflight state and are not cancellable once
// started.

func checkAuth(account Account) (bool, error) {
	cmd := exec.Command("aws",
		"sts", "get-caller-identity",
		"--profile", account.AWSProfile,
		"--output", "json",
	)
	if account.Region != "" {
		cmd.Env = append(os.Environ(),
			"AWS_REGION="+account.Region,
			"AWS_DEFAULT_REGION="+account.Region,
		)
	}

	_, err := cmd.CombinedOutput()
	if err == nil {
		return true, nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return false, nil
	}
	return false, fmt.Errorf("Failed to run aws sts get-caller-identity: %w", err)
}

func fetchWorkspaces(account Account) ([]string, error) {
	if err := validateCompositionForExecution(account); err != nil {
		return nil, err
	}

	cmd := terraformCommand(account, "workspace", "list")
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("terraform workspace list failed for %s: %s",
				account.Name, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("Failed to run terraform workspace list: %w", err)
	}

	return parseWorkspaceOutput(string(out)), nil
}

// spawnAuthCheck probes one account's credentials in the background and, when
// they hold, fetches its workspaces as well. Results arrive as events; the
// caller keeps going immediately.
func spawnAuthCheck(accountIdx int, account Account, events *eventQueue) {
	go func() {
		events.push(AccountAuthUpdate{
			AccountIdx: accountIdx,
			Status:     AuthChecking,
			Message:    fmt.Sprintf("Checking auth for `%s` (profile `%s`)", account.Name, account.AWSProfile),
		})

		authed, err := checkAuth(account)
		switch {
		case err != nil:
			events.push(AccountAuthUpdate{
				AccountIdx: accountIdx,
				Status:     AuthFailed,
				Message:    fmt.Sprintf("Auth check errored for `%s`: %v", account.Name, err),
			})
		case !authed:
			events.push(AccountAuthUpdate{
				AccountIdx: accountIdx,
				Status:     AuthFailed,
				Message:    fmt.Sprintf("No valid AWS session for `%s`", account.Name),
			})
		default:
			events.push(AccountAuthUpdate{
				AccountIdx: accountIdx,
				Status:     AuthAuthenticated,
				Message:    fmt.Sprintf("Credentials valid for `%s`", account.Name),
			})

			workspaces, err := fetchWorkspaces(account)
			if err != nil {
				events.pushLinef("Could not load workspaces for `%s` yet: %v", account.Name, err)
				return
			}
			events.push(WorkspacesLoaded{AccountIdx: accountIdx, Workspaces: workspaces})
		}
	}()
}
