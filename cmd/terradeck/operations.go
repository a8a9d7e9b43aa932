package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

const busyHint = "Another operation is already running. Press `c` to cancel."

func (app *appState) startAuthLogin() {
	if app.isBusy() {
		app.pushOutput("Another operation is already running.")
		return
	}
	account, ok := app.currentAccount()
	if !ok {
		app.pushOutput("No account selected.")
		return
	}
	accountIdx := app.selectedAccount

	cancel := newCancelCell()
	app.inflight = &inflightOperation{kind: OpAuthLogin, accountIdx: accountIdx, cancel: cancel}
	app.setStatus(fmt.Sprintf("running aws sso login for %s", account.Name))

	events := app.events
	go func() {
		events.pushLinef("Starting AWS SSO login for `%s` (profile `%s`)", account.Name, account.AWSProfile)
		cmd := exec.Command("aws", "sso", "login", "--profile", account.AWSProfile)
		outcome, err := runStreamingCommand(cmd, cancel, events)
		if err != nil {
			events.push(AccountAuthUpdate{
				AccountIdx: accountIdx,
				Status:     AuthFailed,
				Message:    fmt.Sprintf("Failed to run AWS login for `%s`: %v", account.Name, err),
			})
			events.push(OperationFinished{
				Kind:       OpAuthLogin,
				AccountIdx: accountIdx,
				Message:    fmt.Sprintf("AWS login execution failed for `%s`: %v", account.Name, err),
			})
			return
		}
		if !outcome.Success {
			events.push(AccountAuthUpdate{
				AccountIdx: accountIdx,
				Status:     AuthFailed,
				Message:    fmt.Sprintf("AWS login failed for `%s`", account.Name),
			})
			events.push(OperationFinished{
				Kind:       OpAuthLogin,
				AccountIdx: accountIdx,
				Cancelled:  outcome.Cancelled,
				Message:    fmt.Sprintf("AWS login failed for `%s` with exit code %d", account.Name, outcome.ExitCode),
			})
			return
		}

		events.pushLinef("SSO login complete for `%s`. Checking credentials...", account.Name)
		authed, err := checkAuth(account)
		switch {
		case err != nil:
			events.push(AccountAuthUpdate{
				AccountIdx: accountIdx,
				Status:     AuthFailed,
				Message:    fmt.Sprintf("Auth check errored for `%s`: %v", account.Name, err),
			})
			events.push(OperationFinished{
				Kind:       OpAuthLogin,
				AccountIdx: accountIdx,
				Message:    fmt.Sprintf("Auth check errored for `%s`", account.Name),
			})
		case !authed:
			events.push(AccountAuthUpdate{
				AccountIdx: accountIdx,
				Status:     AuthFailed,
				Message:    fmt.Sprintf("Credentials for `%s` are not usable yet", account.Name),
			})
			events.push(OperationFinished{
				Kind:       OpAuthLogin,
				AccountIdx: accountIdx,
				Message:    fmt.Sprintf("Auth check failed for `%s`", account.Name),
			})
		default:
			events.push(AccountAuthUpdate{
				AccountIdx: accountIdx,
				Status:     AuthAuthenticated,
				Message:    fmt.Sprintf("Authenticated to `%s`", account.Name),
			})
			events.pushLinef("Loading workspaces for `%s`...", account.Name)
			workspaces, err := fetchWorkspaces(account)
			if err != nil {
				events.push(OperationFinished{
					Kind:       OpAuthLogin,
					AccountIdx: accountIdx,
					Message:    fmt.Sprintf("Authenticated, but failed to load workspaces for `%s`: %v", account.Name, err),
				})
				return
			}
			events.push(WorkspacesLoaded{AccountIdx: accountIdx, Workspaces: workspaces})
			events.push(OperationFinished{
				Kind:       OpAuthLogin,
				AccountIdx: accountIdx,
				Success:    true,
				Message:    fmt.Sprintf("Auth/login complete for `%s`", account.Name),
			})
		}
	}()
}

func (app *appState) startWorkspaceRefresh() {
	if app.isBusy() {
		app.pushOutput("Another operation is already running.")
		return
	}
	account, ok := app.currentAccount()
	if !ok {
		app.pushOutput("No account selected.")
		return
	}
	if account.Auth != AuthAuthenticated {
		app.pushOutput("Selected account is not authenticated. Press `a` to run AWS SSO login.")
		return
	}
	if err := validateCompositionForExecution(account); err != nil {
		app.pushOutput(fmt.Sprintf("Cannot refresh workspaces for `%s`: %v", account.Name, err))
		app.setStatus("failed")
		return
	}
	accountIdx := app.selectedAccount

	cancel := newCancelCell()
	app.inflight = &inflightOperation{kind: OpRefreshWorkspaces, accountIdx: accountIdx, cancel: cancel}
	app.setStatus(fmt.Sprintf("loading workspaces for %s", account.Name))

	events := app.events
	go func() {
		cmd := terraformCommand(account, "workspace", "list")
		outcome, err := runStreamingCommand(cmd, cancel, events)
		if err != nil {
			events.push(OperationFinished{
				Kind:       OpRefreshWorkspaces,
				AccountIdx: accountIdx,
				Message:    fmt.Sprintf("Workspace refresh command failed for `%s`: %v", account.Name, err),
			})
			return
		}
		if !outcome.Success {
			events.push(OperationFinished{
				Kind:       OpRefreshWorkspaces,
				AccountIdx: accountIdx,
				Cancelled:  outcome.Cancelled,
				Message:    fmt.Sprintf("Workspace refresh command failed for `%s` with exit code %d", account.Name, outcome.ExitCode),
			})
			return
		}

		workspaces, err := fetchWorkspaces(account)
		if err != nil {
			events.push(OperationFinished{
				Kind:       OpRefreshWorkspaces,
				AccountIdx: accountIdx,
				Message:    fmt.Sprintf("Workspace refresh failed for `%s`: %v", account.Name, err),
			})
			return
		}
		events.push(WorkspacesLoaded{AccountIdx: accountIdx, Workspaces: workspaces})
		events.push(OperationFinished{
			Kind:       OpRefreshWorkspaces,
			AccountIdx: accountIdx,
			Success:    true,
			Message:    fmt.Sprintf("Workspace refresh completed for `%s`", account.Name),
		})
	}()
}

func (app *appState) startTerraformOperation(kind OperationKind) {
	if app.isBusy() {
		app.pushOutput("Another operation is already running.")
		return
	}
	account, ok := app.currentAccount()
	if !ok {
		app.pushOutput("No account selected.")
		return
	}
	if account.Auth != AuthAuthenticated {
		app.pushOutput("Selected account is not authenticated. Press `a` first.")
		return
	}
	if err := validateOperationPreflight(account, kind); err != nil {
		app.pushOutput(fmt.Sprintf("Cannot run %s: %v", kind.Label(), err))
		app.setStatus("failed")
		return
	}
	workspace, hasWorkspace := app.selectedWorkspaceName()
	if kind.RequiresWorkspace() && !hasWorkspace {
		app.pushOutput("No workspace selected. Press `r` to load workspaces first.")
		return
	}
	accountIdx := app.selectedAccount

	cancel := newCancelCell()
	app.inflight = &inflightOperation{kind: kind, accountIdx: accountIdx, cancel: cancel}
	app.setStatus(fmt.Sprintf("running %s for %s", kind.Label(), account.Name))

	events := app.events
	go func() {
		outcome, err := runTerraformOperation(kind, account, workspace, cancel, events)
		if err != nil {
			events.push(OperationFinished{
				Kind:       kind,
				AccountIdx: accountIdx,
				Message:    fmt.Sprintf("%s failed for `%s`: %v", kind.Label(), account.Name, err),
			})
			return
		}
		var message string
		switch {
		case outcome.Success:
			message = fmt.Sprintf("%s succeeded for `%s`", kind.Label(), account.Name)
		case outcome.Cancelled:
			message = fmt.Sprintf("%s cancelled for `%s`", kind.Label(), account.Name)
		default:
			message = fmt.Sprintf("%s failed for `%s` with exit code %d", kind.Label(), account.Name, outcome.ExitCode)
		}
		events.push(OperationFinished{
			Kind:       kind,
			AccountIdx: accountIdx,
			Success:    outcome.Success,
			Cancelled:  outcome.Cancelled,
			Message:    message,
		})
	}()
}

func (app *appState) startAuthCheckForSelected() {
	account, ok := app.currentAccount()
	if !ok {
		return
	}
	accountIdx := app.selectedAccount
	if live := app.account(accountIdx); live != nil {
		live.Auth = AuthChecking
	}
	spawnAuthCheck(accountIdx, account, app.events)
}

// runTerraformOperation selects the workspace first when the operation needs
// one, then streams the main command. Workspace select is short-lived and not
// cancellable; only the main command watches the cancel cell.
func runTerraformOperation(kind OperationKind, account Account, workspace string, cancel *cancelCell, events *eventQueue) (RunOutcome, error) {
	if err := validateOperationPreflight(account, kind); err != nil {
		return RunOutcome{}, err
	}

	if kind.RequiresWorkspace() {
		events.pushLinef("Selecting workspace `%s` in `%s`", workspace, account.Name)
		selectCmd := terraformCommand(account, "workspace", "select", workspace)
		var stdout, stderr bytes.Buffer
		selectCmd.Stdout = &stdout
		selectCmd.Stderr = &stderr
		err := selectCmd.Run()
		emitProcessOutput(stdout.Bytes(), events)
		emitProcessOutput(stderr.Bytes(), events)
		if err != nil {
			if _, ok := err.(*exec.ExitError); !ok {
				return RunOutcome{}, fmt.Errorf("Failed to run terraform workspace select: %w", err)
			}
			return RunOutcome{ExitCode: exitCodeOf(err)}, nil
		}
	}

	if (kind == OpTerraformPlan || kind == OpTerraformApply) && len(account.VarFiles) > 0 {
		events.pushLinef("Using var files: %s", strings.Join(account.VarFiles, ", "))
	}

	args, err := terraformArgs(kind, account)
	if err != nil {
		return RunOutcome{}, err
	}
	events.pushLinef("Running `%s` in %s", kind.Label(), account.CompositionPath)
	return runStreamingCommand(terraformCommand(account, args...), cancel, events)
}

func emitProcessOutput(output []byte, events *eventQueue) {
	sc := bufio.NewScanner(bytes.NewReader(output))
	sc.Buffer(make([]byte, 0, 64*1024), maxOutputLineBytes)
	for sc.Scan() {
		events.pushLine(sc.Text())
	}
}
