package main

import (
	"fmt"
	"math"
	"sort"
)

const outputBufferLimit = 4000

type focusPanel int

const (
	panelAccounts focusPanel = iota
	panelWorkspaces
	panelOutput
)

func (p focusPanel) next() focusPanel {
	switch p {
	case panelAccounts:
		return panelWorkspaces
	case panelWorkspaces:
		return panelOutput
	default:
		return panelAccounts
	}
}

func (p focusPanel) previous() focusPanel {
	switch p {
	case panelAccounts:
		return panelOutput
	case panelWorkspaces:
		return panelAccounts
	default:
		return panelWorkspaces
	}
}

func (p focusPanel) String() string {
	switch p {
	case panelAccounts:
		return "Accounts"
	case panelWorkspaces:
		return "Workspaces"
	default:
		return "Output"
	}
}

type layoutMode int

const (
	layoutSplit layoutMode = iota
	layoutOutputOnly
)

func (m layoutMode) label() string {
	if m == layoutOutputOnly {
		return "output"
	}
	return "split"
}

// appState is the single owner of all dashboard state. Only the UI loop
// touches it; background workers talk to it through the event queue.
type appState struct {
	accounts           []Account
	selectedAccount    int
	selectedWorkspace  int
	focusedPanel       focusPanel
	previousFocusPanel focusPanel
	layoutMode         layoutMode

	outputLines            []string
	outputScrollFromBottom int
	statusLine             string

	inflight                 *inflightOperation
	pendingApplyConfirmation bool
	showHelp                 bool
	quitRequested            bool

	events *eventQueue
}

func newAppState(loaded LoadedConfig) (*appState, error) {
	accounts, warnings, err := buildAccounts(loaded.Config, loaded.BaseDir)
	if err != nil {
		return nil, err
	}

	lines := []string{"terradeck ready. Press `a` to authenticate selected account."}
	lines = append(lines, warnings...)

	return &appState{
		accounts:           accounts,
		focusedPanel:       panelAccounts,
		previousFocusPanel: panelAccounts,
		layoutMode:         layoutSplit,
		outputLines:        lines,
		statusLine:         "idle",
		events:             newEventQueue(),
	}, nil
}

func (app *appState) account(idx int) *Account {
	if idx < 0 || idx >= len(app.accounts) {
		return nil
	}
	return &app.accounts[idx]
}

func (app *appState) currentAccount() (Account, bool) {
	if account := app.account(app.selectedAccount); account != nil {
		return *account, true
	}
	return Account{}, false
}

func (app *appState) selectedWorkspaceName() (string, bool) {
	account := app.account(app.selectedAccount)
	if account == nil || app.selectedWorkspace >= len(account.Workspaces) {
		return "", false
	}
	return account.Workspaces[app.selectedWorkspace], true
}

func (app *appState) currentOperationLabel() string {
	if app.inflight == nil {
		return app.statusLine
	}
	accountName := "?"
	if account := app.account(app.inflight.accountIdx); account != nil {
		accountName = account.Name
	}
	return fmt.Sprintf("running %s on %s", app.inflight.kind.Label(), accountName)
}

func (app *appState) isBusy() bool {
	return app.inflight != nil
}

func (app *appState) pushOutput(line string) {
	app.outputLines = append(app.outputLines, line)
	if len(app.outputLines) > outputBufferLimit {
		app.outputLines = app.outputLines[len(app.outputLines)-outputBufferLimit:]
	}
}

func (app *appState) setStatus(status string) {
	app.statusLine = status
}

func (app *appState) clearApplyConfirmation() {
	app.pendingApplyConfirmation = false
}

func (app *appState) toggleHelp() {
	app.showHelp = !app.showHelp
}

func (app *appState) closeHelp() {
	app.showHelp = false
}

// requestCancel escalates one stage per call: first a graceful SIGINT so
// terraform can release its state lock, then a force kill, then nothing but a
// reminder. The stage moves forward only, so each signal fires exactly once.
func (app *appState) requestCancel() {
	op := app.inflight
	if op == nil {
		return
	}
	switch op.cancelStage {
	case StageNone:
		op.cancel.set(CancelGraceful)
		op.cancelStage = StageGracefulRequested
		app.pushOutput("Graceful cancel requested. Sending SIGINT and waiting for Terraform to clean up state lock...")
		app.pushOutput("Press `c` again to force kill if absolutely necessary.")
		app.setStatus("cancelling (graceful)...")
	case StageGracefulRequested:
		op.cancel.set(CancelForce)
		op.cancelStage = StageForceRequested
		app.pushOutput("Force kill requested. This may leave Terraform state locked.")
		app.setStatus("cancelling (forced)...")
	case StageForceRequested:
		app.pushOutput("Force kill already requested. Waiting for process to exit...")
	}
}

func (app *appState) isOutputOnly() bool {
	return app.layoutMode == layoutOutputOnly
}

func (app *appState) enterOutputOnly() {
	if app.layoutMode == layoutSplit {
		app.previousFocusPanel = app.focusedPanel
	}
	app.layoutMode = layoutOutputOnly
	app.focusedPanel = panelOutput
}

func (app *appState) exitOutputOnly() {
	if app.layoutMode == layoutSplit {
		return
	}
	app.layoutMode = layoutSplit
	app.focusedPanel = app.previousFocusPanel
}

func (app *appState) toggleOutputOnly() {
	if app.isOutputOnly() {
		app.exitOutputOnly()
	} else {
		app.enterOutputOnly()
	}
}

func (app *appState) moveSelectionUp() {
	switch app.focusedPanel {
	case panelAccounts:
		if app.selectedAccount > 0 {
			app.selectedAccount--
			app.selectedWorkspace = 0
		}
	case panelWorkspaces:
		if app.selectedWorkspace > 0 {
			app.selectedWorkspace--
		}
	case panelOutput:
		app.scrollOutputUp(1)
	}
}

func (app *appState) moveSelectionDown() {
	switch app.focusedPanel {
	case panelAccounts:
		if app.selectedAccount < len(app.accounts)-1 {
			app.selectedAccount++
			app.selectedWorkspace = 0
		}
	case panelWorkspaces:
		if account := app.account(app.selectedAccount); account != nil {
			if app.selectedWorkspace < len(account.Workspaces)-1 {
				app.selectedWorkspace++
			}
		}
	case panelOutput:
		app.scrollOutputDown(1)
	}
}

func (app *appState) scrollOutputUp(n int) {
	if app.outputScrollFromBottom > math.MaxInt-n {
		app.outputScrollFromBottom = math.MaxInt
		return
	}
	app.outputScrollFromBottom += n
}

func (app *appState) scrollOutputDown(n int) {
	if app.outputScrollFromBottom < n {
		app.outputScrollFromBottom = 0
		return
	}
	app.outputScrollFromBottom -= n
}

func (app *appState) scrollOutputToTop() {
	app.outputScrollFromBottom = math.MaxInt
}

func (app *appState) scrollOutputToBottom() {
	app.outputScrollFromBottom = 0
}

// visibleOutputLines returns the window of buffered output for a panel with
// the given number of rows, plus the clamped scroll offset actually applied.
// An offset of zero keeps the view pinned to the newest line.
func (app *appState) visibleOutputLines(rows int) ([]string, int) {
	if rows < 1 {
		rows = 1
	}
	total := len(app.outputLines)
	maxScroll := total - rows
	if maxScroll < 0 {
		maxScroll = 0
	}

	fromBottom := app.outputScrollFromBottom
	if fromBottom > maxScroll {
		fromBottom = maxScroll
	}

	end := total - fromBottom
	start := end - rows
	if start < 0 {
		start = 0
	}
	return app.outputLines[start:end], fromBottom
}

func (app *appState) drainEvents() {
	for _, ev := range app.events.drain() {
		app.applyEvent(ev)
	}
}

// applyEvent folds one worker event into the state. Events may describe
// accounts or operations that no longer match the current state (a stale
// completion after the slot moved on); those update nothing beyond the log.
func (app *appState) applyEvent(ev WorkerEvent) {
	switch ev := ev.(type) {
	case OutputLine:
		app.pushOutput(ev.Line)

	case AccountAuthUpdate:
		if account := app.account(ev.AccountIdx); account != nil {
			account.Auth = ev.Status
		}
		app.pushOutput(ev.Message)

	case WorkspacesLoaded:
		workspaces := append([]string(nil), ev.Workspaces...)
		sort.Strings(workspaces)
		if account := app.account(ev.AccountIdx); account != nil {
			account.Workspaces = workspaces
			if len(workspaces) == 0 {
				app.pushOutput(fmt.Sprintf("No workspaces found for `%s`", account.Name))
			} else {
				app.pushOutput(fmt.Sprintf("Loaded %d workspaces for `%s`", len(workspaces), account.Name))
			}
		}
		if ev.AccountIdx == app.selectedAccount {
			app.selectedWorkspace = 0
		}

	case OperationFinished:
		app.pushOutput(ev.Message)
		app.clearApplyConfirmation()

		if op := app.inflight; op != nil && op.kind == ev.Kind && op.accountIdx == ev.AccountIdx {
			app.inflight = nil
		}

		switch {
		case ev.Cancelled:
			app.setStatus("cancelled")
		case ev.Success:
			app.setStatus("idle")
		default:
			app.setStatus("failed")
		}
	}
}
