package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type dashModel struct {
	app    *appState
	spin   spinner.Model
	width  int
	height int
}

func newDashModel(app *appState) dashModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle
	return dashModel{app: app, spin: sp, width: 80, height: 24}
}

func (m dashModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, tickCmd())
}

func (m dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.app.drainEvents()
		if m.app.quitRequested && !m.app.isBusy() {
			return m, tea.Quit
		}
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		m.handleKey(msg)
		if m.app.quitRequested && !m.app.isBusy() {
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m dashModel) handleKey(msg tea.KeyMsg) {
	app := m.app

	if key.Matches(msg, key.NewBinding(key.WithKeys("?"))) {
		app.toggleHelp()
		app.clearApplyConfirmation()
		return
	}

	if app.showHelp {
		if key.Matches(msg, key.NewBinding(key.WithKeys("esc"))) {
			app.closeHelp()
			return
		}
		if !key.Matches(msg, key.NewBinding(key.WithKeys("q", "c", "ctrl+c"))) {
			return
		}
	}

	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
		app.exitOutputOnly()
		app.clearApplyConfirmation()

	case key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))):
		if app.isBusy() {
			app.requestCancel()
		}
		app.quitRequested = true

	case key.Matches(msg, key.NewBinding(key.WithKeys("c"))):
		app.requestCancel()

	case key.Matches(msg, key.NewBinding(key.WithKeys("z"))):
		app.toggleOutputOnly()
		app.clearApplyConfirmation()

	case key.Matches(msg, key.NewBinding(key.WithKeys("tab", "right", "l"))):
		if !app.isOutputOnly() {
			app.focusedPanel = app.focusedPanel.next()
		}

	case key.Matches(msg, key.NewBinding(key.WithKeys("shift+tab", "left", "h"))):
		if !app.isOutputOnly() {
			app.focusedPanel = app.focusedPanel.previous()
		}

	case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
		app.moveSelectionUp()
		app.clearApplyConfirmation()

	case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
		app.moveSelectionDown()
		app.clearApplyConfirmation()

	case key.Matches(msg, key.NewBinding(key.WithKeys("pgup"))):
		if app.focusedPanel == panelOutput {
			app.scrollOutputUp(10)
		}
		app.clearApplyConfirmation()

	case key.Matches(msg, key.NewBinding(key.WithKeys("pgdown"))):
		if app.focusedPanel == panelOutput {
			app.scrollOutputDown(10)
		}
		app.clearApplyConfirmation()

	case key.Matches(msg, key.NewBinding(key.WithKeys("home", "g"))):
		if app.focusedPanel == panelOutput {
			app.scrollOutputToTop()
		}
		app.clearApplyConfirmation()

	case key.Matches(msg, key.NewBinding(key.WithKeys("end", "G"))):
		if app.focusedPanel == panelOutput {
			app.scrollOutputToBottom()
		}
		app.clearApplyConfirmation()

	case key.Matches(msg, key.NewBinding(key.WithKeys("a"))):
		if app.isBusy() {
			app.pushOutput(busyHint)
			return
		}
		app.startAuthLogin()
		app.clearApplyConfirmation()

	case key.Matches(msg, key.NewBinding(key.WithKeys("s"))):
		if app.isBusy() {
			app.pushOutput(busyHint)
			return
		}
		app.startAuthCheckForSelected()
		app.clearApplyConfirmation()

	case key.Matches(msg, key.NewBinding(key.WithKeys("r"))):
		if app.isBusy() {
			app.pushOutput(busyHint)
			return
		}
		app.startWorkspaceRefresh()
		app.clearApplyConfirmation()

	case key.Matches(msg, key.NewBinding(key.WithKeys("i"))):
		if app.isBusy() {
			app.pushOutput(busyHint)
			return
		}
		app.startTerraformOperation(OpTerraformInit)
		app.clearApplyConfirmation()

	case key.Matches(msg, key.NewBinding(key.WithKeys("p"))):
		if app.isBusy() {
			app.pushOutput(busyHint)
			return
		}
		app.startTerraformOperation(OpTerraformPlan)
		app.clearApplyConfirmation()

	case key.Matches(msg, key.NewBinding(key.WithKeys("A"))):
		if app.isBusy() {
			app.pushOutput(busyHint)
			return
		}
		app.pendingApplyConfirmation = true
		app.setStatus("apply confirmation pending: press y to confirm")
		app.pushOutput("Apply requested. Press `y` to confirm apply, any nav key to cancel.")

	case key.Matches(msg, key.NewBinding(key.WithKeys("y"))) && app.pendingApplyConfirmation:
		if app.isBusy() {
			app.pushOutput(busyHint)
			return
		}
		app.startTerraformOperation(OpTerraformApply)

	default:
		app.clearApplyConfirmation()
	}
}

func (m dashModel) handleMouse(msg tea.MouseMsg) {
	if m.app.focusedPanel != panelOutput {
		return
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.app.scrollOutputUp(3)
	case tea.MouseButtonWheelDown:
		m.app.scrollOutputDown(3)
	}
}

func runDashboard(args []string) int {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var configPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")
	if err := fs.Parse(args); err != nil {
		fmt.Println("Invalid flags.")
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println("Unable to read current working directory:", err)
		return 1
	}

	loaded, err := loadConfigFile(cwd, configPath)
	if err != nil {
		fmt.Println("Config error:", err)
		return 1
	}

	app, err := newAppState(loaded)
	if err != nil {
		fmt.Println("Config error:", err)
		return 1
	}
	app.pushOutput(fmt.Sprintf("Loaded config from %s", loaded.Path))

	for idx := range app.accounts {
		spawnAuthCheck(idx, app.accounts[idx], app.events)
	}

	p := tea.NewProgram(newDashModel(app), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Println("TUI error:", err)
		return 1
	}
	return 0
}
