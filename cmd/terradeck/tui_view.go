package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m dashModel) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	status := m.app.currentOperationLabel()
	if m.app.isBusy() {
		status = m.spin.View() + " " + status
	}
	title := titleStyle.Render(" terradeck ") + fmt.Sprintf(
		"| %s | mode: %s | focus: %s",
		status,
		m.app.layoutMode.label(),
		m.app.focusedPanel,
	)

	bodyHeight := height - 3
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	var body string
	if m.app.isOutputOnly() {
		body = m.renderOutputPanel(width, bodyHeight)
	} else {
		accountsWidth := width * 28 / 100
		workspacesWidth := width * 28 / 100
		outputWidth := width - accountsWidth - workspacesWidth
		body = lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.renderAccountsPanel(accountsWidth, bodyHeight),
			m.renderWorkspacesPanel(workspacesWidth, bodyHeight),
			m.renderOutputPanel(outputWidth, bodyHeight),
		)
	}

	if m.app.pendingApplyConfirmation {
		body = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center,
			confirmModalStyle.Render(strings.Join([]string{
				"Apply confirmation",
				"",
				"Press `y` to run terraform apply",
				"Use any navigation key to cancel",
			}, "\n")))
	}

	if m.app.showHelp {
		body = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center,
			modalStyle.Render(strings.Join([]string{
				panelTitleStyle.Foreground(colorCyan).Render("terradeck keybindings"),
				"",
				"Global:",
				"  ?: toggle help   q: quit   Ctrl+C: graceful quit",
				"  c: cancel running command (press again to force kill)",
				"",
				"Layout & Focus:",
				"  z: toggle output fullscreen   Esc: exit fullscreen/help",
				"  Tab/Shift+Tab or h/l: move focus between panels",
				"",
				"Navigation:",
				"  j/k or arrows: move selection   g/G or Home/End: output top/bottom",
				"  PgUp/PgDn or mouse wheel: scroll output",
				"",
				"Actions:",
				"  a: aws sso login   s: auth check   r: refresh workspaces",
				"  i: terraform init   p: terraform plan   A then y: terraform apply",
			}, "\n")))
	}

	var footer string
	if m.app.isOutputOnly() {
		footer = footerStyle.Render("z/esc:exit fullscreen  ?:help  pgup/pgdn g/G mouse:scroll  c:cancel (again=force)  q:quit") +
			"\n" + footerStyle.Render("output-only mode for plan review")
	} else {
		footer = footerStyle.Render("j/k or arrows: move  tab/h/l: panel  z:fullscreen output  ?:help  a:aws login  s:auth check  r:workspaces") +
			"\n" + footerStyle.Render("i:init  p:plan  A then y:apply  c:cancel (again=force)  q:quit  pgup/pgdn g/G/mouse:output scroll")
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, body, footer)
}

func (m dashModel) renderAccountsPanel(width, height int) string {
	var rows []string
	for idx, account := range m.app.accounts {
		cursor := " "
		if idx == m.app.selectedAccount {
			cursor = cursorStyle.Render(">")
		}
		icon := authStatusStyle(account.Auth).Render(account.Auth.Icon())
		rows = append(rows, fmt.Sprintf("%s %s %s [%s]", cursor, icon, account.Name, account.Auth.Label()))
	}
	return renderPanel("Accounts", strings.Join(rows, "\n"), width, height,
		m.app.focusedPanel == panelAccounts)
}

func (m dashModel) renderWorkspacesPanel(width, height int) string {
	var rows []string
	if account := m.app.account(m.app.selectedAccount); account == nil {
		rows = append(rows, "  (no account selected)")
	} else if len(account.Workspaces) == 0 {
		rows = append(rows, "  (no workspaces loaded)")
	} else {
		for idx, workspace := range account.Workspaces {
			cursor := " "
			if idx == m.app.selectedWorkspace {
				cursor = cursorStyle.Render(">")
			}
			rows = append(rows, fmt.Sprintf("%s %s", cursor, workspace))
		}
	}
	return renderPanel("Workspaces", strings.Join(rows, "\n"), width, height,
		m.app.focusedPanel == panelWorkspaces)
}

func (m dashModel) renderOutputPanel(width, height int) string {
	rows := height - 3
	if rows < 1 {
		rows = 1
	}
	visible, fromBottom := m.app.visibleOutputLines(rows)

	rendered := make([]string, 0, len(visible))
	for _, line := range visible {
		rendered = append(rendered, renderOutputLine(line))
	}

	title := "Output"
	if fromBottom > 0 {
		title = fmt.Sprintf("Output (scroll +%d)", fromBottom)
	}
	return renderPanel(title, strings.Join(rendered, "\n"), width, height,
		m.app.focusedPanel == panelOutput)
}

func renderPanel(title, body string, width, height int, focused bool) string {
	style := panelBorderStyle
	if focused {
		style = panelFocusedBorderStyle
	}
	style = style.
		Width(width - 2).
		Height(height - 2).
		MaxWidth(width).
		MaxHeight(height)

	titleLine := panelTitleStyle.Render(title)
	return style.Render(titleLine + "\n" + body)
}
