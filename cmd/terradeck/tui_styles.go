package main

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	colorPrimary   = lipgloss.Color("99")
	colorSecondary = lipgloss.Color("241")
	colorSuccess   = lipgloss.Color("82")
	colorWarning   = lipgloss.Color("214")
	colorError     = lipgloss.Color("196")
	colorHighlight = lipgloss.Color("212")
	colorMuted     = lipgloss.Color("245")
	colorCyan      = lipgloss.Color("86")
	colorBlue      = lipgloss.Color("39")

	// Dashboard styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	panelBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorSecondary)

	panelFocusedBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorCyan)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHighlight)

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	modalStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorCyan).
			Padding(1, 2)

	confirmModalStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorWarning).
				Padding(1, 2)

	// Output line styles
	outputErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	outputWarningStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWarning)
	outputAddStyle     = lipgloss.NewStyle().Foreground(colorSuccess)
	outputChangeStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	outputDestroyStyle = lipgloss.NewStyle().Foreground(colorError)
	outputSummaryStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	outputDoneStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	outputMetaStyle    = lipgloss.NewStyle().Foreground(colorBlue)

	// Status/Doctor styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHighlight).
			MarginTop(1)

	accountNameStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("81"))

	statusOKStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSuccess)

	statusWarnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarning)

	statusErrorStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorError)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	dividerStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	iconOK    = statusOKStyle.Render("✓")
	iconWarn  = statusWarnStyle.Render("!")
	iconError = statusErrorStyle.Render("✗")
)

func authStatusStyle(s AuthStatus) lipgloss.Style {
	switch s {
	case AuthChecking:
		return lipgloss.NewStyle().Foreground(colorWarning)
	case AuthAuthenticated:
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case AuthFailed:
		return lipgloss.NewStyle().Foreground(colorError)
	default:
		return lipgloss.NewStyle().Foreground(colorMuted)
	}
}

// renderOutputLine colors a buffered line the way terraform's own -no-color
// output reads: diff markers by leading rune, summaries and errors by marker
// text. First matching rule wins.
func renderOutputLine(line string) string {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	switch {
	case strings.Contains(trimmed, "Error:"):
		return outputErrorStyle.Render(line)
	case strings.Contains(trimmed, "Warning:"):
		return outputWarningStyle.Render(line)
	case strings.HasPrefix(trimmed, "+"):
		return outputAddStyle.Render(line)
	case strings.HasPrefix(trimmed, "~"):
		return outputChangeStyle.Render(line)
	case strings.HasPrefix(trimmed, "-"):
		return outputDestroyStyle.Render(line)
	case strings.HasPrefix(trimmed, "Plan:"):
		return outputSummaryStyle.Render(line)
	case strings.HasPrefix(trimmed, "Apply complete!"), strings.HasPrefix(trimmed, "No changes."):
		return outputDoneStyle.Render(line)
	case strings.HasPrefix(trimmed, "Running `"), strings.HasPrefix(trimmed, "Using var files:"):
		return outputMetaStyle.Render(line)
	default:
		return line
	}
}

func renderStatusIcon(status string) string {
	switch status {
	case "ready", "ok":
		return iconOK
	case "warn", "warning":
		return iconWarn
	default:
		return iconError
	}
}

func renderDivider(width int) string {
	line := ""
	for i := 0; i < width; i++ {
		line += "─"
	}
	return dividerStyle.Render(line)
}
