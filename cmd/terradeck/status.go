package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"
)

type accountProbe struct {
	account    Account
	authed     bool
	probeErr   error
	workspaces []string
	wsErr      error
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var configPath string
	fs.StringVar(&configPath, "config", "", "config path")
	fs.StringVar(&configPath, "c", "", "config path")
	jsonOut := fs.Bool("json", false, "output JSON")
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
		fmt.Println("Config error:", err.Error())
		return 1
	}
	accounts, _, err := buildAccounts(loaded.Config, loaded.BaseDir)
	if err != nil {
		fmt.Println("Config error:", err.Error())
		return 1
	}

	probes := probeAccounts(accounts)
	payload, ok := statusPayload(loaded.Path, probes)

	if *jsonOut || !isTerminal(os.Stdout) {
		printJSON(payload)
		if ok {
			return 0
		}
		return 1
	}

	renderStatusPretty(payload, ok)
	if ok {
		return 0
	}
	return 1
}

// probeAccounts checks credentials for every account concurrently, a few at a
// time. Workspaces are only fetched for accounts whose credentials hold.
func probeAccounts(accounts []Account) []accountProbe {
	probes := make([]accountProbe, len(accounts))

	var g errgroup.Group
	g.SetLimit(4)
	for idx, account := range accounts {
		g.Go(func() error {
			probe := accountProbe{account: account}
			probe.authed, probe.probeErr = checkAuth(account)
			if probe.authed && probe.probeErr == nil {
				probe.workspaces, probe.wsErr = fetchWorkspaces(account)
			}
			probes[idx] = probe
			return nil
		})
	}
	_ = g.Wait()

	return probes
}

func statusPayload(configPath string, probes []accountProbe) (map[string]interface{}, bool) {
	ok := true
	rows := make([]map[string]interface{}, 0, len(probes))
	for _, probe := range probes {
		status := "ready"
		detail := ""
		switch {
		case probe.probeErr != nil:
			status = "error"
			detail = probe.probeErr.Error()
			ok = false
		case !probe.authed:
			status = "not_ready"
			detail = "no valid AWS session"
			ok = false
		case probe.wsErr != nil:
			status = "warn"
			detail = probe.wsErr.Error()
		}

		row := map[string]interface{}{
			"account":    probe.account.Name,
			"profile":    probe.account.AWSProfile,
			"status":     status,
			"workspaces": len(probe.workspaces),
		}
		if detail != "" {
			row["detail"] = detail
		}
		rows = append(rows, row)
	}

	return map[string]interface{}{
		"config":   configPath,
		"accounts": rows,
	}, ok
}

func renderStatusPretty(payload map[string]interface{}, allOK bool) {
	var sb strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("Terradeck Status")
	sb.WriteString(title + "\n\n")

	configPath, _ := payload["config"].(string)
	sb.WriteString(labelStyle.Render("Config: ") + pathStyle.Render(configPath) + "\n\n")

	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Accounts") + "\n")
	sb.WriteString(renderDivider(50) + "\n")

	accounts, _ := payload["accounts"].([]map[string]interface{})
	for _, row := range accounts {
		name, _ := row["account"].(string)
		profile, _ := row["profile"].(string)
		status, _ := row["status"].(string)
		workspaces, _ := row["workspaces"].(int)
		detail, _ := row["detail"].(string)

		icon := renderStatusIcon(status)
		namePart := fmt.Sprintf("%-20s", name)
		profilePart := fmt.Sprintf("%-16s", profile)

		line := fmt.Sprintf("%s %s %s %s",
			icon,
			accountNameStyle.Render(namePart),
			valueStyle.Render(profilePart),
			valueStyle.Render(fmt.Sprintf("%d workspaces", workspaces)))

		if detail != "" {
			line += " " + lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Render("["+detail+"]")
		}

		sb.WriteString(line + "\n")
	}

	sb.WriteString("\n")
	if allOK {
		sb.WriteString(statusOKStyle.Render("All accounts ready") + "\n")
	} else {
		sb.WriteString(statusErrorStyle.Render("Some issues detected") + "\n")
	}

	fmt.Print(sb.String())
}
