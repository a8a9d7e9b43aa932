package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"
)

type doctorCheck struct {
	Name   string
	Status string
	Detail string
}

func runDoctor(args []string) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
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

	checks := doctorChecks(loaded)
	failed := false
	for _, check := range checks {
		if check.Status == "error" {
			failed = true
		}
	}

	if *jsonOut || !isTerminal(os.Stdout) {
		rows := make([]map[string]interface{}, 0, len(checks))
		for _, check := range checks {
			row := map[string]interface{}{
				"name":   check.Name,
				"status": check.Status,
			}
			if check.Detail != "" {
				row["detail"] = check.Detail
			}
			rows = append(rows, row)
		}
		printJSON(map[string]interface{}{
			"config": loaded.Path,
			"checks": rows,
		})
		if failed {
			return 1
		}
		return 0
	}

	renderDoctorPretty(loaded.Path, checks, failed)
	if failed {
		return 1
	}
	return 0
}

// doctorChecks runs every diagnostic concurrently into fixed slots, so the
// report order is stable regardless of which check finishes first. The first
// two slots are the binary checks, then three per account.
func doctorChecks(loaded LoadedConfig) []doctorCheck {
	names := sortedAccountNames(loaded.Config)
	checks := make([]doctorCheck, 2+3*len(names))

	var g errgroup.Group
	g.SetLimit(4)

	g.Go(func() error {
		checks[0] = binaryCheck("terraform")
		return nil
	})
	g.Go(func() error {
		checks[1] = binaryCheck("aws")
		return nil
	})

	for i, name := range names {
		account := loaded.Config.Accounts[name]
		slot := 2 + 3*i
		g.Go(func() error {
			checks[slot] = compositionCheck(name, account, loaded.BaseDir)
			checks[slot+1] = varFilesCheck(name, account, loaded.BaseDir)
			checks[slot+2] = profileCheck(name, account)
			return nil
		})
	}
	_ = g.Wait()

	return checks
}

func binaryCheck(binary string) doctorCheck {
	path, err := exec.LookPath(binary)
	if err != nil {
		return doctorCheck{Name: binary, Status: "error", Detail: "not found on PATH"}
	}
	return doctorCheck{Name: binary, Status: "ok", Detail: path}
}

func compositionCheck(name string, account AccountConfig, baseDir string) doctorCheck {
	checkName := name + " composition_path"
	resolved, err := resolveCompositionPath(baseDir, account.CompositionPath)
	if err != nil {
		return doctorCheck{Name: checkName, Status: "error", Detail: err.Error()}
	}
	return doctorCheck{Name: checkName, Status: "ok", Detail: resolved}
}

var awsRegionPattern = regexp.MustCompile(`^[a-z]{2}(-[a-z0-9]+)+-\d+$`)

func profileCheck(name string, account AccountConfig) doctorCheck {
	checkName := name + " profile"
	if account.Region == "" {
		return doctorCheck{Name: checkName, Status: "ok", Detail: account.AWSProfile}
	}
	if !awsRegionPattern.MatchString(account.Region) {
		return doctorCheck{
			Name:   checkName,
			Status: "warn",
			Detail: fmt.Sprintf("region `%s` does not look like an AWS region", account.Region),
		}
	}
	return doctorCheck{Name: checkName, Status: "ok", Detail: account.AWSProfile + ", " + account.Region}
}

func varFilesCheck(name string, account AccountConfig, baseDir string) doctorCheck {
	checkName := name + " var_files"
	if len(account.VarFiles) == 0 {
		return doctorCheck{Name: checkName, Status: "ok", Detail: "none configured"}
	}

	resolved, err := resolveCompositionPath(baseDir, account.CompositionPath)
	if err != nil {
		return doctorCheck{Name: checkName, Status: "warn", Detail: "not checked: composition path invalid"}
	}

	missing := []string{}
	for _, varFile := range resolveVarFiles(account.VarFiles, resolved) {
		if !pathExists(varFile) {
			missing = append(missing, varFile)
		}
	}
	if len(missing) > 0 {
		return doctorCheck{Name: checkName, Status: "error", Detail: "missing: " + strings.Join(missing, ", ")}
	}
	return doctorCheck{Name: checkName, Status: "ok", Detail: fmt.Sprintf("%d files", len(account.VarFiles))}
}

func renderDoctorPretty(configPath string, checks []doctorCheck, failed bool) {
	var sb strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("🩺 Terradeck Doctor")
	sb.WriteString(title + "\n\n")

	sb.WriteString(labelStyle.Render("Config: ") + pathStyle.Render(configPath) + "\n")
	sb.WriteString(renderDivider(50) + "\n")

	sb.WriteString(sectionStyle.Render("Environment") + "\n")
	for _, check := range checks[:2] {
		sb.WriteString(renderDoctorCheck(check))
	}

	if len(checks) > 2 {
		sb.WriteString(sectionStyle.Render("Accounts") + "\n")
		for _, check := range checks[2:] {
			sb.WriteString(renderDoctorCheck(check))
		}
	}

	sb.WriteString("\n")
	if failed {
		sb.WriteString(statusErrorStyle.Render("Some checks failed") + "\n")
	} else {
		sb.WriteString(statusOKStyle.Render("All checks passed") + "\n")
	}

	fmt.Print(sb.String())
}

func renderDoctorCheck(check doctorCheck) string {
	line := "  " + renderStatusIcon(check.Status) + " " + fmt.Sprintf("%-28s", check.Name)
	if check.Detail != "" {
		line += " " + labelStyle.Render(check.Detail)
	}
	return line + "\n"
}
