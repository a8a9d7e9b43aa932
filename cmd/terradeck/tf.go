package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// terraformCommand builds a terraform invocation rooted at the account's
// composition directory, with the account's AWS environment layered on top of
// the inherited one.
func terraformCommand(account Account, args ...string) *exec.Cmd {
	cmd := exec.Command("terraform", args...)
	cmd.Dir = account.CompositionPath
	cmd.Env = append(os.Environ(),
		"AWS_PROFILE="+account.AWSProfile,
		"AWS_SDK_LOAD_CONFIG=1",
		"TF_IN_AUTOMATION=1",
	)
	if account.Region != "" {
		cmd.Env = append(cmd.Env,
			"AWS_REGION="+account.Region,
			"AWS_DEFAULT_REGION="+account.Region,
		)
	}
	return cmd
}

func terraformArgs(kind OperationKind, account Account) ([]string, error) {
	switch kind {
	case OpTerraformInit:
		return []string{"init", "-input=false", "-no-color"}, nil
	case OpTerraformPlan:
		args := []string{"plan", "-input=false", "-no-color"}
		return append(args, varFileArgs(account.VarFiles)...), nil
	case OpTerraformApply:
		args := []string{"apply", "-input=false", "-no-color", "-auto-approve"}
		return append(args, varFileArgs(account.VarFiles)...), nil
	default:
		return nil, fmt.Errorf("Unsupported terraform operation for runner: %s", kind.Label())
	}
}

func varFileArgs(varFiles []string) []string {
	args := make([]string, 0, len(varFiles))
	for _, varFile := range varFiles {
		args = append(args, "-var-file="+varFile)
	}
	return args
}

// parseWorkspaceOutput turns `terraform workspace list` output into workspace
// names: the `*` marker on the active workspace is stripped and blank lines
// are dropped.
func parseWorkspaceOutput(output string) []string {
	workspaces := []string{}
	for _, line := range strings.Split(output, "\n") {
		cleaned := strings.TrimSpace(line)
		cleaned = strings.TrimLeft(cleaned, "*")
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == "" {
			continue
		}
		workspaces = append(workspaces, cleaned)
	}
	return workspaces
}

func validateCompositionForExecution(account Account) error {
	if account.CompositionIssue != "" {
		return fmt.Errorf("Account `%s` configuration is invalid: %s", account.Name, account.CompositionIssue)
	}

	info, err := os.Stat(account.CompositionPath)
	if err != nil {
		return fmt.Errorf("composition_path does not exist for `%s`: %s", account.Name, account.CompositionPath)
	}
	if !info.IsDir() {
		return fmt.Errorf("composition_path is not a directory for `%s`: %s", account.Name, account.CompositionPath)
	}

	return nil
}

func validateVarFilesForExecution(account Account) error {
	missing := []string{}
	for _, varFile := range account.VarFiles {
		if !pathExists(varFile) {
			missing = append(missing, varFile)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("Configured var_files are missing for `%s`: %s", account.Name, strings.Join(missing, ", "))
	}
	return nil
}

func validateOperationPreflight(account Account, kind OperationKind) error {
	if err := validateCompositionForExecution(account); err != nil {
		return err
	}
	if (kind == OpTerraformPlan || kind == OpTerraformApply) && len(account.VarFiles) > 0 {
		return validateVarFilesForExecution(account)
	}
	return nil
}
