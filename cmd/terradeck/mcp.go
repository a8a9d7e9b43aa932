package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type MCPAccountInput struct {
	Account string `json:"account"`
}

func runMCP(args []string) int {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var configPath string
	fs.StringVar(&configPath, "config", "", "config path")
	fs.StringVar(&configPath, "c", "", "config path")
	if err := fs.Parse(args); err != nil {
		fmt.Println("Invalid flags.")
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	loaded, err := loadConfigFile(cwd, configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	accounts, _, err := buildAccounts(loaded.Config, loaded.BaseDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "terradeck-mcp-server",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "list_accounts",
		Description: `List configured AWS accounts.

Returns:
- accounts: name, profile, region, composition_path, var_files per account`,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, map[string]interface{}, error) {
		rows := make([]map[string]interface{}, 0, len(accounts))
		for _, account := range accounts {
			rows = append(rows, map[string]interface{}{
				"name":             account.Name,
				"profile":          account.AWSProfile,
				"region":           account.Region,
				"composition_path": account.CompositionPath,
				"var_files":        account.VarFiles,
			})
		}
		return nil, map[string]interface{}{"accounts": rows}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "auth_status",
		Description: `Check whether an account's AWS credentials are currently valid.

Parameters:
- account (required): Account name from the config`,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input MCPAccountInput) (*mcp.CallToolResult, map[string]interface{}, error) {
		account, err := findAccount(accounts, input.Account)
		if err != nil {
			return nil, nil, err
		}
		authed, err := checkAuth(account)
		if err != nil {
			return nil, nil, err
		}
		return nil, map[string]interface{}{
			"account":       account.Name,
			"authenticated": authed,
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "list_workspaces",
		Description: `List terraform workspaces for an account's composition.

Parameters:
- account (required): Account name from the config`,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input MCPAccountInput) (*mcp.CallToolResult, map[string]interface{}, error) {
		account, err := findAccount(accounts, input.Account)
		if err != nil {
			return nil, nil, err
		}
		workspaces, err := fetchWorkspaces(account)
		if err != nil {
			return nil, nil, err
		}
		return nil, map[string]interface{}{
			"account":    account.Name,
			"workspaces": workspaces,
		}, nil
	})

	transport := mcp.NewStdioTransport()
	session, err := server.Connect(context.Background(), transport, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	if err := session.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

func findAccount(accounts []Account, name string) (Account, error) {
	for _, account := range accounts {
		if account.Name == name {
			return account, nil
		}
	}
	return Account{}, fmt.Errorf("Unknown account: %s", name)
}
