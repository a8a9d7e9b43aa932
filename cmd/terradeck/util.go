package main

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/term"
)

func pathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func printJSON(payload map[string]interface{}) {
	out, _ := json.MarshalIndent(payload, "", "  ")
	fmt.Println(string(out))
}
