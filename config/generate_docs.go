//go:build ignore

// Used to generate the config.md file.
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/smartcontractkit/forge-flow/config"
)

func main() {
	var buf bytes.Buffer

	buf.WriteString("# Configuration\n\n")
	buf.WriteString("All config fields for `forge-flow`.\n\nConfig fields are loaded in the following priority order:\n\n")
	buf.WriteString("1. CLI flags\n2. Environment variables\n3. `.env` file\n4. Default values\n\n")
	buf.WriteString("| Env Var | Description | Example | Flag | Short Flag | Type | Default | Required |\n")
	buf.WriteString("|---------|-------------|---------|------|------------|------|---------|----------|\n")

	for _, field := range config.Fields {
		fmt.Fprintf(&buf, "| `%s` | %s | %s | `--%s` | %s | `%s` | %s | %t |\n",
			field.EnvVar,
			field.Description,
			cell(field.Example),
			field.Flag,
			shortFlag(field.ShortFlag),
			field.Type,
			cell(field.Default),
			field.Required,
		)
	}

	err := os.WriteFile("../config.md", buf.Bytes(), 0644)
	if err != nil {
		log.Fatalf("Failed to write to file: %v", err)
	}
	fmt.Println("Generated config.md")
}

func cell(value any) string {
	if value == nil || value == "" {
		return ""
	}
	return fmt.Sprintf("`%v`", value)
}

func shortFlag(flag string) string {
	if flag == "" {
		return ""
	}
	return "`-" + flag + "`"
}
