// Package main is the entry point for the forge-flow application.
package main

import (
	"github.com/smartcontractkit/forge-flow/cmd"
)

func main() {
	cmd.Execute()
}
