// Package main provides the specboard binary entry point.
package main

import (
	// Register generation providers via init()
	_ "github.com/specboard/specboard/generation/providers"

	"github.com/specboard/specboard/commands"
)

func main() {
	commands.Execute()
}
