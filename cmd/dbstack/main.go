// Package main provides the dbstack CLI.
package main

import "github.com/mesh-intelligence/dbstack/internal/cli"

func main() {
	cli.Execute()
}
