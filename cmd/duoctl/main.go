// Package main is the entry point for the duoctl CLI binary.
package main

import (
	"os"

	cli "duoctl/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
