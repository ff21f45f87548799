// Command queststat extracts quest stats from saved result pages and answer logs
package main

import (
	"os"

	"queststat/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
