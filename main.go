package main

import (
	"os"

	"incidents-dashboard/pkg/cli"
)

func main() {
	if err := cli.Run(); err != nil {
		os.Exit(1)
	}
}
