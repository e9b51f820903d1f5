package main

import (
	"os"

	"github.com/tkingovr/logbridge/cmd/logbridge/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
