package main

import (
	"os"

	"github.com/creditdesk/creditdesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
