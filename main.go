package main

import (
	"fmt"
	"os"

	"github.com/projecteru2/cloudagent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cloud-agent: %v\n", err)
		os.Exit(1)
	}
}
