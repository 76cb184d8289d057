package main

import (
	"fmt"
	"os"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/interfaces/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
