package main

import (
	"context"
	"fmt"
	"os"

	"kvadmin/internal/cli"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	root := cli.New(buildVersion())
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "kvadmin: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

func buildVersion() string {
	v := version
	if commit != "" {
		v += " (" + commit + ")"
	}
	if date != "" {
		v += " " + date
	}
	return v
}
