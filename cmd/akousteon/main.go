package main

import (
	"os"

	"github.com/akousteon/akousteon/internal/cli"
	"github.com/akousteon/akousteon/internal/output"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	return cli.NewRootCmd(&cli.Dependencies{}).Execute()
}
