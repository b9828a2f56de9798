package main

import (
	"os"

	"github.com/firefly-engineering/flatjail/cmd"
	"github.com/firefly-engineering/flatjail/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
