// Package main is the entry point for the sangeet application.
package main

import (
	"github.com/samber/lo"
	"github.com/sangeet-cli/sangeet/cmd"
	"github.com/sangeet-cli/sangeet/config"
	"github.com/sangeet-cli/sangeet/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
