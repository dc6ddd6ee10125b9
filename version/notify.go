// Package version provides application version tracking and update discovery.
package version

import (
	"fmt"

	"github.com/sangeet-cli/sangeet/color"
	"github.com/sangeet-cli/sangeet/constant"
	"github.com/sangeet-cli/sangeet/icon"
	"github.com/sangeet-cli/sangeet/key"
	"github.com/sangeet-cli/sangeet/style"
	"github.com/sangeet-cli/sangeet/util"
	"github.com/spf13/viper"
)

// Notify displays a terminal alert if a more recent stable application version is available.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	version, err := Latest()
	erase()
	if err == nil {
		comp, err := Compare(version, constant.Version)
		if err == nil && comp <= 0 {
			return
		}
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(version),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/sangeet-cli/sangeet/releases/tag/v"+version),
	)
}
