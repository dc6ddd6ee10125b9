// Package cmd implements the command-line interface for sangeet.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sangeet-cli/sangeet/catalog"
	"github.com/sangeet-cli/sangeet/color"
	"github.com/sangeet-cli/sangeet/icon"
	"github.com/sangeet-cli/sangeet/quality"
	"github.com/sangeet-cli/sangeet/resilience"
	"github.com/sangeet-cli/sangeet/style"
	"github.com/sangeet-cli/sangeet/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolP("quality", "q", false, "Show the selected stream quality for each result")
	searchCmd.SetOut(os.Stdout)
}

// searchCmd queries the catalog and prints ranked track results.
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog for tracks",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := strings.Join(args, " ")
		showQuality := lo.Must(cmd.Flags().GetBool("quality"))

		client := catalog.NewClient(resilience.NewGovernor())

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		erase := util.PrintErasable(fmt.Sprintf("%s Searching...", icon.Get(icon.Progress)))
		results, err := client.Search(ctx, query)
		erase()
		handleErr(err)

		if len(results) == 0 {
			cmd.Printf("%s no tracks found for %s\n", icon.Get(icon.Fail), style.Fg(color.Yellow)(query))
			return
		}

		cmd.Printf("%s %s\n\n", icon.Get(icon.Note), style.Bold(util.Quantify(len(results), "track", "tracks")))

		for i, track := range results {
			cmd.Printf("%s %s\n", style.Faint(fmt.Sprintf("%2d.", i+1)), track)

			if showQuality {
				decision := quality.Select(track.Audio)
				if decision.Empty() {
					cmd.Printf("    %s\n", style.Fg(color.Red)("no playable source"))
					continue
				}

				label := decision.Tier.String()
				if rate, ok := decision.Bitrate.Get(); ok {
					label = fmt.Sprintf("%s, %d kbps", label, rate)
				}
				cmd.Printf("    %s %s\n", style.Faint(label), style.Faint(decision.Container))
			}
		}
	},
}
