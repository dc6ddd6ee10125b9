// Package cmd implements the command-line interface for sangeet.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/sangeet-cli/sangeet/color"
	"github.com/sangeet-cli/sangeet/constant"
	"github.com/sangeet-cli/sangeet/icon"
	"github.com/sangeet-cli/sangeet/key"
	"github.com/sangeet-cli/sangeet/log"
	"github.com/sangeet-cli/sangeet/style"
	"github.com/sangeet-cli/sangeet/util"
	"github.com/sangeet-cli/sangeet/version"
	"github.com/sangeet-cli/sangeet/where"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., emoji, nerd, plain)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().Bool("logs-write", false, "Write session logs to the localized logs directory")
	lo.Must0(viper.BindPFlag(key.LogsWrite, rootCmd.PersistentFlags().Lookup("logs-write")))

	rootCmd.PersistentFlags().Float64("volume", 1.0, "Initial playback volume, from 0.0 to 1.0")
	lo.Must0(viper.BindPFlag(key.PlayerVolume, rootCmd.PersistentFlags().Lookup("volume")))

	rootCmd.PersistentFlags().BoolP("save-history", "H", true, "Record played tracks in the recently-played registry")
	lo.Must0(viper.BindPFlag(key.HistorySaveOnPlay, rootCmd.PersistentFlags().Lookup("save-history")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// Clear leftover temporary files from previous sessions.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd defines the entry point for the sangeet application.
var rootCmd = &cobra.Command{
	Use:   constant.Sangeet,
	Short: "A terminal playback engine for streaming music",
	Long: style.New().Bold(true).Foreground(color.HiPurple).Render("  "+constant.Sangeet) + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - A terminal playback engine for streaming music"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
