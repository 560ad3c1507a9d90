package cli

import (
	"github.com/spf13/cobra"
)

var (
	// cfgFile holds the path to the config file, bound to the persistent flag
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "glimpse",
	Short: "Glimpse is a playbook automation engine for screen and audio capture",
	Long: `Glimpse watches the events produced by a personal recording setup
(app focus, OCR text, audio transcripts, meeting boundaries, idle state)
and fires user-defined playbooks: notifications, webhooks, tagging,
focus mode, action-item extraction and more.

Run 'glimpse help <command>' for more information on a specific command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "Path to the configuration file")
}

// getConfigPath returns the config file path parsed from the root flag.
func getConfigPath() string {
	return cfgFile
}
