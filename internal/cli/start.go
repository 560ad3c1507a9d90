package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Glimpse engine",
	Long:  `Starts the Glimpse playbook engine in the foreground.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Echo explicitly-set flags so daemon logs record how it was launched.
		cmd.Flags().Visit(func(f *pflag.Flag) {
			fmt.Printf("Using flag --%s=%s\n", f.Name, f.Value.String())
		})
		runForeground(getConfigPath())
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
