package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glimpse-app/glimpse/internal/config"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running Glimpse engine",
	Long:  `Stops the running Glimpse process by sending a SIGTERM signal based on the configured PID file.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Stopping Glimpse...")
		configPath := getConfigPath()

		// Load config just to get the PID file path
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration from '%s' to find PID file: %v\n", configPath, err)
			os.Exit(1)
		}

		pidFilePath := cfg.Application.PIDFilePath
		if pidFilePath == "" {
			fmt.Fprintln(os.Stderr, "Error: PID file path not configured in application settings. Cannot stop daemon.")
			os.Exit(1)
		}

		pidBytes, err := os.ReadFile(pidFilePath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Error: PID file not found at '%s'. Is Glimpse running?\n", pidFilePath)
			} else {
				fmt.Fprintf(os.Stderr, "Error reading PID file '%s': %v\n", pidFilePath, err)
			}
			os.Exit(1)
		}

		pid, err := strconv.Atoi(strings.TrimSpace(string(pidBytes)))
		if err != nil || pid <= 0 {
			fmt.Fprintf(os.Stderr, "Error: Invalid PID in file '%s'\n", pidFilePath)
			os.Exit(1)
		}

		process, err := os.FindProcess(pid)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding process with PID %d (from %s): %v. Maybe it already stopped?\n", pid, pidFilePath, err)
			os.Exit(1)
		}

		fmt.Printf("Sending SIGTERM to process with PID %d...\n", pid)
		if err := process.Signal(syscall.SIGTERM); err != nil {
			if errors.Is(err, os.ErrProcessDone) || strings.Contains(err.Error(), "process already finished") {
				fmt.Fprintf(os.Stderr, "Process with PID %d already exited.\n", pid)
				os.Exit(0)
			}
			fmt.Fprintf(os.Stderr, "Error sending SIGTERM to process %d: %v\n", pid, err)
			os.Exit(1)
		}

		fmt.Printf("Signal sent successfully to PID %d. Check logs for shutdown status.\n", pid)
		// PID file is removed by the running process during its graceful shutdown.
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
