package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glimpse-app/glimpse/internal/config"
	"github.com/glimpse-app/glimpse/internal/store"
)

var listPlaybooksCmd = &cobra.Command{
	Use:   "list-playbooks",
	Short: "List stored playbooks",
	Long:  `Displays a summary of all playbooks in the configured storage directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		db := openStore()
		defer db.Close()

		playbooks, err := db.LoadPlaybooks(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading playbooks: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("--- Playbooks ---")
		if len(playbooks) == 0 {
			fmt.Println("No playbooks stored.")
			return
		}
		for i, pb := range playbooks {
			state := "disabled"
			if pb.Enabled {
				state = "enabled"
			}
			kind := ""
			if pb.IsBuiltin {
				kind = " (built-in)"
			}
			fmt.Printf("[%d] %s%s (%s) [%s]\n", i, pb.Name, kind, pb.ID, state)
			if pb.Description != nil {
				fmt.Printf("    %s\n", *pb.Description)
			}
			fmt.Printf("    Triggers: %d, Actions: %d\n", len(pb.Triggers), len(pb.Actions))
			if pb.CooldownMinutes != nil {
				fmt.Printf("    Cooldown: %d min\n", *pb.CooldownMinutes)
			}
			if pb.MaxExecutionsPerDay != nil {
				fmt.Printf("    Daily limit: %d\n", *pb.MaxExecutionsPerDay)
			}
			fmt.Println("---")
		}
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [playbook-id]",
	Short: "Show recent playbook executions",
	Long:  `Displays recent execution records, optionally limited to one playbook.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		db := openStore()
		defer db.Close()

		playbookID := ""
		if len(args) == 1 {
			playbookID = args[0]
		}

		executions, err := db.ListExecutions(context.Background(), playbookID, 20)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading executions: %v\n", err)
			os.Exit(1)
		}

		if len(executions) == 0 {
			fmt.Println("No executions recorded.")
			return
		}
		for _, exec := range executions {
			fmt.Printf("%s  %s  playbook=%s  status=%s  actions=%d\n",
				exec.StartedAt.Format("2006-01-02 15:04:05"),
				exec.ID, exec.PlaybookID, exec.Status, len(exec.ActionResults))
		}
	},
}

func openStore() *store.Store {
	configPath := getConfigPath()
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration from '%s': %v\n", configPath, err)
		os.Exit(1)
	}
	if cfg.Storage.DataDir == "" {
		fmt.Fprintln(os.Stderr, "Error: storage.data_dir is not configured; nothing is persisted.")
		os.Exit(1)
	}
	db, err := store.Open(cfg.Storage.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	return db
}

func init() {
	rootCmd.AddCommand(listPlaybooksCmd)
	rootCmd.AddCommand(historyCmd)
}
