package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/askorg/internal/config"
	"github.com/kalambet/askorg/internal/format"
	"github.com/kalambet/askorg/internal/storage"
)

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about employees, projects or issues",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || strings.TrimSpace(strings.Join(args, " ")) == "" {
			return errors.New("a question is required")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		local, _ := cmd.Flags().GetBool("local")
		asJSON, _ := cmd.Flags().GetBool("json")

		var (
			resp format.Response
			err  error
		)
		if local {
			resp, err = askLocal(cmd.Context(), question)
		} else {
			var client *apiClient
			if client, err = newAPIClient(); err != nil {
				return err
			}
			resp, err = askRemote(cmd.Context(), client, question)
		}
		if err != nil {
			return err
		}

		if asJSON {
			return printJSON(resp)
		}
		printAnswer(resp)
		return nil
	},
}

func askLocal(ctx context.Context, question string) (format.Response, error) {
	cfg, err := config.Load()
	if err != nil {
		return format.Response{}, err
	}
	setupLogging(cfg.Log.Level)

	a, err := buildApp(ctx, cfg, nil)
	if err != nil {
		return format.Response{}, err
	}
	defer a.Close()
	return a.answerer.Ask(ctx, question)
}

func init() {
	askCmd.Flags().Bool("local", false, "answer in-process instead of calling the server")
	askCmd.Flags().Bool("json", false, "print the full response envelope as JSON")
}

// --- seed ---

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the store contents with a dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if file == "" {
			file = cfg.Storage.SeedFile
		}
		ds, err := loadDataset(file)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		pool, err := storage.Open(ctx, cfg.Storage.Engine, cfg.Storage.DataDir, 1)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer pool.Close()

		var counts storage.SeedCounts
		err = pool.Do(ctx, func(c storage.Conn) error {
			counts, err = storage.Seed(ctx, c, ds)
			return err
		})
		if err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
		printSuccess("Seeded %d employees, %d projects, %d issues", counts.Employees, counts.Projects, counts.Issues)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringP("file", "f", "", "YAML dataset to load (default: built-in sample organization)")
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record counts from the running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		stats, err := fetchStats(cmd.Context(), client)
		if err != nil {
			return err
		}
		printStatus("Employees", "%d", stats.EmployeeCount)
		printStatus("Projects", "%d", stats.ProjectCount)
		printStatus("Issues", "%d", stats.IssueCount)
		return nil
	},
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently answered questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			return fmt.Errorf("--limit must be positive, got %d", limit)
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		records, err := fetchHistory(cmd.Context(), client, limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No questions recorded yet.")
			return nil
		}
		for _, r := range records {
			printHistoryRecord(r)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of records to show")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(os.Stdout, "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(key, value); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
