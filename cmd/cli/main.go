package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crosspay/ledger/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger-cli",
		Short: "Ledger operations CLI",
		Long:  `A command line interface for the ledger API: consistency checks, rate lookups and FX position maintenance.`,
	}

	cmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger integrity operations",
	}
	ledgerCmd.AddCommand(consistencyCmd(), reportCmd())

	cmd.AddCommand(ledgerCmd, rateCmd(), positionsCmd(), migrateCmd())

	return cmd
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	cmd.PersistentFlags().StringVar(&path, "path", "migrations", "Migrations directory")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postgres.RunMigrations(databaseURL, path)
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postgres.RunMigrationsDown(databaseURL, path)
		},
	}

	cmd.AddCommand(up, down)

	return cmd
}

func consistencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check per-currency debit/credit conservation",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getJSON("/api/v1/ledger/consistency")
			if err != nil {
				return err
			}

			var result struct {
				Currencies []struct {
					Currency   string `json:"currency"`
					Consistent bool   `json:"consistent"`
				} `json:"currencies"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			var broken []string
			for _, c := range result.Currencies {
				if !c.Consistent {
					broken = append(broken, c.Currency)
				}
			}

			printJSON(json.RawMessage(body))
			if len(broken) > 0 {
				return fmt.Errorf("conservation violated for: %s", strings.Join(broken, ", "))
			}

			fmt.Println("consistency check PASSED")
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Full consistency report with per-account reconciliation",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getJSON("/api/v1/ledger/report")
			if err != nil {
				return err
			}

			printJSON(json.RawMessage(body))
			return nil
		},
	}
}

func rateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rate <base> <target>",
		Short: "Look up the current exchange rate for a pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getJSON(fmt.Sprintf("/api/v1/rates?base=%s&target=%s",
				strings.ToUpper(args[0]), strings.ToUpper(args[1])))
			if err != nil {
				return err
			}

			printJSON(json.RawMessage(body))
			return nil
		},
	}
}

func positionsCmd() *cobra.Command {
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "positions <owner-id>",
		Short: "Show an owner's FX positions, optionally rebuilding them first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/owners/%s/positions/", args[0])
			if rebuild {
				body, err := postJSON(fmt.Sprintf("/api/v1/owners/%s/positions/rebuild", args[0]))
				if err != nil {
					return err
				}
				printJSON(json.RawMessage(body))
				return nil
			}

			body, err := getJSON(path)
			if err != nil {
				return err
			}

			printJSON(json.RawMessage(body))
			return nil
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Replay conversion history before listing")

	return cmd
}

func getJSON(path string) ([]byte, error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return readResponse(resp)
}

func postJSON(path string) ([]byte, error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return readResponse(resp)
}

func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(out))
}
