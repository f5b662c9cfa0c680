// liqboard — Net Liquidity Dashboard
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/liqboard/liqboard/api"
	"github.com/liqboard/liqboard/internal/config"
	"github.com/liqboard/liqboard/internal/fred"
	"github.com/liqboard/liqboard/internal/store"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "liqboard",
	Short: "liqboard — Fed net-liquidity dashboard",
	Long: `liqboard serves a dashboard of US net-liquidity series derived
from the Federal Reserve's H.4.1 release and the Treasury General
Account: Fed balance sheet assets, TGA, reverse repo, lending
facilities, and the combined net-liquidity formula.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("liqboard %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.New()

		// Load the dataset in the background so the server comes up
		// even when the file or URL is slow or missing; endpoints
		// answer 503 until data arrives.
		go func() {
			var err error
			switch {
			case cfg.Data.URL != "":
				ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
				defer cancel()
				err = st.LoadFromURL(ctx, cfg.Data.URL)
			default:
				err = st.LoadFromFile(cfg.Data.Path)
			}
			if err != nil {
				log.Printf("dataset load failed: %v", err)
				return
			}
			log.Printf("dataset loaded (last updated %s)",
				st.Meta().LastUpdated.Format("2006-01-02"))
			if n := len(st.Diagnostics()); n > 0 {
				log.Printf("dataset loaded with %d dropped points", n)
			}
		}()

		noUI, _ := cmd.Flags().GetBool("no-ui")

		srv := api.NewServer(cfg, st)
		if noUI {
			srv.SetServeUI(false)
		}

		addr := cfg.API.Addr()
		fmt.Printf("Starting liqboard API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().Bool("no-ui", false, "disable the embedded web UI")
}

// --- Fetch Command (FRED dataset builder) ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Build the net-liquidity dataset from FRED",
	Long: `Fetch the source series from the FRED API, align them to a daily
grid, compute the net-liquidity formula, and write the dataset JSON to
the configured data path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.FRED.APIKey == "" {
			return fmt.Errorf("FRED API key not configured (set LIQBOARD_FRED_API_KEY or fred.api_key)")
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = cfg.Data.Path
		}

		client := fred.NewClientWithBaseURL(cfg.FRED.APIKey, cfg.FRED.BaseURL)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := client.Ping(ctx); err != nil {
			return fmt.Errorf("FRED API unreachable or key rejected: %w", err)
		}

		fmt.Println("Fetching series from FRED...")
		if err := client.WriteDataset(ctx, out); err != nil {
			return fmt.Errorf("write dataset: %w", err)
		}

		fmt.Printf("Wrote %s\n", out)
		return nil
	},
}

func init() {
	fetchCmd.Flags().String("out", "", "output file path (default: configured data path)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  liqboard — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    API Server:  %s\n", cfg.API.Addr())
		fmt.Printf("    Data Path:   %s\n", cfg.Data.Path)
		if cfg.Data.URL != "" {
			fmt.Printf("    Data URL:    %s\n", cfg.Data.URL)
		}
		fmt.Printf("    FRED API:    %s\n", cfg.FRED.BaseURL)
		fmt.Println()

		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-16s %s\n", k.Name+":", status)
		}

		// Dataset summary if the file is readable.
		if fi, err := os.Stat(cfg.Data.Path); err == nil {
			fmt.Println()
			fmt.Printf("  Dataset:     %s (%d bytes, modified %s)\n",
				cfg.Data.Path, fi.Size(), fi.ModTime().Format("2006-01-02 15:04"))
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
