// persona builds behavioural trading profiles from broker trade books.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nileshindira/trading-persona/internal/broker/zerodha"
	"github.com/nileshindira/trading-persona/internal/engine"
	"github.com/nileshindira/trading-persona/internal/engine/engineobs"
	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/logger"
	"github.com/nileshindira/trading-persona/internal/report"
	"github.com/nileshindira/trading-persona/internal/summary"
)

var (
	version    = "0.1.0"
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "persona",
		Short: "Trading behaviour analyzer",
		Long: `persona matches a trader's executions into closed positions, computes
performance and risk metrics, and flags behavioural patterns such as
overtrading, revenge trading and pyramiding.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeSystem()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdownSystem()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("persona version %s\n", version)
		},
	}
}

func analyzeCmd() *cobra.Command {
	var (
		trader string
		render bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze one trade book (CSV, HTML or JSON)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, configPath)
			if err != nil {
				return err
			}

			a := initializeApp(ctx, cfg)
			defer a.Close()

			path := args[0]
			if trader == "" {
				trader = engine.TraderName(path)
			}

			res, err := engineobs.Wrap(a.engine).Analyze(ctx, trader, path)
			if err != nil {
				return err
			}

			if render {
				out, err := report.RenderTerminal(res.Report)
				if err != nil {
					logger.Warn(ctx, "Terminal render failed", "error", err)
					out = report.Markdown(res.Report)
				}
				fmt.Println(out)
			}
			for _, o := range res.Outputs {
				fmt.Printf("wrote %s\n", o)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&trader, "trader", "t", "", "Trader name (defaults to the file name without trade_)")
	cmd.Flags().BoolVarP(&render, "print", "p", false, "Render the report in the terminal")
	return cmd
}

func batchCmd() *cobra.Command {
	var dir, pattern string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every trader file in a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, configPath)
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.Batch.DataDir = dir
			}
			if pattern != "" {
				cfg.Batch.Pattern = pattern
			}

			a := initializeApp(ctx, cfg)
			defer a.Close()

			entries, err := engine.Batch(ctx, engineobs.Wrap(a.engine), cfg.Batch.DataDir, cfg.Batch.Pattern, a.runlog)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("no files matching %s in %s", cfg.Batch.Pattern, cfg.Batch.DataDir)
			}

			out := filepath.Join(cfg.Report.OutputDir, cfg.Batch.SummaryFile)
			if err := summary.WriteBatch(out, entries); err != nil {
				return err
			}
			logger.Info(ctx, "Batch summary written", "file", out, "traders", len(entries))
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory of trader files (defaults to batch.data_dir)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob for trader files, ** allowed (defaults to batch.pattern)")
	return cmd
}

func extractCmd() *cobra.Command {
	var client, out string
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Download today's Kite trade book as a raw CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, configPath)
			if err != nil {
				return err
			}

			kc, err := zerodha.NewFromEnv(cfg)
			if err != nil {
				return fmt.Errorf("failed to create kite client: %w", err)
			}
			if out == "" {
				out = filepath.Join(cfg.Batch.DataDir, "trade_"+client+".csv")
			}
			n, err := extractTradeBook(ctx, kc, out)
			if err != nil {
				return err
			}

			logger.Info(ctx, "Trade book extracted", "client", client, "trades", n, "file", out)
			fmt.Printf("wrote %s (%d trades)\n", out, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&client, "client", "kite", "Client id used in the output file name")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (defaults to <batch.data_dir>/trade_<client>.csv)")
	return cmd
}

func extractTradeBook(ctx context.Context, src interfaces.TradeSource, out string) (int, error) {
	records, err := src.TradeBook(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch trade book: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := zerodha.WriteTradeBook(out, records); err != nil {
		return 0, fmt.Errorf("failed to write trade book: %w", err)
	}
	return len(records), nil
}
