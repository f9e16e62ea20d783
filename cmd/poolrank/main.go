package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "poolrank",
		Short:        "Ranked pool liquidity and price analytics",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	topCmd := &cobra.Command{
		Use:   "top",
		Short: "Rank pools by total value locked",
		RunE:  runTop,
	}
	addEngineFlags(topCmd)
	topCmd.Flags().Int("limit", 10, "number of pools to return (clamped to [1,100])")
	root.AddCommand(topCmd)

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Price a token in a quote currency from its most liquid pool",
		RunE:  runPrice,
	}
	addEngineFlags(priceCmd)
	priceCmd.Flags().String("token", "", "token address to price")
	priceCmd.Flags().String("quote", "", "quote token address")
	root.AddCommand(priceCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "chain RPC URL")
	cmd.Flags().StringSlice("pool", nil, "pool specs pool:base:quote (comma-separated)")
	cmd.Flags().StringSlice("quote-price", nil, "quote USD prices token=price (comma-separated)")
	cmd.Flags().Int("workers", 8, "concurrent per-pool computations")
	cmd.Flags().Duration("timeout", 30*time.Second, "query timeout")
	cmd.Flags().Int("max-retries", 5, "maximum RPC retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial RPC retry backoff")
	cmd.Flags().String("out", "", "optional JSONL path for computed metrics")
	cmd.Flags().String("pg-dsn", "", "optional Postgres DSN for computed metrics")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
