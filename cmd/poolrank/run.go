package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolRank/internal/chain"
	"poolRank/internal/config"
	"poolRank/internal/metrics"
	"poolRank/internal/model"
	"poolRank/internal/provider"
	"poolRank/internal/query"
	"poolRank/internal/storage"
	"poolRank/internal/storage/postgres"
	"poolRank/internal/trace"
)

// engine bundles the wired query pipeline and its external collaborators.
type engine struct {
	dispatcher  *query.Dispatcher
	sinks       []storage.MetricsSink
	chainClient *chain.Client
	pgStore     *postgres.Store
	logger      *zap.Logger
}

func (e *engine) Close() {
	if e.pgStore != nil {
		e.pgStore.Close()
	}
	if e.chainClient != nil {
		e.chainClient.Close()
	}
}

func buildEngine(ctx context.Context, cfg config.Config, logger *zap.Logger) (*engine, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if len(cfg.Pools) == 0 {
		return nil, fmt.Errorf("at least one pool spec is required")
	}

	specs, err := provider.ParsePoolSpecs(cfg.Pools)
	if err != nil {
		return nil, err
	}
	prices, err := provider.ParseQuotePrices(cfg.QuotePrices)
	if err != nil {
		return nil, err
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	e := &engine{chainClient: chainClient, logger: logger}

	source := provider.NewChainProvider(provider.Config{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, chainClient, specs, logger)
	pricer := provider.NewStaticPricer(prices)
	calc := metrics.NewCalculator(pricer, cfg.Workers, logger)

	dispatcher, err := query.NewDispatcher(logger,
		query.NewTopPoolsHandler(source, calc, logger),
		query.NewTokenPriceHandler(source, calc, logger),
	)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.dispatcher = dispatcher

	if cfg.Out != "" {
		e.sinks = append(e.sinks, storage.NewJsonlSink(cfg.Out))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		e.pgStore = store
		e.sinks = append(e.sinks, store)
	}

	return e, nil
}

func runTop(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	limit, _ := cmd.Flags().GetInt("limit")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	e, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx = trace.WithID(ctx, trace.NewID())

	logger.Info("top pools query",
		zap.Int("limit", limit),
		zap.Int("pools", len(cfg.Pools)),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		trace.Field(ctx),
	)

	resp := e.dispatcher.Dispatch(ctx, query.TopPoolsQuery{Limit: limit})
	if err := printResponse(resp); err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%s: %s", resp.Failure.Kind, resp.Failure.Message)
	}

	if ranked, ok := resp.Data.([]model.LiquidityMetrics); ok {
		e.persist(ctx, ranked)
	}
	return nil
}

func runPrice(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tokenStr, _ := cmd.Flags().GetString("token")
	quoteStr, _ := cmd.Flags().GetString("quote")
	if !common.IsHexAddress(tokenStr) {
		return fmt.Errorf("invalid token address: %q", tokenStr)
	}
	if !common.IsHexAddress(quoteStr) {
		return fmt.Errorf("invalid quote address: %q", quoteStr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	e, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx = trace.WithID(ctx, trace.NewID())

	logger.Info("token price query",
		zap.String("token", tokenStr),
		zap.String("quote", quoteStr),
		trace.Field(ctx),
	)

	resp := e.dispatcher.Dispatch(ctx, query.TokenPriceQuery{
		Token: common.HexToAddress(tokenStr),
		Quote: common.HexToAddress(quoteStr),
	})
	if err := printResponse(resp); err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%s: %s", resp.Failure.Kind, resp.Failure.Message)
	}

	if price, ok := resp.Data.(model.TokenPriceResponse); ok {
		e.persist(ctx, []model.LiquidityMetrics{{
			TokenAddress:      price.TokenAddress,
			QuoteTokenAddress: price.QuoteTokenAddress,
			QuoteTokenSymbol:  price.QuoteTokenSymbol,
			Price:             price.Price,
			PriceUSD:          price.PriceUSD,
			PoolAddress:       price.PoolAddress,
			Liquidity:         price.Liquidity,
			Timestamp:         price.Timestamp,
		}})
	}
	return nil
}

func printResponse(resp query.Response) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// persist writes metrics to the configured sinks. Sink failures are logged,
// not fatal: the query result has already been returned.
func (e *engine) persist(ctx context.Context, batch []model.LiquidityMetrics) {
	for _, sink := range e.sinks {
		if err := sink.PutMetricsBatch(ctx, batch); err != nil {
			e.logger.Warn("persist metrics", zap.Error(err), trace.Field(ctx))
		}
	}
}
