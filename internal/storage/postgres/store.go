package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolRank/internal/model"
)

// Store provides Postgres persistence for computed liquidity metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutMetricsBatch inserts or updates one row per (pool, observation time).
// Decimal columns are written as text so no driver-side float conversion can
// touch them.
func (s *Store) PutMetricsBatch(ctx context.Context, batch []model.LiquidityMetrics) error {
	if len(batch) == 0 {
		return nil
	}
	pgBatch := &pgx.Batch{}
	for _, m := range batch {
		pgBatch.Queue(`
			INSERT INTO liquidity_metrics (
				pool_address, token_address, quote_token_address, quote_token_symbol,
				price, price_usd, liquidity, observed_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
			ON CONFLICT (pool_address, observed_at)
			DO UPDATE SET
				token_address = EXCLUDED.token_address,
				quote_token_address = EXCLUDED.quote_token_address,
				quote_token_symbol = EXCLUDED.quote_token_symbol,
				price = EXCLUDED.price,
				price_usd = EXCLUDED.price_usd,
				liquidity = EXCLUDED.liquidity,
				updated_at = now()
		`,
			m.PoolAddress.Hex(),
			m.TokenAddress.Hex(),
			m.QuoteTokenAddress.Hex(),
			m.QuoteTokenSymbol,
			m.Price.String(),
			m.PriceUSD.String(),
			m.Liquidity.String(),
			m.Timestamp,
		)
	}

	br := s.pool.SendBatch(ctx, pgBatch)
	defer br.Close()

	for range batch {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
