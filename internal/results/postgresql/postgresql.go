package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/DMarby/pixelbench/internal/bench"
	"github.com/jackc/pgx/v5"
)

// Provider stores benchmark samples in PostgreSQL.
// Samples are grouped by the run they were written in.
type Provider struct {
	conn *pgx.Conn
	run  string
}

// New connects to the database, creating the schema if needed.
// Samples written through the Provider are stored under run.
func New(ctx context.Context, address, run string) (*Provider, error) {
	conn, err := pgx.Connect(ctx, address)
	if err != nil {
		return nil, err
	}

	if err := migrate(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Provider{
		conn: conn,
		run:  run,
	}, nil
}

func migrate(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS samples (
			id BIGSERIAL PRIMARY KEY,
			run TEXT NOT NULL,
			strategy TEXT NOT NULL,
			filter TEXT NOT NULL,
			width INT NOT NULL,
			height INT NOT NULL,
			workers INT NOT NULL,
			block_size INT NOT NULL,
			sequential_ns BIGINT NOT NULL,
			parallel_ns BIGINT NOT NULL,
			speedup DOUBLE PRECISION NOT NULL,
			recorded_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS samples_run_idx ON samples (run);
	`)
	return err
}

// Write stores a sample
func (p *Provider) Write(ctx context.Context, sample bench.Sample) error {
	_, err := p.conn.Exec(ctx, `
		INSERT INTO samples (run, strategy, filter, width, height, workers, block_size, sequential_ns, parallel_ns, speedup)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.run, sample.Strategy, sample.Filter, sample.Width, sample.Height, sample.Workers, sample.BlockSize,
		sample.Sequential.Nanoseconds(), sample.Parallel.Nanoseconds(), sample.Speedup)
	return err
}

// List returns the samples of a run in the order they were written
func (p *Provider) List(ctx context.Context, run string) ([]bench.Sample, error) {
	rows, err := p.conn.Query(ctx, `
		SELECT strategy, filter, width, height, workers, block_size, sequential_ns, parallel_ns, speedup
		FROM samples WHERE run = $1 ORDER BY id
	`, run)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (bench.Sample, error) {
		var s bench.Sample
		var sequential, parallel int64
		err := row.Scan(&s.Strategy, &s.Filter, &s.Width, &s.Height, &s.Workers, &s.BlockSize, &sequential, &parallel, &s.Speedup)
		s.Sequential, s.Parallel = time.Duration(sequential), time.Duration(parallel)
		return s, err
	})
}

// Shutdown closes the database connection
func (p *Provider) Shutdown() {
	p.conn.Close(context.Background())
}
