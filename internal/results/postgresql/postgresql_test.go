//go:build integration
// +build integration

package postgresql_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DMarby/pixelbench/internal/bench"
	"github.com/DMarby/pixelbench/internal/results/postgresql"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
)

var address = "postgresql://postgres@localhost/postgres"

func TestPostgresql(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := fmt.Sprintf("test-%d", time.Now().UnixNano())

	provider, err := postgresql.New(ctx, address, run)
	if err != nil {
		t.Fatal(err)
	}
	defer provider.Shutdown()

	conn, err := pgx.Connect(ctx, address)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(ctx)

	samples := []bench.Sample{
		{Strategy: "grid", Filter: "blur", Width: 640, Height: 480, Workers: 1, BlockSize: 393, Sequential: 40 * time.Millisecond, Parallel: 42 * time.Millisecond, Speedup: 0.95},
		{Strategy: "grid", Filter: "blur", Width: 640, Height: 480, Workers: 2, BlockSize: 278, Sequential: 40 * time.Millisecond, Parallel: 21 * time.Millisecond, Speedup: 1.9},
	}

	t.Run("Writes and lists samples", func(t *testing.T) {
		for _, sample := range samples {
			if err := provider.Write(ctx, sample); err != nil {
				t.Fatal(err)
			}
		}

		stored, err := provider.List(ctx, run)
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(samples, stored); diff != "" {
			t.Errorf("wrong samples (-want +got):\n%s", diff)
		}
	})

	t.Run("Lists nothing for an unknown run", func(t *testing.T) {
		stored, err := provider.List(ctx, "nonexistant")
		if err != nil {
			t.Fatal(err)
		}

		if len(stored) != 0 {
			t.Errorf("got %d samples", len(stored))
		}
	})

	t.Run("Reconnecting keeps the schema", func(t *testing.T) {
		again, err := postgresql.New(ctx, address, run)
		if err != nil {
			t.Fatal(err)
		}
		again.Shutdown()
	})

	// Clean up
	conn.Exec(ctx, "DELETE FROM samples WHERE run = $1", run)
}

func TestNew(t *testing.T) {
	_, err := postgresql.New(context.Background(), "postgresql://invalid:1/postgres", "run")
	if err == nil {
		t.Fatal("no error")
	}
}
