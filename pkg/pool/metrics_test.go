package pool

import (
	"context"
	"testing"

	"github.com/Sternrassler/catalog-probe/pkg/catalog"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestRun_Metrics(t *testing.T) {
	tests := []struct {
		strategy    Strategy
		wantSpawned float64
	}{
		{SpawnPerBatch, 3},
		{PersistentReuse, 2},
	}

	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			label := tt.strategy.String()
			spawnedBefore := promtestutil.ToFloat64(poolWorkersSpawnedTotal.WithLabelValues(label))
			batchesBefore := promtestutil.ToFloat64(poolBatchesDispatchedTotal.WithLabelValues(label))
			activeBefore := promtestutil.ToFloat64(poolWorkersActive.WithLabelValues(label))

			p, err := New(newFakeProber(), Config{Workers: 2, BatchSize: 2, Strategy: tt.strategy}, zerolog.Nop())
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if _, err := p.Run(context.Background(), catalog.Identifiers("A", "B", "C", "D", "E")); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if got := promtestutil.ToFloat64(poolWorkersSpawnedTotal.WithLabelValues(label)) - spawnedBefore; got != tt.wantSpawned {
				t.Errorf("workers spawned = %v, want %v", got, tt.wantSpawned)
			}
			if got := promtestutil.ToFloat64(poolBatchesDispatchedTotal.WithLabelValues(label)) - batchesBefore; got != 3 {
				t.Errorf("batches dispatched = %v, want 3", got)
			}
			if got := promtestutil.ToFloat64(poolWorkersActive.WithLabelValues(label)); got != activeBefore {
				t.Errorf("active workers = %v after run, want %v", got, activeBefore)
			}
		})
	}
}
