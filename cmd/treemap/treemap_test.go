package treemap

import (
	"math"
	"testing"

	"github.com/rcrowley/go-metrics"
)

func TestSampleHeights(t *testing.T) {
	const n, trials = 1024, 20
	hist := metrics.NewHistogram(metrics.NewUniformSample(trials))

	heights := sampleHeights(n, trials, 7, hist)

	if len(heights) != trials || hist.Count() != trials {
		t.Fatalf("expected %d samples, got %d heights and %d histogram samples", trials, len(heights), hist.Count())
	}
	if hist.Min() < int64(math.Log2(n))+1 {
		t.Errorf("height %d is below the minimum height of a binary tree with %d keys", hist.Min(), n)
	}
	if float64(hist.Max()) > 4*math.Log2(n) {
		t.Errorf("height %d is far above the expected O(log n)", hist.Max())
	}
}

func TestChurnCompacts(t *testing.T) {
	res, err := churn(10_000, 0, 64, 1.0)
	if err != nil {
		t.Fatalf("churn failed: %v", err)
	}
	if res.stats.Compactions == 0 {
		t.Error("expected at least one compaction")
	}
	if int64(res.stats.Compactions) != res.timer.Count() {
		t.Errorf("timer recorded %d rebuilds, map reports %d", res.timer.Count(), res.stats.Compactions)
	}
	if res.stats.Dead > 64 {
		t.Errorf("expected at most 64 tombstones, got %d", res.stats.Dead)
	}
}

func TestChurnWithLiveKeys(t *testing.T) {
	res, err := churn(500, 100, 10, 0.5)
	if err != nil {
		t.Fatalf("churn failed: %v", err)
	}
	if res.stats.Live != 100 {
		t.Errorf("expected 100 live keys, got %d", res.stats.Live)
	}
	if res.stats.Compactions == 0 {
		t.Error("expected at least one compaction")
	}
}
