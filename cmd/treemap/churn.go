package treemap

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/dColl/cmd/util"
	"github.com/ValentinKolb/dColl/lib/collections/treemap"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var churnCmd = &cobra.Command{
	Use:   "churn",
	Short: "Repeatedly inserts and removes a key and reports the compactions",
	Long: `Repeatedly inserts and removes a key and reports the compactions.

The map is optionally prefilled with live keys. Every round puts and removes the
same key, leaving one tombstone behind, until the compaction threshold rebuilds
the arena.`,
	Args: cobra.NoArgs,
	RunE: runChurn,
}

func init() {
	key := "rounds"
	churnCmd.Flags().Int(key, 10_000, util.WrapString("Number of insert/remove rounds"))
	key = "live"
	churnCmd.Flags().Int(key, 0, util.WrapString("Number of keys inserted before the churn starts"))
	key = "min-dead"
	churnCmd.Flags().Int(key, treemap.DefaultOptions().CompactionMinDead, util.WrapString("Tombstones that are always tolerated"))
	key = "ratio"
	churnCmd.Flags().Float64(key, treemap.DefaultOptions().CompactionRatio, util.WrapString("Rebuild once tombstones exceed this share of live entries"))
}

// churnResult summarizes a churn run
type churnResult struct {
	stats treemap.Stats
	timer metrics.Timer
}

// churn runs the insert/remove scenario and times every rebuild
func churn(rounds, live, minDead int, ratio float64) (churnResult, error) {
	timer := metrics.NewTimer()
	opts := treemap.DefaultOptions()
	opts.CompactionMinDead = minDead
	opts.CompactionRatio = ratio
	opts.OnCompact = func(s treemap.CompactionStats) {
		timer.Update(s.Duration)
		plog.Debugf("compaction %d: reclaimed %d, live %d, capacity %d in %s",
			s.Compactions, s.Reclaimed, s.Live, s.Capacity, s.Duration)
	}

	m := treemap.New[int, int](opts)
	for i := 0; i < live; i++ {
		m.Put(i, i)
	}

	key := -1
	for i := 0; i < rounds; i++ {
		m.Put(key, i)
		if m.Size() != live+1 {
			return churnResult{}, fmt.Errorf("round %d: size %d after put, expected %d", i, m.Size(), live+1)
		}
		if err := m.Remove(key); err != nil {
			return churnResult{}, fmt.Errorf("round %d: %w", i, err)
		}
	}
	if m.Size() != live {
		return churnResult{}, fmt.Errorf("size %d after churn, expected %d", m.Size(), live)
	}
	return churnResult{stats: m.Stats(), timer: timer}, nil
}

func runChurn(_ *cobra.Command, _ []string) error {
	rounds := viper.GetInt("rounds")
	live := viper.GetInt("live")
	if rounds < 0 || live < 0 {
		return fmt.Errorf("rounds and live must not be negative")
	}

	start := time.Now()
	res, err := churn(rounds, live, viper.GetInt("min-dead"), viper.GetFloat64("ratio"))
	if err != nil {
		return err
	}

	fmt.Printf("rounds: %d, live keys: %d, took %s\n", rounds, live, time.Since(start))
	fmt.Printf("compactions:     %d\n", res.stats.Compactions)
	fmt.Printf("tombstones left: %d\n", res.stats.Dead)
	fmt.Printf("arena:           %d slots, high water mark %d\n", res.stats.Capacity, res.stats.HighWaterMark)
	if res.timer.Count() > 0 {
		fmt.Printf("rebuild time:    mean %s, p99 %s, max %s\n",
			time.Duration(res.timer.Mean()), time.Duration(res.timer.Percentile(0.99)), time.Duration(res.timer.Max()))
	}
	return nil
}
