package treemap

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ValentinKolb/dColl/cmd/util"
	"github.com/ValentinKolb/dColl/lib/collections/treemap"
	libutil "github.com/ValentinKolb/dColl/lib/util"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// heightBound is the constant c in the expected treap height c*log2(n) (about 2.99 for large n)
const heightBound = 3.0

var heightCmd = &cobra.Command{
	Use:   "height",
	Short: "Samples the height of treaps built from random insertion orders",
	Long: `Samples the height of treaps built from random insertion orders.

Each trial inserts the keys 0..n-1 in a fresh random order and records the
height of the resulting tree. The summary is compared against log2(n), a treap
stays below about 3*log2(n) with high probability.`,
	Args: cobra.NoArgs,
	RunE: runHeight,
}

func init() {
	key := "n"
	heightCmd.Flags().Int(key, 10_000, util.WrapString("Number of keys per trial"))
	key = "trials"
	heightCmd.Flags().Int(key, 50, util.WrapString("Number of randomized trials"))
	key = "seed"
	heightCmd.Flags().Uint64(key, 0, util.WrapString("Seed for the insertion orders (0 = random)"))
}

// sampleHeights builds trials treaps of n keys and returns their heights
func sampleHeights(n, trials int, seed uint64, hist metrics.Histogram) []float64 {
	rnd := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	heights := make([]float64, 0, trials)
	for i := 0; i < trials; i++ {
		m := treemap.New[int, struct{}](&treemap.Options{InitialCapacity: n})
		for _, k := range rnd.Perm(n) {
			m.Put(k, struct{}{})
		}
		h := m.Height()
		hist.Update(int64(h))
		heights = append(heights, float64(h))
		plog.Debugf("trial %d: n=%d height=%d", i, n, h)
	}
	return heights
}

func runHeight(_ *cobra.Command, _ []string) error {
	n := viper.GetInt("n")
	trials := viper.GetInt("trials")
	if n < 1 || trials < 1 {
		return fmt.Errorf("n and trials must be positive")
	}
	seed := viper.GetUint64("seed")
	if seed == 0 {
		seed = libutil.GenerateSeed()
	}

	hist := metrics.NewHistogram(metrics.NewUniformSample(trials))
	stats := libutil.NewStats(sampleHeights(n, trials, seed, hist))

	log2n := math.Log2(float64(n))
	fmt.Printf("keys per trial: %d, trials: %d, seed: %d\n", n, trials, seed)
	fmt.Printf("log2(n):        %.2f\n", log2n)
	fmt.Printf("mean height:    %.2f (%.2f * log2(n), stddev %.2f)\n", hist.Mean(), hist.Mean()/log2n, stats.StdDeviation)
	fmt.Printf("p99 height:     %.0f\n", hist.Percentile(0.99))
	fmt.Printf("min/max height: %d/%d\n", hist.Min(), hist.Max())

	if float64(hist.Max()) > heightBound*log2n {
		fmt.Printf("warning: max height exceeds %.0f * log2(n)\n", heightBound)
	}
	return nil
}
