package bench

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dColl/cmd/util"
	"github.com/ValentinKolb/dColl/lib/collections"
	"github.com/ValentinKolb/dColl/lib/collections/arraylist"
	"github.com/ValentinKolb/dColl/lib/collections/hashmap"
	"github.com/ValentinKolb/dColl/lib/collections/linkedlist"
	ctesting "github.com/ValentinKolb/dColl/lib/collections/testing"
	"github.com/ValentinKolb/dColl/lib/collections/treemap"
	"github.com/ValentinKolb/dColl/lib/db/engines/treap"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// BenchCmd represents the bench command
	BenchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Benchmarks the collections and the treap database",
		Long: `Benchmarks the collections and the treap database.

Every benchmark is named <target>/<operation>, e.g. treemap/put or treapdb/scan.
Use --only and --skip to select benchmarks by target or by full name.`,
		Args:    cobra.NoArgs,
		PreRunE: processBenchConfig,
		RunE:    run,
	}
	benchOnly      []string
	benchSkip      []string
	benchValueSize = 64
)

func init() {
	key := "only"
	BenchCmd.Flags().String(key, "", util.WrapString("Targets or benchmarks to run (comma separated - e.g. treemap,hashmap/get)"))
	key = "skip"
	BenchCmd.Flags().String(key, "", util.WrapString("Targets or benchmarks to skip (comma separated - e.g. linkedlist,treapdb/scan)"))
	key = "value-size"
	BenchCmd.Flags().Int(key, 64, util.WrapString("Size of the values written by the database benchmarks (in bytes)"))
	key = "csv"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	benchOnly = splitList(viper.GetString("only"))
	benchSkip = splitList(viper.GetString("skip"))
	benchValueSize = viper.GetInt("value-size")
	if benchValueSize < 0 {
		return fmt.Errorf("value-size must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// selected reports whether the benchmark target/name should run
func selected(target, name string) bool {
	full := target + "/" + name
	matches := func(list []string) bool {
		return slices.Contains(list, target) || slices.Contains(list, full)
	}
	if len(benchOnly) > 0 && !matches(benchOnly) {
		return false
	}
	return !matches(benchSkip)
}

// result is a named benchmark result in the order it was run
type result struct {
	name   string
	result testing.BenchmarkResult
}

func run(_ *cobra.Command, _ []string) error {
	fmt.Println("Benchmarks for dColl collections and the treap database")
	fmt.Println()

	mapTargets := []struct {
		name    string
		factory ctesting.MapFactory
	}{
		{"treemap", func() collections.Map[int, string] { return treemap.New[int, string](nil) }},
		{"hashmap", func() collections.Map[int, string] { return hashmap.NewInt[string](nil) }},
	}
	listTargets := []struct {
		name    string
		factory ctesting.ListFactory
	}{
		{"arraylist", func() collections.List[int] { return arraylist.New[int](0) }},
		{"linkedlist", func() collections.List[int] { return linkedlist.New[int]() }},
	}

	var results []result
	runOne := func(target string, bm ctesting.Benchmark) {
		if !selected(target, bm.Name) {
			return
		}
		name := target + "/" + bm.Name
		r := testing.Benchmark(bm.Fn)
		results = append(results, result{name, r})
		printResult(name, r)
	}

	for _, target := range mapTargets {
		for _, bm := range ctesting.MapBenchmarks(target.factory) {
			runOne(target.name, bm)
		}
	}
	for _, target := range listTargets {
		for _, bm := range ctesting.ListBenchmarks(target.factory) {
			runOne(target.name, bm)
		}
	}
	for _, bm := range dbBenchmarks() {
		runOne("treapdb", bm)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return err
		}
		fmt.Printf("\nresults written to %s\n", csvPath)
	}
	return nil
}

// dbBenchmarks returns the benchmarks for the treap database
func dbBenchmarks() []ctesting.Benchmark {
	const keys = 10_000
	key := func(i int) string { return fmt.Sprintf("bench-%06d", i%keys) }

	newDB := func(b *testing.B, prefill bool) *treap.TreapDB {
		opts := treap.DefaultOptions()
		opts.Name = "bench"
		database := treap.NewTreapDB(opts)
		b.Cleanup(func() { database.Close() })
		if prefill {
			value := bytes.Repeat([]byte{'v'}, benchValueSize)
			for i := 0; i < keys; i++ {
				database.Set(key(i), value, uint64(i+1))
			}
		}
		return database
	}

	return []ctesting.Benchmark{
		{Name: "set", Fn: func(b *testing.B) {
			database := newDB(b, false)
			value := bytes.Repeat([]byte{'v'}, benchValueSize)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				database.Set(key(i), value, uint64(i+1))
			}
		}},
		{Name: "setE", Fn: func(b *testing.B) {
			database := newDB(b, false)
			value := bytes.Repeat([]byte{'v'}, benchValueSize)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				database.SetE(key(i), value, uint64(i+1), 100, 200)
			}
		}},
		{Name: "get", Fn: func(b *testing.B) {
			database := newDB(b, true)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				database.Get(key(i))
			}
		}},
		{Name: "delete", Fn: func(b *testing.B) {
			database := newDB(b, true)
			idx := database.WriteIdx()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				idx++
				database.Delete(key(i), idx)
			}
		}},
		{Name: "scan", Fn: func(b *testing.B) {
			database := newDB(b, true)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				n := 0
				database.Scan(key(i*31), func(string, []byte) bool {
					n++
					return n < 100
				})
			}
		}},
		{Name: "save", Fn: func(b *testing.B) {
			database := newDB(b, true)
			var buf bytes.Buffer
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				buf.Reset()
				if err := database.Save(&buf); err != nil {
					b.Fatal(err)
				}
			}
			b.SetBytes(int64(buf.Len()))
		}},
	}
}

// printResult prints the result of a benchmark in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.N == 0 {
		fmt.Printf("%-24sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.T.Nanoseconds())/float64(result.N), 1)
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-24s%.0fns/op (%s/op)\t%.0f ops/sec\t%d allocs/op\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, result.AllocsPerOp())
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []result) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"Benchmark", "Iterations", "NsPerOp", "DurationPerOp", "OpsPerSec", "AllocsPerOp", "BytesPerOp", "ValueSize"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, r := range results {
		nsPerOp := 0.0
		opsPerSec := 0.0
		if r.result.N > 0 {
			nsPerOp = math.Max(float64(r.result.T.Nanoseconds())/float64(r.result.N), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			r.name,
			strconv.Itoa(r.result.N),
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			strconv.FormatInt(r.result.AllocsPerOp(), 10),
			strconv.FormatInt(r.result.AllocedBytesPerOp(), 10),
			strconv.Itoa(benchValueSize),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %v", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
