// Command qalsh is the benchmark driver for the qalsh package: it builds
// an index, computes brute-force ground truth, and reports the
// approximation ratio and I/O cost of c-k-ANN search against it, mirroring
// the reference ann.cc driver's four algorithms.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"qalsh"
	"qalsh/dataset"
	"qalsh/pagestore"
)

const (
	algGroundTruth = 0
	algIndexing    = 1
	algLSHKNN      = 2
	algLinearScan  = 3
)

var kNNs = []int{1, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

func main() {
	alg := flag.Int("alg", -1, "algorithm: 0=ground_truth 1=indexing 2=lshknn 3=linear_scan")
	n := flag.Int("n", 0, "number of data objects")
	qn := flag.Int("qn", 0, "number of query objects")
	d := flag.Int("d", 0, "dimensionality")
	b := flag.Int("B", 4096, "page size in bytes")
	p := flag.Float64("p", 2.0, "the p value of the L_p norm, p in (0, 2]")
	zeta := flag.Float64("zeta", 0.0, "skewness of the p-stable hash family")
	ratio := flag.Float64("ratio", 2.0, "approximation ratio")
	ds := flag.String("ds", "", "path to the data set")
	qs := flag.String("qs", "", "path to the query set")
	ts := flag.String("ts", "", "path to the ground-truth set")
	df := flag.String("df", "", "data folder (index + data store directory)")
	of := flag.String("of", "", "output folder for reports")
	flag.Parse()

	if err := run(*alg, *n, *qn, *d, *b, *p, *zeta, *ratio, *ds, *qs, *ts, *df, *of); err != nil {
		fmt.Fprintln(os.Stderr, "qalsh:", err)
		os.Exit(1)
	}
}

func run(alg, n, qn, d, b int, p, zeta, ratio float64, ds, qs, ts, df, of string) error {
	switch alg {
	case algGroundTruth:
		return runGroundTruth(n, qn, d, p, ds, qs, ts)
	case algIndexing:
		return runIndexing(n, d, b, p, zeta, ratio, ds, df)
	case algLSHKNN:
		return runLSHKNN(qn, d, qs, ts, df, of)
	case algLinearScan:
		return runLinearScan(n, qn, d, b, p, qs, ts, df, of)
	default:
		return fmt.Errorf("unknown -alg %d (want 0-3)", alg)
	}
}

func runGroundTruth(n, qn, d int, p float64, ds, qs, ts string) error {
	data, err := dataset.ReadVectors(ds, n, d)
	if err != nil {
		return err
	}
	queries, err := dataset.ReadVectors(qs, qn, d)
	if err != nil {
		return err
	}

	const maxK = 100
	gt := &dataset.GroundTruth{MaxK: maxK, Distances: make([][]float64, qn)}
	for i, q := range queries {
		results := qalsh.BruteForceTopK(data, q, p, maxK)
		row := make([]float64, maxK)
		for j, r := range results {
			row[j] = r.Dist
		}
		gt.Distances[i] = row
	}
	return dataset.WriteGroundTruth(ts, gt)
}

func runIndexing(n, d, b int, p, zeta, ratio float64, ds, df string) error {
	data, err := dataset.ReadVectors(ds, n, d)
	if err != nil {
		return err
	}

	start := time.Now()
	idx, err := qalsh.Build(df, data, p, zeta, ratio, qalsh.WithPageSize(b))
	if err != nil {
		return err
	}
	defer idx.Close()

	fmt.Printf("Indexing Time: %f seconds\n\n", time.Since(start).Seconds())
	return nil
}

func runLSHKNN(qn, d int, qs, ts, df, of string) error {
	queries, err := dataset.ReadVectors(qs, qn, d)
	if err != nil {
		return err
	}
	gt, err := dataset.ReadGroundTruth(ts)
	if err != nil {
		return err
	}

	idx, err := qalsh.Open(df)
	if err != nil {
		return err
	}
	defer idx.Close()

	rounds, err := benchmark(queries, gt, func(q []float32, k int) (qalsh.Result, error) {
		return idx.KNN(q, k)
	})
	if err != nil {
		return err
	}
	return writeReport(of, "qalsh.out", rounds)
}

func runLinearScan(n, qn, d, b int, p float64, qs, ts, df, of string) error {
	queries, err := dataset.ReadVectors(qs, qn, d)
	if err != nil {
		return err
	}
	gt, err := dataset.ReadGroundTruth(ts)
	if err != nil {
		return err
	}

	data, err := pagestore.OpenDataStore(df+string(os.PathSeparator)+"data.bin", b, d, n)
	if err != nil {
		return err
	}
	defer data.Close()

	rounds, err := benchmark(queries, gt, func(q []float32, k int) (qalsh.Result, error) {
		return qalsh.LinearScan(data, q, p, k)
	})
	if err != nil {
		return err
	}
	return writeReport(of, "linear.out", rounds)
}

// benchmark runs search at every top-k in kNNs and reports the overall
// approximation ratio (candidate distance / ground-truth distance,
// averaged per-query then over queries), I/O cost, and per-query runtime.
func benchmark(queries [][]float32, gt *dataset.GroundTruth, search func(q []float32, k int) (qalsh.Result, error)) ([]dataset.Round, error) {
	rounds := make([]dataset.Round, 0, len(kNNs))

	fmt.Println("  Top-k\t\tRatio\t\tI/O\t\tTime (ms)")
	for _, topK := range kNNs {
		start := time.Now()
		var overallRatio float64
		var ioCost int64

		for i, q := range queries {
			result, err := search(q, topK)
			if err != nil {
				return nil, err
			}
			ioCost += int64(result.PageIO + result.DistIO)

			var ratio float64
			for j := 0; j < topK && j < len(result.Neighbors); j++ {
				ratio += result.Neighbors[j].Dist / gt.Distances[i][j]
			}
			overallRatio += ratio / float64(topK)
		}

		n := float64(len(queries))
		overallRatio /= n
		runtimeMs := time.Since(start).Seconds() * 1000.0 / n
		ioCost = int64(ceilDiv(ioCost, int64(len(queries))))

		fmt.Printf("  %3d\t\t%.4f\t\t%d\t\t%.2f\n", topK, overallRatio, ioCost, runtimeMs)
		rounds = append(rounds, dataset.Round{TopK: topK, OverallRatio: overallRatio, IOCost: ioCost, RuntimeMs: runtimeMs})
	}
	fmt.Println()
	return rounds, nil
}

func ceilDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func writeReport(outputFolder, name string, rounds []dataset.Round) error {
	path := outputFolder + string(os.PathSeparator) + name
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return dataset.WriteReport(f, rounds)
}
