// Package dataset reads and writes the plain-text file formats the
// reference QALSH benchmark driver uses for input vectors, ground-truth
// k-NN distances, and per-round result reports.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadVectors reads n vectors of dimension d from path. Each line holds a
// record id followed by d whitespace-separated float components; the id is
// read and discarded, since line order (not the id) determines the record's
// position in the returned slice and in every downstream tree/data file.
func ReadVectors(path string, n, d int) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<24)

	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("dataset: %q: expected %d records, found %d", path, n, i)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != d+1 {
			return nil, fmt.Errorf("dataset: %q line %d: expected %d fields, got %d", path, i+1, d+1, len(fields))
		}
		vec := make([]float32, d)
		for j := 0; j < d; j++ {
			v, err := strconv.ParseFloat(fields[j+1], 32)
			if err != nil {
				return nil, fmt.Errorf("dataset: %q line %d: %w", path, i+1, err)
			}
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read %q: %w", path, err)
	}
	return vectors, nil
}

// WriteVectors writes vectors to path in the format ReadVectors expects,
// numbering records from 1.
func WriteVectors(path string, vectors [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, vec := range vectors {
		fmt.Fprintf(w, "%d", i+1)
		for _, v := range vec {
			fmt.Fprintf(w, " %f", v)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

// GroundTruth holds, for each query, the maxK ascending nearest-neighbor
// distances computed by exhaustive linear scan.
type GroundTruth struct {
	MaxK      int
	Distances [][]float64 // qn rows of MaxK distances each
}

// ReadGroundTruth reads a truth-set file written by WriteGroundTruth.
func ReadGroundTruth(path string) (*GroundTruth, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var qn, maxK int
	if _, err := fmt.Fscanf(r, "%d %d\n", &qn, &maxK); err != nil {
		return nil, fmt.Errorf("dataset: %q: bad header: %w", path, err)
	}

	gt := &GroundTruth{MaxK: maxK, Distances: make([][]float64, qn)}
	for i := 0; i < qn; i++ {
		var id int
		if _, err := fmt.Fscanf(r, "%d", &id); err != nil {
			return nil, fmt.Errorf("dataset: %q row %d: %w", path, i+1, err)
		}
		row := make([]float64, maxK)
		for j := 0; j < maxK; j++ {
			if _, err := fmt.Fscanf(r, " %f", &row[j]); err != nil {
				return nil, fmt.Errorf("dataset: %q row %d col %d: %w", path, i+1, j, err)
			}
		}
		gt.Distances[i] = row
	}
	return gt, nil
}

// WriteGroundTruth writes a "<qn> <maxK>" header followed by one row per
// query: the query's 1-based index then maxK ascending distances.
func WriteGroundTruth(path string, gt *GroundTruth) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%d %d\n", len(gt.Distances), gt.MaxK)
	for i, row := range gt.Distances {
		fmt.Fprintf(w, "%d", i+1)
		for _, d := range row {
			fmt.Fprintf(w, " %f", d)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

// Round is one row of a benchmark report: the overall approximation ratio,
// I/O cost, and wall-clock time (ms) averaged over all queries at a given
// top-k.
type Round struct {
	TopK         int
	OverallRatio float64
	IOCost       int64
	RuntimeMs    float64
}

// WriteReport writes rounds as tab-separated rows, one per top-k, matching
// the reference driver's *.out report format.
func WriteReport(w io.Writer, rounds []Round) error {
	bw := bufio.NewWriter(w)
	for _, r := range rounds {
		if _, err := fmt.Fprintf(bw, "%d\t%f\t%d\t%f\n", r.TopK, r.OverallRatio, r.IOCost, r.RuntimeMs); err != nil {
			return err
		}
	}
	return bw.Flush()
}
