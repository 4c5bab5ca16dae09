package qalsh

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"qalsh/internal/fs"
	"qalsh/internal/qerrors"
)

// paramsFileName is the name of the per-index parameter file, holding the
// derived Params plus the hash-function matrix, following the reference
// implementation's "para" file.
const paramsFileName = "para"

func paramsPath(dir string) string {
	return dir + string(os.PathSeparator) + paramsFileName
}

// writeParams writes params and the hash-function matrix a (m rows of dim
// floats each) to dir's parameter file through fsys. It fails if the file
// already exists: build never silently overwrites an index.
func writeParams(fsys fs.FileSystem, dir string, p Params, a [][]float64) error {
	path := paramsPath(dir)
	if _, err := fsys.Stat(path); err == nil {
		return qerrors.NewIndexAlreadyExists(path)
	}

	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return qerrors.NewIoFailure("create", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "n = %d\n", p.N)
	fmt.Fprintf(w, "d = %d\n", p.Dim)
	fmt.Fprintf(w, "B = %d\n", p.B)
	fmt.Fprintf(w, "ratio = %f\n", p.Ratio)
	fmt.Fprintf(w, "w = %f\n", p.W)
	fmt.Fprintf(w, "p1 = %f\n", p.P1)
	fmt.Fprintf(w, "p2 = %f\n", p.P2)
	fmt.Fprintf(w, "p = %f\n", p.P)
	fmt.Fprintf(w, "alpha = %f\n", p.Alpha)
	fmt.Fprintf(w, "beta = %f\n", p.Beta)
	fmt.Fprintf(w, "delta = %f\n", p.Delta)
	fmt.Fprintf(w, "zeta = %f\n", p.Zeta)
	fmt.Fprintf(w, "m = %d\n", p.M)
	fmt.Fprintf(w, "l = %d\n", p.L)

	for i := 0; i < p.M; i++ {
		row := a[i]
		parts := make([]string, len(row))
		for j, v := range row {
			parts[j] = strconv.FormatFloat(v, 'f', 6, 64)
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
	}

	if err := w.Flush(); err != nil {
		return qerrors.NewIoFailure("write", path, err)
	}
	return nil
}

// readParams reads Params and the hash-function matrix back from dir's
// parameter file.
func readParams(dir string) (Params, [][]float64, error) {
	path := paramsPath(dir)
	f, err := os.Open(path)
	if err != nil {
		return Params{}, nil, qerrors.NewIoFailure("open", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<24)

	vals := map[string]string{}
	keys := []string{"n", "d", "B", "ratio", "w", "p1", "p2", "p", "alpha", "beta", "delta", "zeta", "m", "l"}
	for _, want := range keys {
		if !sc.Scan() {
			return Params{}, nil, qerrors.NewCorruptedIndex(path, "unexpected end of parameter file", nil)
		}
		line := sc.Text()
		eq := strings.Index(line, "=")
		if eq < 0 {
			return Params{}, nil, qerrors.NewCorruptedIndex(path, "malformed line: "+line, nil)
		}
		key := strings.TrimSpace(line[:eq])
		if key != want {
			return Params{}, nil, qerrors.NewCorruptedIndex(path, fmt.Sprintf("expected key %q, got %q", want, key), nil)
		}
		vals[key] = strings.TrimSpace(line[eq+1:])
	}

	p := Params{}
	p.N = mustAtoi(vals["n"])
	p.Dim = mustAtoi(vals["d"])
	p.B = mustAtoi(vals["B"])
	p.Ratio = mustAtof(vals["ratio"])
	p.W = mustAtof(vals["w"])
	p.P1 = mustAtof(vals["p1"])
	p.P2 = mustAtof(vals["p2"])
	p.P = mustAtof(vals["p"])
	p.Alpha = mustAtof(vals["alpha"])
	p.Beta = mustAtof(vals["beta"])
	p.Delta = mustAtof(vals["delta"])
	p.Zeta = mustAtof(vals["zeta"])
	p.M = mustAtoi(vals["m"])
	p.L = mustAtoi(vals["l"])

	a := make([][]float64, p.M)
	for i := 0; i < p.M; i++ {
		if !sc.Scan() {
			return Params{}, nil, qerrors.NewCorruptedIndex(path, "missing hash function row", nil)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != p.Dim {
			return Params{}, nil, qerrors.NewCorruptedIndex(path, "hash function row has wrong dimension", nil)
		}
		row := make([]float64, p.Dim)
		for j, s := range fields {
			row[j] = mustAtof(s)
		}
		a[i] = row
	}

	return p, a, nil
}

func mustAtoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func mustAtof(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
