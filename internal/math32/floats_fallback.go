//go:build !qalsh_simdasm

package math32

func dot(a, b []float32) float32 {
	return dotGeneric(a, b)
}

func squaredL2(a, b []float32) float32 {
	return squaredL2Generic(a, b)
}

func scaleInPlace(a []float32, scalar float32) {
	scaleGeneric(a, scalar)
}

func pqAdcLookup(table []float32, codes []byte, m int) float32 {
	return pqAdcLookupGeneric(table, codes, m)
}
