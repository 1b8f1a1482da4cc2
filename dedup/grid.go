package dedup

import (
	"math"
	"math/big"
	"strconv"
)

// cellSize is the grid resolution in degrees, roughly 100 m.
const cellSize = 0.001

// gridIndex maps a cell key to the indices of clusters registered there.
type gridIndex map[string][]int

func cellKey(lat, lon float64) string {
	return fixed3(lat) + ":" + fixed3(lon)
}

// fixed3 formats v with three decimals. Exact ties round away from zero;
// strconv would round them to even.
func fixed3(v float64) string {
	scaled := math.Abs(v) * 1000
	if scaled-math.Floor(scaled) != 0.5 {
		return strconv.FormatFloat(v, 'f', 3, 64)
	}
	// The float product can land on .5 without v being a tie; the exact
	// product is a tie only when its reduced denominator is 2.
	exact := new(big.Rat).SetFloat64(math.Abs(v))
	exact.Mul(exact, big.NewRat(1000, 1))
	if exact.Denom().Cmp(big.NewInt(2)) != 0 {
		return strconv.FormatFloat(v, 'f', 3, 64)
	}
	up := math.Ceil(scaled) / 1000
	if v < 0 {
		up = -up
	}
	return strconv.FormatFloat(up, 'f', 3, 64)
}

// neighborKeys returns the cell of (lat, lon) followed by its north, south,
// east and west neighbors.
func neighborKeys(lat, lon float64) [5]string {
	return [5]string{
		cellKey(lat, lon),
		cellKey(lat+cellSize, lon),
		cellKey(lat-cellSize, lon),
		cellKey(lat, lon+cellSize),
		cellKey(lat, lon-cellSize),
	}
}

func (g gridIndex) register(key string, idx int) {
	for _, existing := range g[key] {
		if existing == idx {
			return
		}
	}
	g[key] = append(g[key], idx)
}

// candidates returns the cluster indices registered around (lat, lon) in
// first-seen order, without repeats.
func (g gridIndex) candidates(lat, lon float64) []int {
	var out []int
	seen := make(map[int]struct{})
	for _, k := range neighborKeys(lat, lon) {
		for _, idx := range g[k] {
			if _, ok := seen[idx]; ok {
				continue
			}
			seen[idx] = struct{}{}
			out = append(out, idx)
		}
	}
	return out
}
