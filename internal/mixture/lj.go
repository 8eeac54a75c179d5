package mixture

import (
	"math"
	"runtime"
	"sync"
)

// Screening parameters for the atom overlap check, in reduced units.
// The score only has to rank candidate packings, not model chemistry.
const (
	ljEpsilon = 1.0
	ljSigma   = 1.0
	ljCutoff  = 10.0
)

// PairPotential evaluates the 12-6 Lennard-Jones potential at
// separation r.
func PairPotential(r, epsilon, sigma float64) float64 {
	sr := sigma / r
	sr6 := sr * sr * sr * sr * sr * sr
	return 4 * epsilon * (sr6*sr6 - sr6)
}

// PBCDistance returns the minimum-image distance between points a and
// b in a periodic box.
func PBCDistance(a, b, box [3]float64) float64 {
	var sum float64
	for i := 0; i < 3; i++ {
		d := a[i] - b[i]
		d -= box[i] * math.Round(d/box[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// TotalPotential sums the pair potential over all distinct site pairs
// closer than rcut under minimum-image convention. The outer loop is
// split across the available CPUs; every pair is visited exactly once.
func TotalPotential(xs, ys, zs []float64, box [3]float64, rcut float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	partials := make([]float64, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			var sum float64
			for i := w; i < n-1; i += workers {
				a := [3]float64{xs[i], ys[i], zs[i]}
				for j := i + 1; j < n; j++ {
					b := [3]float64{xs[j], ys[j], zs[j]}
					r := PBCDistance(a, b, box)
					if r < rcut {
						sum += PairPotential(r, ljEpsilon, ljSigma)
					}
				}
			}
			partials[w] = sum
		}(w)
	}
	wg.Wait()
	var total float64
	for _, p := range partials {
		total += p
	}
	return total
}
