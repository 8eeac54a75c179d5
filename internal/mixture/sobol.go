package mixture

import "fmt"

// sobolBits is the resolution of the generated sequence; every
// coordinate is an integer multiple of 2^-sobolBits.
const sobolBits = 30

// Sobol generates a three-dimensional Sobol' low-discrepancy sequence
// using the Gray-code construction. The all-zero origin point is
// skipped so the first molecule never lands on a box corner.
type Sobol struct {
	index uint32
	x     [3]uint32
	v     [3][sobolBits + 1]uint32
}

// primitive polynomial parameters for dimensions two and three; the
// first dimension is the van der Corput sequence in base 2.
var sobolDims = []struct {
	deg uint32
	a   uint32
	m   []uint32
}{
	{1, 0, []uint32{1}},
	{2, 1, []uint32{1, 3}},
}

// NewSobol returns a sampler positioned at the first point after the
// origin. Samplers are deterministic: two fresh samplers generate the
// same sequence.
func NewSobol() *Sobol {
	s := new(Sobol)
	for c := 1; c <= sobolBits; c++ {
		s.v[0][c] = 1 << (sobolBits - c)
	}
	for d, p := range sobolDims {
		j := d + 1
		for c := 1; c <= len(p.m); c++ {
			s.v[j][c] = p.m[c-1] << (sobolBits - c)
		}
		for c := len(p.m) + 1; c <= sobolBits; c++ {
			deg := int(p.deg)
			val := s.v[j][c-deg] ^ (s.v[j][c-deg] >> deg)
			for k := 1; k < deg; k++ {
				if (p.a>>(deg-1-k))&1 == 1 {
					val ^= s.v[j][c-k]
				}
			}
			s.v[j][c] = val
		}
	}
	s.Next()
	return s
}

// Next returns the next point of the sequence, each coordinate in
// [0, 1).
func (s *Sobol) Next() [3]float64 {
	var pt [3]float64
	for j := range pt {
		pt[j] = float64(s.x[j]) / float64(uint32(1)<<sobolBits)
	}
	// position of the rightmost zero bit of index
	c := 1
	for i := s.index; i&1 == 1; i >>= 1 {
		c++
	}
	for j := range s.x {
		s.x[j] ^= s.v[j][c]
	}
	s.index++
	return pt
}

// Sample draws n points and scales them into a box of the given
// dimensions, returning one slice per axis.
func (s *Sobol) Sample(n int, dims [3]float64) (xs, ys, zs []float64) {
	if n <= 0 {
		panic(fmt.Sprintf("sobol: sample count must be positive, got %d", n))
	}
	for _, d := range dims {
		if d <= 0 {
			panic(fmt.Sprintf("sobol: box dimensions must be positive, got %v", dims))
		}
	}
	xs = make([]float64, n)
	ys = make([]float64, n)
	zs = make([]float64, n)
	for i := 0; i < n; i++ {
		pt := s.Next()
		xs[i] = pt[0] * dims[0]
		ys[i] = pt[1] * dims[1]
		zs[i] = pt[2] * dims[2]
	}
	return
}
