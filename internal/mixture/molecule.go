package mixture

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Conformer is a single 3-D geometry for one species, as produced by a
// structure source.
type Conformer struct {
	Elements []string
	Coords   *mat.Dense // n x 3, Angstrom
	Weight   float64    // g/mol
}

// SpeciesSource turns a species declaration into a conformer. The
// production source reads pre-generated geometry files; tests inject
// stubs.
type SpeciesSource interface {
	Conformer(s Species) (*Conformer, error)
}

// Species declares one component of a mixture.
type Species struct {
	Name      string
	SMILES    string
	Count     int
	Rotate    bool
	Structure string // geometry file, resolved by the source
}

// Counters allocates molecule identifiers. The global counter runs
// over the whole mixture; per-species counters run independently.
type Counters struct {
	global  int
	perType map[string]int
}

func NewCounters() *Counters {
	return &Counters{perType: make(map[string]int)}
}

// Next returns the next global and per-species ordinals for typ, both
// starting at 1.
func (c *Counters) Next(typ string) (global, byType int) {
	c.global++
	c.perType[typ]++
	return c.global, c.perType[typ]
}

// Molecule is one placed instance of a species.
type Molecule struct {
	Type     string
	GlobalID int
	TypeID   int
	Name     string
	Elements []string
	Coords   *mat.Dense
	Weight   float64
	Rotated  bool
}

func newMolecule(s Species, conf *Conformer, c *Counters) *Molecule {
	g, t := c.Next(s.Name)
	rows, _ := conf.Coords.Dims()
	coords := mat.NewDense(rows, 3, nil)
	coords.Copy(conf.Coords)
	elems := make([]string, len(conf.Elements))
	copy(elems, conf.Elements)
	return &Molecule{
		Type:     s.Name,
		GlobalID: g,
		TypeID:   t,
		Name:     fmt.Sprintf("%d_%s_%d", g, s.Name, t),
		Elements: elems,
		Coords:   coords,
		Weight:   conf.Weight,
	}
}

// Centroid returns the unweighted mean of the atom positions.
func (m *Molecule) Centroid() [3]float64 {
	rows, _ := m.Coords.Dims()
	var c [3]float64
	for i := 0; i < rows; i++ {
		for j := 0; j < 3; j++ {
			c[j] += m.Coords.At(i, j)
		}
	}
	for j := range c {
		c[j] /= float64(rows)
	}
	return c
}

// TranslateTo moves the molecule so its centroid sits at the given
// point.
func (m *Molecule) TranslateTo(x, y, z float64) {
	c := m.Centroid()
	d := [3]float64{x - c[0], y - c[1], z - c[2]}
	rows, _ := m.Coords.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < 3; j++ {
			m.Coords.Set(i, j, m.Coords.At(i, j)+d[j])
		}
	}
}

// RotateRandom applies a uniform random rotation about the molecule's
// centroid: three angles in [-pi, pi], composed about x, then y, then
// z.
func (m *Molecule) RotateRandom(rng *rand.Rand) {
	ax := (2*rng.Float64() - 1) * math.Pi
	ay := (2*rng.Float64() - 1) * math.Pi
	az := (2*rng.Float64() - 1) * math.Pi
	m.rotate(ax, ay, az)
	m.Rotated = true
}

func (m *Molecule) rotate(ax, ay, az float64) {
	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, math.Cos(ax), -math.Sin(ax),
		0, math.Sin(ax), math.Cos(ax),
	})
	ry := mat.NewDense(3, 3, []float64{
		math.Cos(ay), 0, math.Sin(ay),
		0, 1, 0,
		-math.Sin(ay), 0, math.Cos(ay),
	})
	rz := mat.NewDense(3, 3, []float64{
		math.Cos(az), -math.Sin(az), 0,
		math.Sin(az), math.Cos(az), 0,
		0, 0, 1,
	})
	c := m.Centroid()
	rows, _ := m.Coords.Dims()
	centered := mat.NewDense(rows, 3, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < 3; j++ {
			centered.Set(i, j, m.Coords.At(i, j)-c[j])
		}
	}
	var t1, t2, t3 mat.Dense
	t1.Mul(centered, rx)
	t2.Mul(&t1, ry)
	t3.Mul(&t2, rz)
	for i := 0; i < rows; i++ {
		for j := 0; j < 3; j++ {
			m.Coords.Set(i, j, t3.At(i, j)+c[j])
		}
	}
}
