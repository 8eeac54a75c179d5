package mixture

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const avogadro = 6.02214076e23

var (
	ErrNoSpecies    = errors.New("mixture: no species declared")
	ErrBadCount     = errors.New("mixture: species count must be positive")
	ErrEmptySMILES  = errors.New("mixture: species SMILES must not be empty")
	ErrBadDensity   = errors.New("mixture: final density must be positive")
	ErrBadOffset    = errors.New("mixture: layer offset leaves no room in the box")
	ErrNotPlaced    = errors.New("mixture: molecules have not been placed")
)

// Params controls mixture construction.
type Params struct {
	Species []Species
	// FinalDensity is the target density of the equilibrated system
	// in kg/m^3.
	FinalDensity float64
	// InitialLowDensityFactor scales the density of the packing box;
	// the z axis is stretched to compensate.
	InitialLowDensityFactor float64
	// LayerOffset is the vacuum margin, in Angstrom, kept clear at
	// the bottom and top of the z axis.
	LayerOffset float64
	// EnergyLimit is the acceptance threshold for the screening
	// potential.
	EnergyLimit float64
	// RCut is the interaction cutoff of the screening potential.
	RCut float64
}

// Mixture is one candidate packing of molecules into a low-density
// periodic box.
type Mixture struct {
	Molecules []*Molecule
	// Weight is the total molecular weight in g/mol, MeanWeight the
	// per-molecule average.
	Weight     float64
	MeanWeight float64
	// FinalCubicDim is the edge, in Angstrom, of the cube the system
	// should occupy at the target density.
	FinalCubicDim float64
	// BoxDims is the packing box: x and y at the final cubic edge, z
	// stretched by the low-density factor.
	BoxDims [3]float64
	// Sobol coordinates of the molecule centroids, filled by Place.
	SobolX, SobolY, SobolZ []float64

	Potential float64
	Accepted  bool

	params Params
	placed bool
}

// New builds the molecule set and box geometry for one trial. The
// molecules keep their source orientation for the first instance of
// each species; later instances are randomly rotated when the species
// asks for it.
func New(p Params, src SpeciesSource, rng *rand.Rand) (*Mixture, error) {
	if len(p.Species) == 0 {
		return nil, ErrNoSpecies
	}
	if p.FinalDensity <= 0 {
		return nil, fmt.Errorf("%w, got %g", ErrBadDensity, p.FinalDensity)
	}
	if p.InitialLowDensityFactor <= 0 {
		return nil, fmt.Errorf("mixture: initial low density factor must be positive, got %g",
			p.InitialLowDensityFactor)
	}
	if p.RCut == 0 {
		p.RCut = ljCutoff
	}
	m := &Mixture{params: p}
	counters := NewCounters()
	for _, s := range p.Species {
		if s.Count <= 0 {
			return nil, fmt.Errorf("%w: %s has %d", ErrBadCount, s.Name, s.Count)
		}
		if strings.TrimSpace(s.SMILES) == "" {
			return nil, fmt.Errorf("%w: %s", ErrEmptySMILES, s.Name)
		}
		conf, err := src.Conformer(s)
		if err != nil {
			return nil, fmt.Errorf("mixture: species %s: %w", s.Name, err)
		}
		for i := 0; i < s.Count; i++ {
			mol := newMolecule(s, conf, counters)
			if i > 0 && s.Rotate {
				mol.RotateRandom(rng)
			}
			m.Molecules = append(m.Molecules, mol)
			m.Weight += mol.Weight
		}
	}
	sort.SliceStable(m.Molecules, func(i, j int) bool {
		return m.Molecules[i].Type < m.Molecules[j].Type
	})
	m.MeanWeight = m.Weight / float64(len(m.Molecules))
	m.computeBox()
	return m, nil
}

// computeBox derives the packing box from the target density. The
// final cube edge comes from the total mass at the final density; the
// packing box keeps that edge in x and y and stretches z so the box
// volume matches the reduced density.
func (m *Mixture) computeBox() {
	n := float64(len(m.Molecules))
	massKg := n * m.MeanWeight / 1000 / avogadro
	finalVol := massKg / m.params.FinalDensity // m^3
	m.FinalCubicDim = math.Cbrt(finalVol) * 1e10
	initialVol := massKg / (m.params.InitialLowDensityFactor * m.params.FinalDensity)
	area := m.FinalCubicDim * 1e-10 * m.FinalCubicDim * 1e-10
	m.BoxDims = [3]float64{
		m.FinalCubicDim,
		m.FinalCubicDim,
		initialVol / area * 1e10,
	}
}

// NumMols returns the number of molecules in the mixture.
func (m *Mixture) NumMols() int { return len(m.Molecules) }

// Place draws one Sobol point per molecule and moves each centroid
// there. The z coordinates are drawn from the box height minus the
// layer offset and then shifted up by half the offset, so the packing
// floats clear of both z faces. The box height is only known after
// the mixture is built, so an oversized layer offset surfaces here
// rather than at config time.
func (m *Mixture) Place(s *Sobol) error {
	zSpan := m.BoxDims[2] - m.params.LayerOffset
	if zSpan <= 0 {
		return fmt.Errorf("%w: offset %g against box height %g",
			ErrBadOffset, m.params.LayerOffset, m.BoxDims[2])
	}
	dims := [3]float64{m.BoxDims[0], m.BoxDims[1], zSpan}
	m.SobolX, m.SobolY, m.SobolZ = s.Sample(len(m.Molecules), dims)
	for i := range m.SobolZ {
		m.SobolZ[i] += m.params.LayerOffset / 2
	}
	for i, mol := range m.Molecules {
		mol.TranslateTo(m.SobolX[i], m.SobolY[i], m.SobolZ[i])
	}
	m.placed = true
	return nil
}

// atomPositions flattens every molecule's coordinates into one x, y,
// z slice triple.
func (m *Mixture) atomPositions() (xs, ys, zs []float64) {
	for _, mol := range m.Molecules {
		rows, _ := mol.Coords.Dims()
		for i := 0; i < rows; i++ {
			xs = append(xs, mol.Coords.At(i, 0))
			ys = append(ys, mol.Coords.At(i, 1))
			zs = append(zs, mol.Coords.At(i, 2))
		}
	}
	return xs, ys, zs
}

// Score evaluates the screening potential over the union of all atom
// positions and records whether the packing clears the energy limit.
// Centroids are not enough here: two molecules with distant centroids
// can still have overlapping atoms.
func (m *Mixture) Score() error {
	if !m.placed {
		return ErrNotPlaced
	}
	xs, ys, zs := m.atomPositions()
	m.Potential = TotalPotential(xs, ys, zs, m.BoxDims, m.params.RCut)
	m.Accepted = m.Potential < m.params.EnergyLimit
	return nil
}

// ExportXYZ writes one xyz file per molecule into dir, named by the
// molecule identifier.
func (m *Mixture) ExportXYZ(dir string) error {
	for _, mol := range m.Molecules {
		var b strings.Builder
		rows, _ := mol.Coords.Dims()
		fmt.Fprintf(&b, "%d\n%s\n", rows, mol.Name)
		for i := 0; i < rows; i++ {
			fmt.Fprintf(&b, "%-4s %14.8f %14.8f %14.8f\n", mol.Elements[i],
				mol.Coords.At(i, 0), mol.Coords.At(i, 1), mol.Coords.At(i, 2))
		}
		file := filepath.Join(dir, mol.Name+".xyz")
		if err := os.WriteFile(file, []byte(b.String()), 0644); err != nil {
			return fmt.Errorf("mixture: writing %s: %w", file, err)
		}
	}
	return nil
}
