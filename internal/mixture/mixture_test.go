package mixture

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// stubSource serves the same two-atom conformer for every species.
type stubSource struct {
	weight float64
}

func (s stubSource) Conformer(Species) (*Conformer, error) {
	return &Conformer{
		Elements: []string{"C", "C"},
		Coords: mat.NewDense(2, 3, []float64{
			-0.5, 0, 0,
			0.5, 0, 0,
		}),
		Weight: s.weight,
	}, nil
}

func TestBoxDims(t *testing.T) {
	// two molecules of this weight at 1000 kg/m^3 occupy exactly a
	// 10 Angstrom cube
	p := Params{
		Species:                 []Species{{Name: "mol", SMILES: "C", Count: 2}},
		FinalDensity:            1000,
		InitialLowDensityFactor: 1.0,
	}
	m, err := New(p, stubSource{weight: 301.107038}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	want := [3]float64{10, 10, 10}
	for i := range want {
		if math.Abs(m.BoxDims[i]-want[i]) > 1e-6 {
			t.Errorf("box axis %d = %g, wanted %g", i, m.BoxDims[i], want[i])
		}
	}
	if math.Abs(m.FinalCubicDim-10) > 1e-6 {
		t.Errorf("final cubic dim = %g, wanted 10", m.FinalCubicDim)
	}
}

func TestBoxLowDensityFactor(t *testing.T) {
	p := Params{
		Species:                 []Species{{Name: "mol", SMILES: "C", Count: 2}},
		FinalDensity:            1000,
		InitialLowDensityFactor: 0.01,
	}
	m, err := New(p, stubSource{weight: 301.107038}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(m.BoxDims[0]-10) > 1e-6 || math.Abs(m.BoxDims[1]-10) > 1e-6 {
		t.Errorf("x/y axes %v changed with density factor", m.BoxDims)
	}
	if math.Abs(m.BoxDims[2]-1000) > 1e-3 {
		t.Errorf("z axis = %g, wanted 1000", m.BoxDims[2])
	}
}

func TestPlaceLayerOffset(t *testing.T) {
	p := Params{
		Species:                 []Species{{Name: "mol", SMILES: "C", Count: 2}},
		FinalDensity:            1000,
		InitialLowDensityFactor: 1.0,
		LayerOffset:             2.0,
	}
	m, err := New(p, stubSource{weight: 301.107038}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Place(NewSobol()); err != nil {
		t.Fatal(err)
	}
	for i := range m.SobolZ {
		if m.SobolZ[i] < 1 || m.SobolZ[i] > 9 {
			t.Errorf("z coordinate %g outside [1, 9]", m.SobolZ[i])
		}
		if m.SobolX[i] < 0 || m.SobolX[i] >= 10 ||
			m.SobolY[i] < 0 || m.SobolY[i] >= 10 {
			t.Errorf("point (%g, %g) outside box", m.SobolX[i], m.SobolY[i])
		}
	}
}

func TestNamingAndOrder(t *testing.T) {
	p := Params{
		Species: []Species{
			{Name: "b", SMILES: "C", Count: 1},
			{Name: "a", SMILES: "O", Count: 2},
		},
		FinalDensity:            1000,
		InitialLowDensityFactor: 1.0,
	}
	m, err := New(p, stubSource{weight: 100}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2_a_1", "3_a_2", "1_b_1"}
	for i, mol := range m.Molecules {
		if mol.Name != want[i] {
			t.Errorf("molecule %d named %q, wanted %q", i, mol.Name, want[i])
		}
	}
}

func TestNewErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	src := stubSource{weight: 100}
	tests := []struct {
		msg  string
		p    Params
		want error
	}{
		{
			"no species",
			Params{FinalDensity: 1000, InitialLowDensityFactor: 1},
			ErrNoSpecies,
		},
		{
			"zero count",
			Params{
				Species:                 []Species{{Name: "x", SMILES: "C", Count: 0}},
				FinalDensity:            1000,
				InitialLowDensityFactor: 1,
			},
			ErrBadCount,
		},
		{
			"empty smiles",
			Params{
				Species:                 []Species{{Name: "x", SMILES: " ", Count: 1}},
				FinalDensity:            1000,
				InitialLowDensityFactor: 1,
			},
			ErrEmptySMILES,
		},
		{
			"bad density",
			Params{
				Species:                 []Species{{Name: "x", SMILES: "C", Count: 1}},
				InitialLowDensityFactor: 1,
			},
			ErrBadDensity,
		},
	}
	for _, test := range tests {
		_, err := New(test.p, src, rng)
		if !errors.Is(err, test.want) {
			t.Errorf("%s: got %v, wanted %v", test.msg, err, test.want)
		}
	}
}

func TestDeterminism(t *testing.T) {
	p := Params{
		Species:                 []Species{{Name: "mol", SMILES: "C", Count: 4, Rotate: true}},
		FinalDensity:            1000,
		InitialLowDensityFactor: 1.0,
	}
	build := func(seed int64) *Mixture {
		m, err := New(p, stubSource{weight: 100}, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatal(err)
		}
		if err := m.Place(NewSobol()); err != nil {
			t.Fatal(err)
		}
		return m
	}
	a, b := build(42), build(42)
	for i := range a.Molecules {
		if !mat.EqualApprox(a.Molecules[i].Coords, b.Molecules[i].Coords, 1e-12) {
			t.Errorf("molecule %d coordinates differ between identical seeds", i)
		}
	}
	if a.Molecules[0].Rotated {
		t.Errorf("first instance of a species was rotated")
	}
	if !a.Molecules[1].Rotated {
		t.Errorf("later instance of a rotating species kept its orientation")
	}
}

func TestScoreBeforePlace(t *testing.T) {
	p := Params{
		Species:                 []Species{{Name: "mol", SMILES: "C", Count: 2}},
		FinalDensity:            1000,
		InitialLowDensityFactor: 1.0,
	}
	m, err := New(p, stubSource{weight: 100}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Score(); !errors.Is(err, ErrNotPlaced) {
		t.Errorf("got %v, wanted ErrNotPlaced", err)
	}
}

func TestScoreAcceptance(t *testing.T) {
	base := Params{
		Species:                 []Species{{Name: "mol", SMILES: "C", Count: 8}},
		FinalDensity:            1000,
		InitialLowDensityFactor: 0.05,
	}
	run := func(limit float64) *Mixture {
		p := base
		p.EnergyLimit = limit
		m, err := New(p, stubSource{weight: 200}, rand.New(rand.NewSource(1)))
		if err != nil {
			t.Fatal(err)
		}
		if err := m.Place(NewSobol()); err != nil {
			t.Fatal(err)
		}
		if err := m.Score(); err != nil {
			t.Fatal(err)
		}
		return m
	}
	if m := run(1e9); !m.Accepted {
		t.Errorf("potential %g rejected against huge limit", m.Potential)
	}
	if m := run(-1e9); m.Accepted {
		t.Errorf("potential %g accepted against impossible limit", m.Potential)
	}
}

// wideSource serves molecules whose atoms sit well away from the
// centroid, so centroid separation says nothing about atom contact.
type wideSource struct{}

func (wideSource) Conformer(Species) (*Conformer, error) {
	return &Conformer{
		Elements: []string{"C", "C"},
		Coords: mat.NewDense(2, 3, []float64{
			-2.5, 0, 0,
			2.5, 0, 0,
		}),
		Weight: 301.107038,
	}, nil
}

func TestScoreAtomOverlap(t *testing.T) {
	// centroids 5.1 Angstrom apart, but the facing atoms end up 0.1
	// apart; the score must see the atoms, not the centroids
	p := Params{
		Species:                 []Species{{Name: "mol", SMILES: "C", Count: 2}},
		FinalDensity:            1000,
		InitialLowDensityFactor: 1.0,
		EnergyLimit:             1e9,
	}
	m, err := New(p, wideSource{}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Place(NewSobol()); err != nil {
		t.Fatal(err)
	}
	m.Molecules[0].TranslateTo(2.5, 5, 5)
	m.Molecules[1].TranslateTo(7.6, 5, 5)
	if err := m.Score(); err != nil {
		t.Fatal(err)
	}
	if m.Potential <= 0 {
		t.Errorf("atom overlap scored %g, wanted a large positive potential", m.Potential)
	}
	if m.Accepted {
		t.Errorf("packing with overlapping atoms was accepted")
	}
}

func TestPlaceOffsetTooLarge(t *testing.T) {
	// 10 Angstrom box against the default 25 Angstrom layer offset
	p := Params{
		Species:                 []Species{{Name: "mol", SMILES: "C", Count: 2}},
		FinalDensity:            1000,
		InitialLowDensityFactor: 1.0,
		LayerOffset:             25.0,
	}
	m, err := New(p, stubSource{weight: 301.107038}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Place(NewSobol()); !errors.Is(err, ErrBadOffset) {
		t.Errorf("got %v, wanted ErrBadOffset", err)
	}
}

func TestExportXYZ(t *testing.T) {
	dir := t.TempDir()
	p := Params{
		Species:                 []Species{{Name: "mol", SMILES: "C", Count: 2}},
		FinalDensity:            1000,
		InitialLowDensityFactor: 1.0,
	}
	m, err := New(p, stubSource{weight: 100}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Place(NewSobol()); err != nil {
		t.Fatal(err)
	}
	if err := m.ExportXYZ(dir); err != nil {
		t.Fatal(err)
	}
	for _, mol := range m.Molecules {
		if _, err := os.Stat(filepath.Join(dir, mol.Name+".xyz")); err != nil {
			t.Errorf("missing export for %s: %v", mol.Name, err)
		}
	}
}
