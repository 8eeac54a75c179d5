package mixture

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	xyz := `3
water
O    0.000000   0.000000   0.117300
H    0.000000   0.757200  -0.469200
H    0.000000  -0.757200  -0.469200
`
	if err := os.WriteFile(filepath.Join(dir, "water.xyz"), []byte(xyz), 0644); err != nil {
		t.Fatal(err)
	}
	src := FileSource{Root: dir}
	conf, err := src.Conformer(Species{Name: "water", Structure: "water.xyz"})
	if err != nil {
		t.Fatal(err)
	}
	if len(conf.Elements) != 3 {
		t.Fatalf("got %d atoms, wanted 3", len(conf.Elements))
	}
	if want := 15.999 + 2*1.008; math.Abs(conf.Weight-want) > 1e-9 {
		t.Errorf("weight = %g, wanted %g", conf.Weight, want)
	}
	if got := conf.Coords.At(1, 1); got != 0.7572 {
		t.Errorf("coordinate (1,1) = %g, wanted 0.7572", got)
	}
}

func TestFileSourceErrors(t *testing.T) {
	dir := t.TempDir()
	src := FileSource{Root: dir}
	if _, err := src.Conformer(Species{Name: "x"}); !errors.Is(err, ErrNoStructure) {
		t.Errorf("got %v, wanted ErrNoStructure", err)
	}
	bad := filepath.Join(dir, "bad.xyz")
	os.WriteFile(bad, []byte("2\nbad\nXx 0 0 0\nC 0 0 0\n"), 0644)
	if _, err := src.Conformer(Species{Name: "bad", Structure: "bad.xyz"}); err == nil {
		t.Errorf("unknown element accepted")
	}
	trunc := filepath.Join(dir, "trunc.xyz")
	os.WriteFile(trunc, []byte("3\ntrunc\nC 0 0 0\n"), 0644)
	if _, err := src.Conformer(Species{Name: "trunc", Structure: "trunc.xyz"}); err == nil {
		t.Errorf("truncated file accepted")
	}
}
