package mixture

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var ErrNoStructure = errors.New("mixture: species has no structure file")

// atomic masses in g/mol for the elements that show up in organic
// force fields
var atomicMass = map[string]float64{
	"H": 1.008, "He": 4.0026, "Li": 6.94, "B": 10.81, "C": 12.011,
	"N": 14.007, "O": 15.999, "F": 18.998, "Na": 22.990, "Mg": 24.305,
	"Al": 26.982, "Si": 28.085, "P": 30.974, "S": 32.06, "Cl": 35.45,
	"K": 39.098, "Ca": 40.078, "Fe": 55.845, "Zn": 65.38, "Br": 79.904,
	"I": 126.90,
}

// FileSource resolves species geometries from xyz files on disk,
// relative to Root when the structure path is not absolute. The
// molecular weight is the sum of the atomic masses.
type FileSource struct {
	Root string
}

func (f FileSource) Conformer(s Species) (*Conformer, error) {
	if s.Structure == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoStructure, s.Name)
	}
	path := s.Structure
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.Root, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readXYZ(file, path)
}

func readXYZ(file *os.File, path string) (*Conformer, error) {
	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return nil, fmt.Errorf("mixture: %s: empty xyz file", path)
	}
	n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("mixture: %s: bad atom count %q", path, scanner.Text())
	}
	scanner.Scan() // comment line
	conf := &Conformer{Coords: mat.NewDense(n, 3, nil)}
	for i := 0; i < n; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("mixture: %s: truncated after %d atoms", path, i)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			return nil, fmt.Errorf("mixture: %s: bad atom line %q", path, scanner.Text())
		}
		elem := fields[0]
		mass, ok := atomicMass[elem]
		if !ok {
			return nil, fmt.Errorf("mixture: %s: unknown element %q", path, elem)
		}
		conf.Elements = append(conf.Elements, elem)
		conf.Weight += mass
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("mixture: %s: bad coordinate %q", path, fields[j+1])
			}
			conf.Coords.Set(i, j, v)
		}
	}
	return conf, scanner.Err()
}
