package trajectory

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Instantaneous holds a parsed ave/time table: the first line of the
// file is run metadata, the second names the columns, the rest are
// sampled rows.
type Instantaneous struct {
	Headers []string
	Columns map[string][]float64
}

// ReadInstantaneous parses the ave/time output file at path.
func ReadInstantaneous(path string) (*Instantaneous, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotReady, path)
		}
		return nil, err
	}
	defer f.Close()

	inst := &Instantaneous{Columns: make(map[string][]float64)}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, chunkSize), chunkSize)
	for i := 0; scanner.Scan(); i++ {
		fields := strings.Fields(strings.ReplaceAll(scanner.Text(), "#", ""))
		switch {
		case i == 0:
			// run metadata, ignored
		case i == 1:
			inst.Headers = fields
			for _, h := range fields {
				inst.Columns[h] = nil
			}
		default:
			if len(fields) == 0 {
				continue
			}
			if len(fields) != len(inst.Headers) {
				return nil, fmt.Errorf("%w: %s: row %d has %d values, wanted %d",
					ErrUnparsable, path, i, len(fields), len(inst.Headers))
			}
			for j, field := range fields {
				v, err := strconv.ParseFloat(field, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: %s: bad value %q in column %s",
						ErrUnparsable, path, field, inst.Headers[j])
				}
				inst.Columns[inst.Headers[j]] = append(inst.Columns[inst.Headers[j]], v)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(inst.Headers) == 0 {
		return nil, fmt.Errorf("%w: %s: missing header line", ErrUnparsable, path)
	}
	return inst, nil
}
