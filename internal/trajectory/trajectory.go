// Package trajectory reads the files a LAMMPS run leaves behind: dump
// trajectories and time-averaged property tables.
package trajectory

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrNotReady marks a file that does not exist yet; callers
	// polling a live run should retry.
	ErrNotReady = errors.New("trajectory: output file not ready")
	// ErrUnparsable marks a file that exists but cannot be read as a
	// complete frame.
	ErrUnparsable = errors.New("trajectory: unparsable output file")
)

const (
	timestepMarker = "ITEM: TIMESTEP"
	headerLines    = 9
	chunkSize      = 64 * 1024
)

// LastFrame returns the header and data lines of the final frame in a
// dump file. The file is scanned backwards so only the tail is read,
// whatever the trajectory length.
func LastFrame(path string) (header, data []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotReady, path)
		}
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := info.Size()
	var tail []byte
	for off := size; off > 0; {
		n := int64(chunkSize)
		if off < n {
			n = off
		}
		off -= n
		buf := make([]byte, n)
		if _, err := f.ReadAt(buf, off); err != nil && err != io.EOF {
			return nil, nil, err
		}
		tail = append(buf, tail...)
		if i := strings.LastIndex(string(tail), timestepMarker); i >= 0 {
			tail = tail[i:]
			break
		}
		if off == 0 {
			return nil, nil, fmt.Errorf("%w: %s has no %q marker", ErrUnparsable, path, timestepMarker)
		}
	}

	lines := strings.Split(strings.TrimRight(string(tail), "\n"), "\n")
	if len(lines) < headerLines {
		return nil, nil, fmt.Errorf("%w: %s: truncated frame header", ErrUnparsable, path)
	}
	return lines[:headerLines], lines[headerLines:], nil
}

// WriteHandoff copies the last frame of src into dst with its
// timestep reset to zero, so the next stage can read_dump it at step
// 0.
func WriteHandoff(src, dst string) error {
	header, data, err := LastFrame(src)
	if err != nil {
		return err
	}
	header[1] = "0"
	content := strings.Join(append(header, data...), "\n") + "\n"
	return os.WriteFile(dst, []byte(content), 0644)
}

// Frame is one parsed dump frame.
type Frame struct {
	Timestep  int
	NumAtoms  int
	BoxBounds []string
	// BoxDims holds the six boundary values, [xlo xhi ylo yhi zlo zhi].
	BoxDims    []float64
	Attributes []string
	// Data maps each attribute to its per-atom column.
	Data map[string][]float64
}

// ParseFrame interprets the header and data lines of one frame.
func ParseFrame(header, data []string) (*Frame, error) {
	if len(header) != headerLines {
		return nil, fmt.Errorf("%w: frame header has %d lines", ErrUnparsable, len(header))
	}
	fr := &Frame{}
	var err error
	if fr.Timestep, err = strconv.Atoi(strings.TrimSpace(header[1])); err != nil {
		return nil, fmt.Errorf("%w: bad timestep %q", ErrUnparsable, header[1])
	}
	if fr.NumAtoms, err = strconv.Atoi(strings.TrimSpace(header[3])); err != nil {
		return nil, fmt.Errorf("%w: bad atom count %q", ErrUnparsable, header[3])
	}
	if fields := strings.Fields(header[4]); len(fields) > 3 {
		fr.BoxBounds = fields[3:]
	}
	for _, line := range header[5:8] {
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad box bound %q", ErrUnparsable, field)
			}
			fr.BoxDims = append(fr.BoxDims, v)
		}
	}
	attrFields := strings.Fields(header[8])
	if len(attrFields) < 3 || attrFields[0] != "ITEM:" || attrFields[1] != "ATOMS" {
		return nil, fmt.Errorf("%w: bad attribute line %q", ErrUnparsable, header[8])
	}
	fr.Attributes = attrFields[2:]

	if len(data) != fr.NumAtoms {
		return nil, fmt.Errorf("%w: frame has %d atom lines, header says %d",
			ErrUnparsable, len(data), fr.NumAtoms)
	}
	fr.Data = make(map[string][]float64, len(fr.Attributes))
	for _, attr := range fr.Attributes {
		fr.Data[attr] = make([]float64, 0, fr.NumAtoms)
	}
	for _, line := range data {
		values := strings.Fields(line)
		if len(values) != len(fr.Attributes) {
			return nil, fmt.Errorf("%w: atom line %q has %d values, wanted %d",
				ErrUnparsable, line, len(values), len(fr.Attributes))
		}
		for i, attr := range fr.Attributes {
			v, err := strconv.ParseFloat(values[i], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: value %q of attribute %s is not a number",
					ErrUnparsable, values[i], attr)
			}
			fr.Data[attr] = append(fr.Data[attr], v)
		}
	}
	return fr, nil
}
