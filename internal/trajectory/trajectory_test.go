package trajectory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func frame(ts int, atoms ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ITEM: TIMESTEP\n%d\n", ts)
	fmt.Fprintf(&b, "ITEM: NUMBER OF ATOMS\n%d\n", len(atoms))
	b.WriteString("ITEM: BOX BOUNDS pp pp pp\n")
	b.WriteString("0.0 10.0\n0.0 10.0\n0.0 10.0\n")
	b.WriteString("ITEM: ATOMS id mol type q xs ys zs\n")
	for _, a := range atoms {
		b.WriteString(a + "\n")
	}
	return b.String()
}

func writeDump(t *testing.T, dir string, frames ...string) string {
	t.Helper()
	path := filepath.Join(dir, "run.lammpstrj")
	if err := os.WriteFile(path, []byte(strings.Join(frames, "")), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLastFrame(t *testing.T) {
	dir := t.TempDir()
	first := frame(0, "1 1 1 0.0 0.1 0.1 0.1", "2 1 1 0.0 0.2 0.2 0.2")
	second := frame(1000, "1 1 1 0.0 0.3 0.3 0.3", "2 1 1 0.0 0.4 0.4 0.4")
	path := writeDump(t, dir, first, second)

	header, data, err := LastFrame(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(header[1]); got != "1000" {
		t.Errorf("last frame timestep = %q, wanted 1000", got)
	}
	if len(data) != 2 {
		t.Errorf("got %d atom lines, wanted 2", len(data))
	}
	if !strings.Contains(data[0], "0.3") {
		t.Errorf("data from the wrong frame: %q", data[0])
	}
}

func TestLastFrameErrors(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := LastFrame(filepath.Join(dir, "missing.lammpstrj")); !errors.Is(err, ErrNotReady) {
		t.Errorf("got %v, wanted ErrNotReady", err)
	}
	garbage := filepath.Join(dir, "garbage.lammpstrj")
	os.WriteFile(garbage, []byte("not a dump file\n"), 0644)
	if _, _, err := LastFrame(garbage); !errors.Is(err, ErrUnparsable) {
		t.Errorf("got %v, wanted ErrUnparsable", err)
	}
}

func TestWriteHandoff(t *testing.T) {
	dir := t.TempDir()
	path := writeDump(t, dir,
		frame(0, "1 1 1 0.0 0.1 0.1 0.1"),
		frame(5000, "1 1 1 0.0 0.9 0.9 0.9"))
	dst := filepath.Join(dir, "last.lammpstrj")
	if err := WriteHandoff(path, dst); err != nil {
		t.Fatal(err)
	}
	header, data, err := LastFrame(dst)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(header[1]) != "0" {
		t.Errorf("handoff timestep = %q, wanted 0", header[1])
	}
	if !strings.Contains(data[0], "0.9") {
		t.Errorf("handoff kept the wrong frame: %q", data[0])
	}
}

func TestParseFrame(t *testing.T) {
	dir := t.TempDir()
	path := writeDump(t, dir, frame(100,
		"1 1 1 0.0 0.1 0.2 0.3",
		"2 1 2 -0.5 0.4 0.5 0.6"))
	header, data, err := LastFrame(path)
	if err != nil {
		t.Fatal(err)
	}
	fr, err := ParseFrame(header, data)
	if err != nil {
		t.Fatal(err)
	}
	if fr.Timestep != 100 || fr.NumAtoms != 2 {
		t.Errorf("timestep/atoms = %d/%d, wanted 100/2", fr.Timestep, fr.NumAtoms)
	}
	if len(fr.BoxDims) != 6 || fr.BoxDims[1] != 10 {
		t.Errorf("box dims = %v", fr.BoxDims)
	}
	if got := fr.Data["q"][1]; got != -0.5 {
		t.Errorf("q[1] = %g, wanted -0.5", got)
	}
	if len(fr.Attributes) != 7 {
		t.Errorf("got %d attributes, wanted 7", len(fr.Attributes))
	}
}

func TestParseFrameMismatch(t *testing.T) {
	dir := t.TempDir()
	// header claims two atoms, frame has one
	bad := "ITEM: TIMESTEP\n0\nITEM: NUMBER OF ATOMS\n2\n" +
		"ITEM: BOX BOUNDS pp pp pp\n0 10\n0 10\n0 10\n" +
		"ITEM: ATOMS id xs ys zs\n1 0.1 0.1 0.1\n"
	path := filepath.Join(dir, "bad.lammpstrj")
	os.WriteFile(path, []byte(bad), 0644)
	header, data, err := LastFrame(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseFrame(header, data); !errors.Is(err, ErrUnparsable) {
		t.Errorf("got %v, wanted ErrUnparsable", err)
	}
}
