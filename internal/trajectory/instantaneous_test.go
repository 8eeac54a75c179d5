package trajectory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReadInstantaneous(t *testing.T) {
	dir := t.TempDir()
	content := `# Time-averaged data for fix 2
# TimeStep v_time c_thermo_temp
1000 501.0 222.3
2000 1501.0 294.504
3000 2501.0 298.379
`
	path := filepath.Join(dir, "1.4_nvt_instantaneous.out")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	inst, err := ReadInstantaneous(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"TimeStep", "v_time", "c_thermo_temp"}
	if len(inst.Headers) != len(want) {
		t.Fatalf("headers = %v, wanted %v", inst.Headers, want)
	}
	for i := range want {
		if inst.Headers[i] != want[i] {
			t.Errorf("header %d = %q, wanted %q", i, inst.Headers[i], want[i])
		}
	}
	if got := inst.Columns["c_thermo_temp"]; len(got) != 3 || got[1] != 294.504 {
		t.Errorf("c_thermo_temp = %v", got)
	}
}

func TestReadInstantaneousErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadInstantaneous(filepath.Join(dir, "missing.out")); !errors.Is(err, ErrNotReady) {
		t.Errorf("got %v, wanted ErrNotReady", err)
	}
	ragged := filepath.Join(dir, "ragged.out")
	os.WriteFile(ragged, []byte("# meta\n# TimeStep v_time\n1000 1.0\n2000\n"), 0644)
	if _, err := ReadInstantaneous(ragged); !errors.Is(err, ErrUnparsable) {
		t.Errorf("ragged row: got %v, wanted ErrUnparsable", err)
	}
	empty := filepath.Join(dir, "empty.out")
	os.WriteFile(empty, nil, 0644)
	if _, err := ReadInstantaneous(empty); !errors.Is(err, ErrUnparsable) {
		t.Errorf("empty file: got %v, wanted ErrUnparsable", err)
	}
}
