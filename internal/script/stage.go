package script

import (
	"errors"
	"fmt"
)

// Type enumerates the substage builders a stage can invoke.
type Type int

const (
	Initialization Type = iota
	Minimization
	Velocities
	NVT
	NPT
	NVE
	UniaxialDeformation
)

var typeNames = map[string]Type{
	"initialization":       Initialization,
	"minimization":         Minimization,
	"velocities":           Velocities,
	"nvt":                  NVT,
	"npt":                  NPT,
	"nve":                  NVE,
	"uniaxial_deformation": UniaxialDeformation,
}

var ErrUnknownType = errors.New("script: unknown substage type")

// ParseType maps a configured method name onto a substage type.
func ParseType(name string) (Type, error) {
	t, ok := typeNames[name]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownType, name)
	}
	return t, nil
}

func (t Type) String() string {
	for name, v := range typeNames {
		if v == t {
			return name
		}
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// fileToken is the substage name embedded in output file names.
func (t Type) fileToken() string {
	if t == UniaxialDeformation {
		return "uniaxialcompression"
	}
	return t.String()
}

// Handoff carries the output files one substage leaves for whatever
// runs next. A minimization hands over a trajectory but no
// instantaneous averages.
type Handoff struct {
	LastTrajectory    string
	LastInstantaneous string
}

// Stage assembles the input script for one pipeline stage. Substage
// numbering starts at 1 and every builder advances it exactly once.
type Stage struct {
	Number   int
	Substage int
	Script   *Script
	Handoff  Handoff
}

// NewStage opens a stage buffer with its banner. The handoff of the
// previous stage decides whether initialization restores positions
// from last.lammpstrj.
func NewStage(number int, prev Handoff) *Stage {
	st := &Stage{
		Number:   number,
		Substage: 1,
		Script:   &Script{},
		Handoff:  prev,
	}
	st.Script.StageTitle(number, "", "Created using lmpack.")
	st.Script.Echo("both")
	return st
}

// baseName is the stage.substage prefix shared by a substage's output
// files.
func (st *Stage) baseName(t Type) string {
	return fmt.Sprintf("%d.%d_%s", st.Number, st.Substage, t.fileToken())
}

func (st *Stage) advance() {
	st.Substage++
}
