package script

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBadAxis        = errors.New("script: deformation axis must be x, y, or z")
	ErrBadStrainStyle = errors.New("script: only true strain is supported")
	ErrBadBoxResize   = errors.New("script: unknown box resize mode")
)

// BoxResize selects what happens to the box after an NPT run.
type BoxResize int

const (
	// KeepBox leaves the box exactly as the barostat produced it.
	KeepBox BoxResize = iota
	// CubicFromLast rescales to a cube preserving the final volume.
	CubicFromLast
	// CubicFromAverage rescales to a cube from time-averaged bounds,
	// smoothing out barostat oscillations.
	CubicFromAverage
)

var boxResizeNames = map[string]BoxResize{
	"keep":          KeepBox,
	"cubic_last":    CubicFromLast,
	"cubic_average": CubicFromAverage,
}

func ParseBoxResize(name string) (BoxResize, error) {
	if name == "" {
		return KeepBox, nil
	}
	r, ok := boxResizeNames[name]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrBadBoxResize, name)
	}
	return r, nil
}

type InitializationParams struct {
	UnitsStyle string    `mapstructure:"units_style"`
	Boundary   [3]string `mapstructure:"boundary_style"`
}

func DefaultInitializationParams() InitializationParams {
	return InitializationParams{
		UnitsStyle: "real",
		Boundary:   [3]string{"p", "p", "p"},
	}
}

// Initialization sets styles and topology and, when a previous stage
// handed over a trajectory, restores particle positions from it.
func (st *Stage) Initialization(p InitializationParams) error {
	s := st.Script
	s.SubstageTitle(st.Number, st.Substage, "Initialization", "Initialize LAMMPS run.")
	if err := s.Units(p.UnitsStyle); err != nil {
		return err
	}
	s.Boundary(p.Boundary)
	s.AtomStyle("full")
	s.PairStyle("lj/cut 12.0")
	s.PairModify("mix arithmetic")
	s.BondStyle("harmonic")
	s.AngleStyle("harmonic")
	s.DihedralStyle("fourier")
	s.ImproperStyle("cvff")
	s.SpecialBonds("amber")
	s.ReadData("structure.data")
	s.DeclareThermoVariables()
	s.ThermoStyle("custom", thermoStyleProps)
	s.ThermoModify(true)
	if st.Handoff.LastTrajectory != "" {
		s.ReadDump("last.lammpstrj", 0)
	}
	st.advance()
	return nil
}

type MinimizationParams struct {
	SetTimestep int `mapstructure:"set_timestep"`
}

func DefaultMinimizationParams() MinimizationParams {
	return MinimizationParams{}
}

var minThermoProps = []string{
	"step", "fmax", "fnorm", "press", "vol", "v_sysdensity",
	"v_sxx", "v_syy", "v_szz", "v_syz", "v_sxz", "v_sxy", "pe",
	"v_cella", "v_cellb", "v_cellc", "v_cellalpha", "v_cellbeta",
	"v_cellgamma",
}

// Minimization relaxes the packing with conjugate-gradient descent.
// It dumps a trajectory but no instantaneous averages.
func (st *Stage) Minimization(p MinimizationParams) error {
	s := st.Script
	traj := st.baseName(Minimization) + ".lammpstrj"
	s.ResetTimestep(p.SetTimestep)
	s.SubstageTitle(st.Number, st.Substage, "Minimization", "Initialize LAMMPS run.")
	s.MinStyle("cg")
	s.MinModify(0.05)
	s.ThermoStyle("custom", minThermoProps)
	s.Dump("minrun", "all", "custom", 1000, traj, dumpProps)
	s.Thermo(100)
	s.Minimize(0.0, 0.0, 1000, 10000)
	s.Undump("minrun")
	st.Handoff = Handoff{LastTrajectory: traj}
	st.advance()
	return nil
}

type VelocitiesParams struct {
	Subset     string  `mapstructure:"subset"`
	Temp       float64 `mapstructure:"temp"`
	RandomSeed int     `mapstructure:"random_seed"`
	DistType   string  `mapstructure:"dist_type"`
	Momentum   string  `mapstructure:"momentum"`
	Rotation   string  `mapstructure:"rotation"`
}

func DefaultVelocitiesParams() VelocitiesParams {
	return VelocitiesParams{
		Subset:     "all",
		Temp:       298.15,
		RandomSeed: 1234,
		DistType:   "gaussian",
		Momentum:   "yes",
		Rotation:   "no",
	}
}

// Velocities draws initial velocities; it produces no output files.
func (st *Stage) Velocities(p VelocitiesParams) error {
	s := st.Script
	desc := fmt.Sprintf("Initialize velocities to %g (seed %d) using a %s distribution.",
		p.Temp, p.RandomSeed, p.DistType)
	s.SubstageTitle(st.Number, st.Substage, "Velocities", desc)
	s.Velocity(p.Subset, p.Temp, p.RandomSeed, p.DistType, p.Momentum, p.Rotation)
	st.advance()
	return nil
}

// DynamicsParams are the knobs shared by the thermostatted runs.
type DynamicsParams struct {
	TempInitial  float64 `mapstructure:"temp_initial"`
	TempFinal    float64 `mapstructure:"temp_final"`
	TempNControl int     `mapstructure:"temp_ncontrol"`
	Drag         float64 `mapstructure:"drag"`
	NReset       int     `mapstructure:"nreset"`
	NEvery       int     `mapstructure:"nevery"`
	NRepeat      int     `mapstructure:"nrepeat"`
	NFreq        int     `mapstructure:"nfreq"`
	NDump        int     `mapstructure:"ndump"`
	Timestep     float64 `mapstructure:"timestep"`
	NRun         int     `mapstructure:"nrun"`
	SetTimestep  int     `mapstructure:"set_timestep"`
}

func defaultDynamicsParams() DynamicsParams {
	return DynamicsParams{
		TempInitial:  298.15,
		TempFinal:    298.15,
		TempNControl: 100,
		NReset:       1000,
		NEvery:       1,
		NRepeat:      999,
		NFreq:        1000,
		NDump:        1000,
		Timestep:     1,
		NRun:         100_000,
	}
}

type NVTParams struct {
	DynamicsParams `mapstructure:",squash"`
}

func DefaultNVTParams() NVTParams {
	return NVTParams{defaultDynamicsParams()}
}

// NVT runs constant-volume dynamics under a Nose-Hoover thermostat.
func (st *Stage) NVT(p NVTParams) error {
	s := st.Script
	base := st.baseName(NVT)
	traj, inst := base+".lammpstrj", base+"_instantaneous.out"
	s.ResetTimestep(p.SetTimestep)
	desc := fmt.Sprintf("Run %d steps with a timestep of %g. T from %g to %g.",
		p.NRun, p.Timestep, p.TempInitial, p.TempFinal)
	s.SubstageTitle(st.Number, st.Substage, "NVT-dynamics", desc)
	s.ThermoStyle("custom", thermoStyleProps)
	s.FixNVT("1", "all", p.TempInitial, p.TempFinal, p.TempNControl, p.Drag, p.NReset, "mtk yes")
	s.FixAveTime("2", "all", p.NEvery, p.NRepeat, p.NFreq, aveTimeProps, inst)
	s.Dump("1", "all", "custom", p.NDump, traj, dumpProps)
	s.Timestep(p.Timestep)
	s.Run(p.NRun)
	s.Unfix("1")
	s.Unfix("2")
	s.Undump("1")
	st.Handoff = Handoff{LastTrajectory: traj, LastInstantaneous: inst}
	st.advance()
	return nil
}

type NPTParams struct {
	DynamicsParams `mapstructure:",squash"`
	PresInitial    float64 `mapstructure:"pres_initial"`
	PresFinal      float64 `mapstructure:"pres_final"`
	PresNControl   int     `mapstructure:"press_ncontrol"`
	BoxResize      string  `mapstructure:"box_resize"`
}

func DefaultNPTParams() NPTParams {
	return NPTParams{
		DynamicsParams: defaultDynamicsParams(),
		PresInitial:    1,
		PresFinal:      1,
		PresNControl:   100,
	}
}

// NPT runs constant-pressure dynamics and optionally rescales the box
// afterwards, before the fixes are torn down.
func (st *Stage) NPT(p NPTParams) error {
	resize, err := ParseBoxResize(p.BoxResize)
	if err != nil {
		return err
	}
	s := st.Script
	base := st.baseName(NPT)
	traj, inst := base+".lammpstrj", base+"_instantaneous.out"
	s.ResetTimestep(p.SetTimestep)
	desc := fmt.Sprintf("Run %d steps with a timestep of %g. T from %g to %g. Pressure from %g to %g.",
		p.NRun, p.Timestep, p.TempInitial, p.TempFinal, p.PresInitial, p.PresFinal)
	s.SubstageTitle(st.Number, st.Substage, "NPT-dynamics", desc)
	s.ThermoStyle("custom", thermoStyleProps)
	s.FixNPT("1", "all", p.TempInitial, p.TempFinal, p.TempNControl,
		p.PresInitial, p.PresFinal, p.PresNControl, p.Drag, p.NReset, "mtk yes")
	s.FixAveTime("2", "all", p.NEvery, p.NRepeat, p.NFreq, aveTimeProps, inst)
	// fix 3 tracks time-averaged box bounds over the whole run
	window := int(p.Timestep * float64(p.NRun))
	s.FixAveTime("3", "all", 1, window-1, window,
		[]string{"v_xlo v_xhi v_ylo v_yhi v_zlo v_zhi"}, "")
	s.Dump("1", "all", "custom", p.NDump, traj, dumpProps)
	s.Timestep(p.Timestep)
	s.Run(p.NRun)
	st.resizeBox(resize, "3")
	s.Unfix("1")
	s.Unfix("2")
	s.Unfix("3")
	s.Undump("1")
	st.Handoff = Handoff{LastTrajectory: traj, LastInstantaneous: inst}
	st.advance()
	return nil
}

func (st *Stage) resizeBox(mode BoxResize, boundsFix string) {
	s := st.Script
	switch mode {
	case KeepBox:
	case CubicFromLast:
		s.Variable("lcubic", "abs(((xhi-xlo)*(yhi-ylo)*(zhi-zlo))^(1/3))")
		s.ChangeBox([6]string{"0", "${lcubic}", "0", "${lcubic}", "0", "${lcubic}"})
	case CubicFromAverage:
		for i, name := range []string{"xloave", "xhiave", "yloave", "yhiave", "zloave", "zhiave"} {
			s.Variable(name, fmt.Sprintf("f_%s[%d]", boundsFix, i+1))
		}
		s.Variable("lcubic",
			"abs(((v_xhiave-v_xloave)*(v_yhiave-v_yloave)*(v_zhiave-v_zloave))^(1/3))")
		s.ChangeBox([6]string{"${xloave}", "${xhiave}", "${yloave}", "${yhiave}", "${zloave}", "${zhiave}"})
		s.ChangeBox([6]string{"0", "${lcubic}", "0", "${lcubic}", "0", "${lcubic}"})
	}
}

type NVEParams struct {
	NReset      int     `mapstructure:"nreset"`
	NEvery      int     `mapstructure:"nevery"`
	NRepeat     int     `mapstructure:"nrepeat"`
	NFreq       int     `mapstructure:"nfreq"`
	NDump       int     `mapstructure:"ndump"`
	Timestep    float64 `mapstructure:"timestep"`
	NRun        int     `mapstructure:"nrun"`
	SetTimestep int     `mapstructure:"set_timestep"`
}

func DefaultNVEParams() NVEParams {
	return NVEParams{
		NReset:   1000,
		NEvery:   1,
		NRepeat:  999,
		NFreq:    1000,
		NDump:    1000,
		Timestep: 1,
		NRun:     100_000,
	}
}

// NVE runs microcanonical dynamics.
func (st *Stage) NVE(p NVEParams) error {
	s := st.Script
	base := st.baseName(NVE)
	traj, inst := base+".lammpstrj", base+"_instantaneous.out"
	s.ResetTimestep(p.SetTimestep)
	desc := fmt.Sprintf("Run %d steps with a timestep of %g.", p.NRun, p.Timestep)
	s.SubstageTitle(st.Number, st.Substage, "NVE-dynamics", desc)
	s.ThermoStyle("custom", thermoStyleProps)
	s.FixNVE("1", "all", p.NReset, "mtk yes")
	s.FixAveTime("2", "all", p.NEvery, p.NRepeat, p.NFreq, aveTimeProps, inst)
	s.Dump("1", "all", "custom", p.NDump, traj, dumpProps)
	s.Timestep(p.Timestep)
	s.Run(p.NRun)
	s.Unfix("1")
	s.Unfix("2")
	s.Undump("1")
	st.Handoff = Handoff{LastTrajectory: traj, LastInstantaneous: inst}
	st.advance()
	return nil
}

type DeformationParams struct {
	DynamicsParams `mapstructure:",squash"`
	CompAxis       string  `mapstructure:"comp_axis"`
	NDeformation   int     `mapstructure:"ndeformation"`
	StrainStyle    string  `mapstructure:"strain_style"`
	WallSkin       float64 `mapstructure:"wallskin"`
}

func DefaultDeformationParams() DeformationParams {
	return DeformationParams{
		DynamicsParams: defaultDynamicsParams(),
		NDeformation:   1000,
		StrainStyle:    "true",
		WallSkin:       2.0,
	}
}

// UniaxialDeformation compresses the system along one axis between
// repulsive wall planes, at a true-strain rate chosen so the
// compressed length meets the free length by the end of the run.
func (st *Stage) UniaxialDeformation(p DeformationParams) error {
	if p.CompAxis != "x" && p.CompAxis != "y" && p.CompAxis != "z" {
		return fmt.Errorf("%w, got %q", ErrBadAxis, p.CompAxis)
	}
	if style := strings.ToLower(p.StrainStyle); style != "t" && !strings.Contains(style, "true") {
		return fmt.Errorf("%w, got %q", ErrBadStrainStyle, p.StrainStyle)
	}
	s := st.Script
	base := st.baseName(UniaxialDeformation)
	traj, inst := base+".lammpstrj", base+"_instantaneous.out"
	s.ResetTimestep(p.SetTimestep)
	desc := fmt.Sprintf("Uniaxial compression in the %s axis for %d steps with a timestep of %g. "+
		"Temperature control from %g to %g K. Deformation applied every %d steps.",
		p.CompAxis, p.NRun, p.Timestep, p.TempInitial, p.TempFinal, p.NDeformation)
	s.SubstageTitle(st.Number, st.Substage, "Uniaxial compression dynamics", desc)

	// first axis that is not being compressed sets the target length
	freeAxis := strings.TrimLeft("xyz", p.CompAxis)[:1]
	s.Variable("strainrate", fmt.Sprintf("ln((l%s+%g)/l%s)/%g",
		freeAxis, 2*p.WallSkin, p.CompAxis, p.Timestep*float64(p.NRun)))
	s.Variable("strainrateconst", "${strainrate}")

	s.ThermoStyle("custom", thermoStyleProps)
	s.FixNVT("1", "all", p.TempInitial, p.TempFinal, p.TempNControl, p.Drag, p.NReset, "mtk yes")
	s.FixAveTime("2", "all", p.NEvery, p.NRepeat, p.NFreq, aveTimeProps, inst)

	// wall planes sit one skin inside the box faces so atoms never
	// cross the shrinking boundary
	s.Variable(fmt.Sprintf("w%shigh", p.CompAxis),
		fmt.Sprintf("\"v_%shi - %g\"", p.CompAxis, p.WallSkin))
	s.Variable(fmt.Sprintf("w%slow", p.CompAxis),
		fmt.Sprintf("\"v_%slo + %g\"", p.CompAxis, p.WallSkin))
	s.Append(fmt.Sprintf("fix upperW all indent 10 plane %s v_w%shigh hi units box",
		p.CompAxis, p.CompAxis))
	s.Append(fmt.Sprintf("fix lowerW all indent 10 plane %s v_w%slow lo units box",
		p.CompAxis, p.CompAxis))
	s.Append(fmt.Sprintf("fix dfrm all deform %d %s trate ${strainrate} units box remap x",
		p.NDeformation, p.CompAxis))

	s.Dump("1", "all", "custom", p.NDump, traj, dumpProps)
	s.Timestep(p.Timestep)
	s.Run(p.NRun)
	for _, id := range []string{"1", "2", "upperW", "lowerW", "dfrm"} {
		s.Unfix(id)
	}
	s.Undump("1")
	st.Handoff = Handoff{LastTrajectory: traj, LastInstantaneous: inst}
	st.advance()
	return nil
}
