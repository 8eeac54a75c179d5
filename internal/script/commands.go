package script

import (
	"fmt"
	"strings"
)

// thermoVariables is the standard variable table declared during
// initialization. Order matters: later expressions reference earlier
// variables.
var thermoVariables = []struct {
	Name, Expr string
}{
	{"R", "0.00198722"},
	{"sysvol", "vol"},
	{"sysmass", "mass(all)/6.0221367e+023"},
	{"sysdensity", "v_sysmass/v_sysvol/1.0e-24"},
	{"coulomb", "ecoul+elong"},
	{"etotal", "etotal"},
	{"pe", "pe"},
	{"ke", "ke"},
	{"evdwl", "evdwl"},
	{"epair", "epair"},
	{"ebond", "ebond"},
	{"eangle", "eangle"},
	{"edihed", "edihed"},
	{"eimp", "eimp"},
	{"lx", "lx"},
	{"ly", "ly"},
	{"lz", "lz"},
	{"xhi", "xhi"},
	{"yhi", "yhi"},
	{"zhi", "zhi"},
	{"xlo", "xlo"},
	{"ylo", "ylo"},
	{"zlo", "zlo"},
	{"Nthermo", "0"},
	{"cella", "lx"},
	{"cellb", "sqrt(ly*ly+xy*xy)"},
	{"cellc", "sqrt(lz*lz+xz*xz+yz*yz)"},
	{"cellalpha", "acos((xy*xz+ly*yz)/(v_cellb*v_cellc))"},
	{"cellbeta", "acos(xz/v_cellc)"},
	{"cellgamma", "acos(xy/v_cellb)"},
	{"p", "press"},
	{"pxx", "pxx"},
	{"pyy", "pyy"},
	{"pzz", "pzz"},
	{"pyz", "pyz"},
	{"pxz", "pxz"},
	{"pxy", "pxy"},
	{"sxx", "-pxx"},
	{"syy", "-pyy"},
	{"szz", "-pzz"},
	{"syz", "-pyz"},
	{"sxz", "-pxz"},
	{"sxy", "-pxy"},
	{"fmax", "fmax"},
	{"fnorm", "fnorm"},
	{"time", "step*dt+0.000001"},
}

var thermoStyleProps = []string{
	"step", "v_time", "press", "vol", "v_sysdensity", "temp",
	"ebond", "eangle", "edihed", "eimp", "evdwl", "ecoul", "etail",
	"elong", "pe", "ke",
}

var dumpProps = []string{"id", "mol", "type", "q", "xs", "ys", "zs"}

var aveTimeProps = []string{
	"v_time", "c_thermo_temp", "c_thermo_press", "v_sysvol",
	"v_sysdensity", "v_cella", "v_cellb", "v_cellc", "v_etotal",
	"v_pe", "v_ke", "v_evdwl", "v_coulomb", "v_sxx", "v_syy", "v_szz",
	"v_syz", "v_sxz", "v_sxy", "v_xhi", "v_yhi", "v_zhi", "v_xlo",
	"v_ylo", "v_zlo",
}

var validUnitStyles = map[string]bool{
	"lj": true, "real": true, "metal": true, "si": true, "cgs": true,
	"electron": true, "micro": true, "nano": true,
}

func (s *Script) Units(style string) error {
	if !validUnitStyles[style] {
		return fmt.Errorf("script: %q is not a valid LAMMPS unit style", style)
	}
	s.Append("units " + style)
	return nil
}

func (s *Script) Echo(style string) {
	s.Append("echo " + style)
}

func (s *Script) Boundary(style [3]string) {
	s.Append("boundary " + strings.Join(style[:], " "))
}

func (s *Script) AtomStyle(style string)     { s.Append("atom_style " + style) }
func (s *Script) PairStyle(style string)     { s.Append("pair_style " + style) }
func (s *Script) PairModify(mod string)      { s.Append("pair_modify " + mod) }
func (s *Script) BondStyle(style string)     { s.Append("bond_style " + style) }
func (s *Script) AngleStyle(style string)    { s.Append("angle_style " + style) }
func (s *Script) DihedralStyle(style string) { s.Append("dihedral_style " + style) }
func (s *Script) ImproperStyle(style string) { s.Append("improper_style " + style) }
func (s *Script) SpecialBonds(sb string)     { s.Append("special_bonds " + sb) }
func (s *Script) ReadData(file string)       { s.Append("read_data " + file) }

// ReadDump restores particle positions from a dump frame.
func (s *Script) ReadDump(file string, step int) {
	s.Comment(fmt.Sprintf("Read previous dump file %s and update particle positions.", file), true)
	s.Append(fmt.Sprintf("read_dump %s %d x y z box yes", file, step))
	s.Raw("")
}

// Variable defines an equal-style variable.
func (s *Script) Variable(name, expr string) {
	s.Append(fmt.Sprintf("variable %s equal %s", name, expr))
}

func (s *Script) DeclareThermoVariables() {
	s.Comment("Declaring variables:", true)
	for _, v := range thermoVariables {
		s.Variable(v.Name, v.Expr)
	}
}

func (s *Script) ThermoStyle(option string, props []string) {
	s.Append(fmt.Sprintf("thermo_style %s %s", option, strings.Join(props, " ")))
}

func (s *Script) ThermoModify(flush bool) {
	v := "no"
	if flush {
		v = "yes"
	}
	s.Append("thermo_modify flush " + v)
}

func (s *Script) Thermo(n int) {
	s.Append(fmt.Sprintf("thermo %d", n))
}

func (s *Script) ResetTimestep(n int) {
	s.Append(fmt.Sprintf("reset_timestep %d", n))
}

func (s *Script) Timestep(dt float64) {
	s.Append(fmt.Sprintf("timestep %g", dt))
}

func (s *Script) Velocity(subset string, temp float64, seed int, dist, momentum, rotation string) {
	s.Append(fmt.Sprintf("velocity %s create %g %d dist %s mom %s rot %s",
		subset, temp, seed, dist, momentum, rotation))
}

func (s *Script) MinStyle(style string) { s.Append("min_style " + style) }

func (s *Script) MinModify(dmax float64) {
	s.Append(fmt.Sprintf("min_modify dmax %g", dmax))
}

func (s *Script) Minimize(etol, ftol float64, maxIter, maxEval int) {
	s.Append(fmt.Sprintf("minimize %g %g %d %d", etol, ftol, maxIter, maxEval))
}

func (s *Script) FixNVT(id, subset string, t0, t1 float64, ncontrol int, drag float64, nreset int, extra string) {
	s.Append(fmt.Sprintf("fix %s %s nvt temp %g %g %d drag %g nreset %d %s",
		id, subset, t0, t1, ncontrol, drag, nreset, extra))
}

func (s *Script) FixNPT(id, subset string, t0, t1 float64, tControl int,
	p0, p1 float64, pControl int, drag float64, nreset int, extra string) {
	s.Append(fmt.Sprintf("fix %s %s npt temp %g %g %d iso %g %g %d drag %g nreset %d %s",
		id, subset, t0, t1, tControl, p0, p1, pControl, drag, nreset, extra))
}

func (s *Script) FixNVE(id, subset string, nreset int, extra string) {
	s.Append(fmt.Sprintf("fix %s %s nve nreset %d %s", id, subset, nreset, extra))
}

// FixAveTime accumulates time-averaged properties; with an empty file
// the averages stay internal to the fix.
func (s *Script) FixAveTime(id, subset string, nevery, nrepeat, nfreq int, props []string, file string) {
	line := fmt.Sprintf("fix %s %s ave/time %d %d %d %s",
		id, subset, nevery, nrepeat, nfreq, strings.Join(props, " "))
	if file != "" {
		line += " file " + file
	}
	s.Append(line)
}

func (s *Script) Dump(id, subset, style string, n int, file string, props []string) {
	s.Append(fmt.Sprintf("dump %s %s %s %d %s %s",
		id, subset, style, n, file, strings.Join(props, " ")))
}

func (s *Script) Undump(id string) { s.Append("undump " + id) }
func (s *Script) Unfix(id string)  { s.Append("unfix " + id) }

func (s *Script) Run(nsteps int) {
	s.Append(fmt.Sprintf("run %d", nsteps))
}

// ChangeBox resets the box to the bounds [xlo xhi ylo yhi zlo zhi],
// remapping atom positions.
func (s *Script) ChangeBox(bounds [6]string) {
	s.Comment(fmt.Sprintf("Set dimensions of the box to %s.", strings.Join(bounds[:], " ")), true)
	s.Append(fmt.Sprintf("change_box all x final %s %s y final %s %s z final %s %s remap units box",
		bounds[0], bounds[1], bounds[2], bounds[3], bounds[4], bounds[5]))
	s.Raw("")
}
