// Package config loads and validates job files. A job file declares
// the mixture to pack and the ordered simulation stages to run on it.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/polysim/lmpack/internal/script"
)

var (
	ErrNoStages      = errors.New("config: no stages declared")
	ErrNoSpecies     = errors.New("config: no species declared")
	ErrBadRunMode    = errors.New("config: unknown run mode")
	ErrBadRunCommand = errors.New("config: run command must contain the {script} placeholder")
)

// Run modes. Mixture mode packs a fresh mixture and simulates it;
// from-previous mode resumes from an earlier run's structure and last
// trajectory.
const (
	RunModeMixture      = "mixture"
	RunModeFromPrevious = "from_previous"
)

type Species struct {
	Name      string `mapstructure:"name"`
	SMILES    string `mapstructure:"smiles"`
	Count     int    `mapstructure:"count"`
	Rotate    bool   `mapstructure:"rotate"`
	Structure string `mapstructure:"structure"`
}

type Method struct {
	Name   string         `mapstructure:"name"`
	Params map[string]any `mapstructure:"params"`
}

type Stage struct {
	Name    string   `mapstructure:"name"`
	Methods []Method `mapstructure:"methods"`
}

type Config struct {
	RunMode                 string  `mapstructure:"run_mode"`
	MixturesNeeded          int     `mapstructure:"mixtures_needed"`
	TrialBudget             int     `mapstructure:"trial_budget"`
	FinalDensity            float64 `mapstructure:"final_density"`
	InitialLowDensityFactor float64 `mapstructure:"initial_low_density_factor"`
	LayerOffset             float64 `mapstructure:"layer_offset"`
	EnergyLimit             float64 `mapstructure:"energy_limit"`
	Seed                    int64   `mapstructure:"seed"`
	OutputDir               string  `mapstructure:"output_dir"`
	RunCommand              string  `mapstructure:"run_command"`
	StructureCommand        string  `mapstructure:"structure_command"`
	StructureDir            string  `mapstructure:"structure_dir"`
	PreviousDir             string  `mapstructure:"previous_dir"`

	Species []Species `mapstructure:"species"`
	Stages  []Stage   `mapstructure:"stages"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("run_mode", RunModeMixture)
	v.SetDefault("mixtures_needed", 1)
	v.SetDefault("trial_budget", 500)
	v.SetDefault("initial_low_density_factor", 0.01)
	v.SetDefault("layer_offset", 25.0)
	v.SetDefault("energy_limit", 0.0)
	v.SetDefault("output_dir", "output")
	v.SetDefault("run_command", "mpiexec -n 4 lmp -in {script}")
}

// Load reads the job file at path, applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	v.SetEnvPrefix("LMPACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every field that could make a run fail after hours
// of simulation, including a dry build of every stage script.
func (c *Config) Validate() error {
	switch c.RunMode {
	case RunModeMixture:
		if len(c.Species) == 0 {
			return ErrNoSpecies
		}
		for _, s := range c.Species {
			if strings.TrimSpace(s.SMILES) == "" {
				return fmt.Errorf("config: species %q has an empty SMILES", s.Name)
			}
			if s.Count <= 0 {
				return fmt.Errorf("config: species %q has count %d", s.Name, s.Count)
			}
		}
		if c.FinalDensity <= 0 {
			return fmt.Errorf("config: final density must be positive, got %g", c.FinalDensity)
		}
		if c.InitialLowDensityFactor <= 0 {
			return fmt.Errorf("config: initial low density factor must be positive, got %g",
				c.InitialLowDensityFactor)
		}
	case RunModeFromPrevious:
		if c.PreviousDir == "" {
			return errors.New("config: from_previous mode needs previous_dir")
		}
	default:
		return fmt.Errorf("%w %q", ErrBadRunMode, c.RunMode)
	}
	if c.MixturesNeeded < 1 {
		return fmt.Errorf("config: mixtures_needed must be at least 1, got %d", c.MixturesNeeded)
	}
	if c.TrialBudget < 1 {
		return fmt.Errorf("config: trial_budget must be at least 1, got %d", c.TrialBudget)
	}
	if !strings.Contains(c.RunCommand, "{script}") {
		return fmt.Errorf("%w, got %q", ErrBadRunCommand, c.RunCommand)
	}
	if len(c.Stages) == 0 {
		return ErrNoStages
	}
	return c.dryBuild()
}

// dryBuild assembles every stage script against a fake handoff so bad
// method names and parameters surface at load time.
func (c *Config) dryBuild() error {
	prev := script.Handoff{}
	for i, stage := range c.Stages {
		if len(stage.Methods) == 0 {
			return fmt.Errorf("config: stage %q has no methods", stage.Name)
		}
		st := script.NewStage(i+1, prev)
		for _, m := range stage.Methods {
			t, err := script.ParseType(m.Name)
			if err != nil {
				return fmt.Errorf("config: stage %q: %w", stage.Name, err)
			}
			if err := st.Apply(t, m.Params); err != nil {
				return fmt.Errorf("config: stage %q method %q: %w", stage.Name, m.Name, err)
			}
		}
		prev = st.Handoff
	}
	return nil
}

// SubstageCounts returns how many substages each stage runs, in
// order. Every configured method contributes one substage.
func (c *Config) SubstageCounts() []int {
	counts := make([]int, len(c.Stages))
	for i, stage := range c.Stages {
		counts[i] = len(stage.Methods)
	}
	return counts
}
