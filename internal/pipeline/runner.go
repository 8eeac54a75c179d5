// Package pipeline drives whole jobs: packing trials, structure
// generation, and the staged simulation runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/polysim/lmpack/internal/config"
	"github.com/polysim/lmpack/internal/mixture"
	"github.com/polysim/lmpack/internal/script"
	"github.com/polysim/lmpack/internal/trajectory"
)

var (
	// ErrTrialBudget means no acceptable packing was found within
	// the configured number of attempts.
	ErrTrialBudget = errors.New("pipeline: trial budget exhausted")
	// ErrNoStructure means the structure builder ran but left no
	// topology file behind.
	ErrNoStructure = errors.New("pipeline: structure.data was not produced")
)

const structureFile = "structure.data"

// StructureBuilder turns an exported mixture into a simulator
// topology file (structure.data) inside the mixture directory.
type StructureBuilder interface {
	Build(ctx context.Context, dir string, mix *mixture.Mixture) error
}

// CommandStructureBuilder shells out to an external typing tool that
// reads the exported geometries and writes structure.data.
type CommandStructureBuilder struct {
	Command string
}

func (b CommandStructureBuilder) Build(ctx context.Context, dir string, mix *mixture.Mixture) error {
	if err := Execute(ctx, dir, b.Command); err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, structureFile)); err != nil {
		return fmt.Errorf("%w in %s", ErrNoStructure, dir)
	}
	return nil
}

// Runner executes one job end to end.
type Runner struct {
	cfg     *config.Config
	log     *zap.Logger
	src     mixture.SpeciesSource
	builder StructureBuilder
	rng     *rand.Rand

	// test seams
	accept  func(*mixture.Mixture) bool
	execute func(ctx context.Context, dir, command string) error
}

func NewRunner(cfg *config.Config, log *zap.Logger, src mixture.SpeciesSource, builder StructureBuilder) *Runner {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Runner{
		cfg:     cfg,
		log:     log,
		src:     src,
		builder: builder,
		rng:     rand.New(rand.NewSource(seed)),
		accept:  func(m *mixture.Mixture) bool { return m.Accepted },
		execute: Execute,
	}
}

// Run executes the whole job inside jobDir.
func (r *Runner) Run(ctx context.Context, jobDir string) error {
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return err
	}
	start := time.Now()
	var err error
	switch r.cfg.RunMode {
	case config.RunModeFromPrevious:
		err = r.runFromPrevious(ctx, jobDir)
	default:
		err = r.runTrials(ctx, jobDir)
	}
	if err != nil {
		return err
	}
	r.log.Info("job finished", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (r *Runner) mixtureParams() mixture.Params {
	var species []mixture.Species
	for _, s := range r.cfg.Species {
		species = append(species, mixture.Species{
			Name:      s.Name,
			SMILES:    s.SMILES,
			Count:     s.Count,
			Rotate:    s.Rotate,
			Structure: s.Structure,
		})
	}
	return mixture.Params{
		Species:                 species,
		FinalDensity:            r.cfg.FinalDensity,
		InitialLowDensityFactor: r.cfg.InitialLowDensityFactor,
		LayerOffset:             r.cfg.LayerOffset,
		EnergyLimit:             r.cfg.EnergyLimit,
	}
}

// runTrials packs candidate mixtures until enough are accepted, then
// simulates each accepted one. The attempt budget renews whenever a
// mixture is accepted.
func (r *Runner) runTrials(ctx context.Context, jobDir string) error {
	params := r.mixtureParams()
	accepted := 0
	attempt := 0
	for attempt < r.cfg.TrialBudget {
		if err := ctx.Err(); err != nil {
			return err
		}
		attempt++
		mix, err := mixture.New(params, r.src, r.rng)
		if err != nil {
			return err
		}
		if err := mix.Place(mixture.NewSobol()); err != nil {
			return err
		}
		if err := mix.Score(); err != nil {
			return err
		}
		ok := r.accept(mix)
		r.log.Info("packing trial",
			zap.Int("mixture", accepted+1),
			zap.Int("attempt", attempt),
			zap.Float64("potential", mix.Potential),
			zap.Bool("accepted", ok))
		if !ok {
			continue
		}
		accepted++
		mixDir := filepath.Join(jobDir, fmt.Sprintf("mixture_%d", accepted))
		if err := os.MkdirAll(mixDir, 0755); err != nil {
			return err
		}
		if err := mix.ExportXYZ(mixDir); err != nil {
			return err
		}
		if err := r.builder.Build(ctx, mixDir, mix); err != nil {
			return err
		}
		if err := r.runStages(ctx, mixDir, script.Handoff{}); err != nil {
			return err
		}
		if accepted == r.cfg.MixturesNeeded {
			return nil
		}
		attempt = 0
	}
	return fmt.Errorf("%w: %d attempts, %d of %d mixtures accepted",
		ErrTrialBudget, r.cfg.TrialBudget, accepted, r.cfg.MixturesNeeded)
}

// runFromPrevious resumes simulation from an earlier run's topology
// and final positions instead of packing a new mixture.
func (r *Runner) runFromPrevious(ctx context.Context, jobDir string) error {
	mixDir := filepath.Join(jobDir, "mixture_1")
	if err := os.MkdirAll(mixDir, 0755); err != nil {
		return err
	}
	for _, name := range []string{structureFile, "last.lammpstrj"} {
		if err := copyFile(filepath.Join(r.cfg.PreviousDir, name),
			filepath.Join(mixDir, name)); err != nil {
			return err
		}
	}
	return r.runStages(ctx, mixDir, script.Handoff{LastTrajectory: "last.lammpstrj"})
}

// runStages builds and runs each configured stage in dir. Between
// stages the previous trajectory's final frame is rewritten as
// last.lammpstrj, validated, and handed to the next initialization.
// The final stage's outputs are left unvalidated: no stage consumes
// them, and readers of the finished job parse them on their own.
func (r *Runner) runStages(ctx context.Context, dir string, handoff script.Handoff) error {
	for i, stage := range r.cfg.Stages {
		if i > 0 {
			if err := r.writeHandoff(dir, handoff); err != nil {
				return err
			}
		}
		st := script.NewStage(i+1, handoff)
		for _, m := range stage.Methods {
			t, err := script.ParseType(m.Name)
			if err != nil {
				return fmt.Errorf("stage %q: %w", stage.Name, err)
			}
			if err := st.Apply(t, m.Params); err != nil {
				return fmt.Errorf("stage %q method %q: %w", stage.Name, m.Name, err)
			}
		}
		scriptFile := fmt.Sprintf("stage_%d.in", i+1)
		if err := st.Script.WriteFile(filepath.Join(dir, scriptFile)); err != nil {
			return err
		}
		command := strings.ReplaceAll(r.cfg.RunCommand, "{script}", scriptFile)
		r.log.Info("running stage",
			zap.String("stage", stage.Name),
			zap.String("command", command))
		if err := r.execute(ctx, dir, command); err != nil {
			return fmt.Errorf("stage %q: %w", stage.Name, err)
		}
		handoff = st.Handoff
	}
	return nil
}

// writeHandoff extracts the last frame of the previous stage into
// last.lammpstrj and sanity-checks what the finished stage left
// behind.
func (r *Runner) writeHandoff(dir string, handoff script.Handoff) error {
	if handoff.LastTrajectory == "" {
		return fmt.Errorf("%w: previous stage produced no trajectory", trajectory.ErrNotReady)
	}
	src := filepath.Join(dir, handoff.LastTrajectory)
	if err := trajectory.WriteHandoff(src, filepath.Join(dir, "last.lammpstrj")); err != nil {
		return err
	}
	header, data, err := trajectory.LastFrame(src)
	if err != nil {
		return err
	}
	if _, err := trajectory.ParseFrame(header, data); err != nil {
		return err
	}
	if handoff.LastInstantaneous != "" {
		if _, err := trajectory.ReadInstantaneous(filepath.Join(dir, handoff.LastInstantaneous)); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
