package automation

import (
	"context"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/config"
	"github.com/vortexntnu/stonefish/internal/metrics"
	"github.com/vortexntnu/stonefish/internal/sim"
	"github.com/vortexntnu/stonefish/internal/storage"
)

// Batch is a scripted sequence of scenario runs.
type Batch struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Steps       []BatchStep `yaml:"steps"`
}

// BatchStep runs either a named preset or an external scenario file,
// with optional dt and duration overrides.
type BatchStep struct {
	Preset   string  `yaml:"preset"`
	File     string  `yaml:"file"`
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
}

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var batch Batch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

func (s BatchStep) scenario() (*config.Scenario, error) {
	if s.File != "" {
		return config.Load(s.File)
	}
	sc := config.GetPreset(s.Preset)
	if sc == nil {
		return nil, fmt.Errorf("automation: unknown preset %q", s.Preset)
	}
	out := *sc
	if s.Dt > 0 {
		out.Dt = s.Dt
	}
	if s.Duration > 0 {
		out.Duration = s.Duration
	}
	return &out, nil
}

// RunBatch executes every step in order, saving each run to the store.
// It returns the stored run IDs.
func RunBatch(ctx context.Context, batch *Batch, st *storage.Store) ([]string, error) {
	runIDs := make([]string, 0, len(batch.Steps))

	for i, step := range batch.Steps {
		sc, err := step.scenario()
		if err != nil {
			return runIDs, fmt.Errorf("step %d: %w", i+1, err)
		}

		tree, err := sc.Build()
		if err != nil {
			return runIDs, fmt.Errorf("step %d (%s): %w", i+1, sc.Name, err)
		}

		world := sim.New()
		if err := world.AddTree(tree); err != nil {
			return runIDs, fmt.Errorf("step %d (%s): %w", i+1, sc.Name, err)
		}

		cfg := sc.SimConfig()
		world.AddMetric(metrics.NewEnergy(cfg.Gravity))
		world.AddMetric(metrics.NewEnergyDrift(cfg.Gravity))

		result, err := world.Run(ctx, cfg)
		if err != nil {
			return runIDs, fmt.Errorf("step %d (%s): %w", i+1, sc.Name, err)
		}

		runID, err := st.Save(sc.Name, sc.Integrator, cfg.Dt, cfg.Duration, result)
		if err != nil {
			return runIDs, fmt.Errorf("step %d (%s): %w", i+1, sc.Name, err)
		}
		runIDs = append(runIDs, runID)
	}

	return runIDs, nil
}

// Sweep varies one joint's initial position across a range and records
// the outcome of each run.
type Sweep struct {
	Scenario *config.Scenario
	Joint    int
	Min, Max float64
	NumSteps int
}

type SweepResult struct {
	Value     float64
	FinalQ    []float64
	MaxEnergy float64
}

func (s *Sweep) Run(ctx context.Context) ([]SweepResult, error) {
	if s.NumSteps < 2 {
		return nil, fmt.Errorf("automation: sweep needs at least 2 steps")
	}
	if s.Joint < 0 || s.Joint >= len(s.Scenario.Joints) {
		return nil, fmt.Errorf("automation: joint %d out of range", s.Joint)
	}

	results := make([]SweepResult, 0, s.NumSteps)
	stride := (s.Max - s.Min) / float64(s.NumSteps-1)

	for i := 0; i < s.NumSteps; i++ {
		value := s.Min + float64(i)*stride

		sc := *s.Scenario
		joints := make([]config.JointConfig, len(sc.Joints))
		copy(joints, sc.Joints)
		joints[s.Joint].IC.Position = value
		sc.Joints = joints

		tree, err := sc.Build()
		if err != nil {
			return results, err
		}
		world := sim.New()
		if err := world.AddTree(tree); err != nil {
			return results, err
		}

		cfg := sc.SimConfig()
		peak := &peakEnergy{gravity: cfg.Gravity}
		world.AddMetric(peak)

		run, err := world.Run(ctx, cfg)
		if err != nil {
			return results, err
		}

		var finalQ []float64
		if len(run.Positions) > 0 {
			finalQ = run.Positions[len(run.Positions)-1]
		}
		results = append(results, SweepResult{
			Value:     value,
			FinalQ:    finalQ,
			MaxEnergy: run.Metrics["peak_energy"],
		})
	}

	return results, nil
}

// peakEnergy tracks the maximum total energy seen during a run.
type peakEnergy struct {
	gravity algebra.Vec3
	max     float64
}

func (p *peakEnergy) Name() string { return "peak_energy" }

func (p *peakEnergy) Observe(t float64, w *sim.World) {
	total := 0.0
	for _, tree := range w.Trees() {
		mb := tree.Backend()
		total += mb.KineticEnergy() + mb.PotentialEnergy(p.gravity)
	}
	if total > p.max {
		p.max = total
	}
}

func (p *peakEnergy) Value() float64 { return p.max }
func (p *peakEnergy) Reset()         { p.max = math.Inf(-1) }
