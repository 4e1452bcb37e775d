package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/vortexntnu/stonefish/internal/sim"
)

type ExportData struct {
	Scenario   string             `json:"scenario"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	Times      []float64          `json:"times"`
	Positions  [][]float64        `json:"positions"`
	Velocities [][]float64        `json:"velocities"`
	Metrics    map[string]float64 `json:"metrics"`
}

func ExportJSON(path, scenario, integrator string, dt, duration float64, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeJSON(file, scenario, integrator, dt, duration, result)
}

func ExportJSONStdout(scenario, integrator string, dt, duration float64, result *sim.Result) error {
	return writeJSON(os.Stdout, scenario, integrator, dt, duration, result)
}

func writeJSON(w io.Writer, scenario, integrator string, dt, duration float64, result *sim.Result) error {
	data := ExportData{
		Scenario:   scenario,
		Integrator: integrator,
		Dt:         dt,
		Duration:   duration,
		Steps:      result.StepsTaken,
		Times:      result.Times,
		Positions:  result.Positions,
		Velocities: result.Velocities,
		Metrics:    result.Metrics,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
