package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/vortexntnu/stonefish/internal/sim"
)

// PlotJoint renders the position history of one joint column as an
// ASCII chart.
func PlotJoint(result *sim.Result, joint, width, height int) (string, error) {
	if len(result.Positions) == 0 {
		return "", fmt.Errorf("viz: empty trajectory")
	}
	if joint < 0 || joint >= len(result.Positions[0]) {
		return "", fmt.Errorf("viz: joint %d out of range", joint)
	}

	series := make([]float64, len(result.Positions))
	for i, row := range result.Positions {
		series[i] = row[joint]
	}

	return asciigraph.Plot(series,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(fmt.Sprintf("joint %d position", joint)),
	), nil
}

// PlotVelocity is PlotJoint for the velocity column.
func PlotVelocity(result *sim.Result, joint, width, height int) (string, error) {
	if len(result.Velocities) == 0 {
		return "", fmt.Errorf("viz: empty trajectory")
	}
	if joint < 0 || joint >= len(result.Velocities[0]) {
		return "", fmt.Errorf("viz: joint %d out of range", joint)
	}

	series := make([]float64, len(result.Velocities))
	for i, row := range result.Velocities {
		series[i] = row[joint]
	}

	return asciigraph.Plot(series,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(fmt.Sprintf("joint %d velocity", joint)),
	), nil
}

// Sparkline renders a compact chart for embedding in a status line.
func Sparkline(series []float64, caption string) string {
	if len(series) < 2 {
		return ""
	}
	return asciigraph.Plot(series,
		asciigraph.Height(4),
		asciigraph.Width(30),
		asciigraph.Caption(caption),
	)
}
