package viz

import (
	"strings"
	"testing"

	"github.com/vortexntnu/stonefish/internal/algebra"
	"github.com/vortexntnu/stonefish/internal/sim"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(10, 5)

	c.Set(0, 0)
	if c.Grid[0][0] != 0x2801 {
		t.Errorf("expected dot 1 set, got %x", c.Grid[0][0])
	}

	// out of range is a no-op
	c.Set(-1, 0)
	c.Set(0, -1)
	c.Set(100, 100)
}

func TestCanvasClear(t *testing.T) {
	c := NewCanvas(4, 4)
	c.Set(3, 3)
	c.Clear()

	for _, row := range c.Grid {
		for _, r := range row {
			if r != 0x2800 {
				t.Fatalf("expected empty cell, got %x", r)
			}
		}
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 19, 0)

	// a horizontal line across the top must touch every column
	for col := 0; col < 10; col++ {
		if c.Grid[0][col] == 0x2800 {
			t.Errorf("column %d untouched", col)
		}
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(3, 2)
	s := c.String()
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 lines, got %d", len(lines))
	}
}

func TestViewportChain(t *testing.T) {
	c := NewCanvas(20, 10)
	v := NewViewport(c, -2, 2, -2, 2)

	v.DrawChain([]algebra.Vec3{
		{X: 0, Y: 0},
		{X: 1, Y: 0},
		{X: 1, Y: -1},
	})

	lit := 0
	for _, row := range c.Grid {
		for _, r := range row {
			if r != 0x2800 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("expected the chain to light pixels")
	}
}

func TestViewportDegenerateWindow(t *testing.T) {
	c := NewCanvas(4, 4)
	v := NewViewport(c, 1, 1, 2, 2)
	if v.MaxX <= v.MinX || v.MaxY <= v.MinY {
		t.Error("expected the window to be widened")
	}
}

func TestPlotJoint(t *testing.T) {
	result := &sim.Result{
		Positions: [][]float64{{0}, {0.5}, {1.0}, {0.5}},
	}

	chart, err := PlotJoint(result, 0, 20, 5)
	if err != nil {
		t.Fatalf("plot failed: %v", err)
	}
	if chart == "" {
		t.Error("expected non-empty chart")
	}

	if _, err := PlotJoint(result, 3, 20, 5); err == nil {
		t.Error("expected out-of-range error")
	}
	if _, err := PlotJoint(&sim.Result{}, 0, 20, 5); err == nil {
		t.Error("expected empty-trajectory error")
	}
}
