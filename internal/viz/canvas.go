package viz

import (
	"strings"

	"github.com/vortexntnu/stonefish/internal/algebra"
)

// Braille patterns pack 2x4 dots per character cell, offset 0x2800.
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a Braille pixel grid. Sub-pixel resolution is (Width*2) x
// (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
	return c
}

// Set lights the sub-pixel at (x, y). Out-of-range coordinates are
// silently dropped so callers can draw partially visible geometry.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// DrawLine rasterizes with Bresenham in sub-pixel coordinates.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawMarker lights a small cross around the sub-pixel.
func (c *Canvas) DrawMarker(x, y int) {
	c.Set(x, y)
	c.Set(x-1, y)
	c.Set(x+1, y)
	c.Set(x, y-1)
	c.Set(x, y+1)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Viewport maps a world-space window in the XY plane onto a canvas.
// World Y grows upward, canvas rows grow downward.
type Viewport struct {
	MinX, MaxX float64
	MinY, MaxY float64
	canvas     *Canvas
}

func NewViewport(c *Canvas, minX, maxX, minY, maxY float64) *Viewport {
	if maxX <= minX {
		maxX = minX + 1
	}
	if maxY <= minY {
		maxY = minY + 1
	}
	return &Viewport{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY, canvas: c}
}

func (v *Viewport) project(p algebra.Vec3) (int, int) {
	w := float64(v.canvas.Width * 2)
	h := float64(v.canvas.Height * 4)
	x := (p.X - v.MinX) / (v.MaxX - v.MinX) * w
	y := h - (p.Y-v.MinY)/(v.MaxY-v.MinY)*h
	return int(x), int(y)
}

// DrawSegment draws a world-space line between two points, projecting
// onto the XY plane.
func (v *Viewport) DrawSegment(a, b algebra.Vec3) {
	x0, y0 := v.project(a)
	x1, y1 := v.project(b)
	v.canvas.DrawLine(x0, y0, x1, y1)
}

// DrawChain connects consecutive world points and marks each one, the
// usual rendering for an articulated linkage.
func (v *Viewport) DrawChain(points []algebra.Vec3) {
	for i := 0; i < len(points)-1; i++ {
		v.DrawSegment(points[i], points[i+1])
	}
	for _, p := range points {
		x, y := v.project(p)
		v.canvas.DrawMarker(x, y)
	}
}
