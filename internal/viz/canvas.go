package viz

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r2"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
const brailleBase = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a Braille dot canvas. Each cell holds 2x4 dots and one tint,
// the colour of the last particle drawn into it.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	tint          [][]color.RGBA
	tinted        [][]bool
}

func NewCanvas(w, h int) *Canvas {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		tint:   make([][]color.RGBA, h),
		tinted: make([][]bool, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.tint[i] = make([]color.RGBA, w)
		c.tinted[i] = make([]bool, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in sub-pixels.
func (c *Canvas) Dots() (int, int) { return c.Width * 2, c.Height * 4 }

// Set sets a dot at (x, y) in sub-pixel coordinates.
func (c *Canvas) Set(x, y int) {
	row, col, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

// SetColor sets a dot and tints its cell.
func (c *Canvas) SetColor(x, y int, tint color.RGBA) {
	row, col, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
	c.tint[row][col] = tint
	c.tinted[row][col] = true
}

func (c *Canvas) IsSet(x, y int) bool {
	row, col, ok := c.cell(x, y)
	if !ok {
		return false
	}
	return c.Grid[row][col]&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) cell(x, y int) (row, col int, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, false
	}
	return row, col, true
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBase
			c.tinted[i][j] = false
		}
	}
}

// FillDisk fills every dot whose centre lies within r dots of (cx, cy).
// Disks smaller than a dot still mark their centre.
func (c *Canvas) FillDisk(cx, cy int, r float64, tint color.RGBA) {
	if r < 1 {
		c.SetColor(cx, cy, tint)
		return
	}
	ri := int(math.Ceil(r))
	r2 := r * r
	for dy := -ri; dy <= ri; dy++ {
		for dx := -ri; dx <= ri; dx++ {
			if float64(dx*dx+dy*dy) <= r2 {
				c.SetColor(cx+dx, cy+dy, tint)
			}
		}
	}
}

// DrawCircle traces a circle outline.
func (c *Canvas) DrawCircle(cx, cy int, r float64) {
	steps := int(2*math.Pi*r) + 8
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		c.Set(cx+int(math.Round(r*math.Cos(a))), cy+int(math.Round(r*math.Sin(a))))
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		for j, ch := range row {
			if !c.tinted[i][j] {
				b.WriteRune(ch)
				continue
			}
			t := c.tint[i][j]
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", t.R, t.G, t.B)))
			b.WriteString(style.Render(string(ch)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport maps world coordinates of a container centred at the origin onto
// canvas dots, y pointing up.
type Viewport struct {
	scale  float64
	cx, cy float64
}

func NewViewport(c *Canvas, containerRadius float64) Viewport {
	w, h := c.Dots()
	side := math.Min(float64(w), float64(h)) - 1
	return Viewport{
		scale: side / (2 * containerRadius),
		cx:    float64(w-1) / 2,
		cy:    float64(h-1) / 2,
	}
}

func (v Viewport) Project(p r2.Vec) (int, int) {
	return int(math.Round(v.cx + p.X*v.scale)), int(math.Round(v.cy - p.Y*v.scale))
}

func (v Viewport) Scale(d float64) float64 { return d * v.scale }
