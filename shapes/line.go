package shapes

import (
	"math"

	"github.com/gogpu/batch"
)

// Line is a filled segment of a given thickness between two points,
// rendered as a rotated quad.
type Line struct {
	b         *batch.Batch
	h         batch.Handle
	x1, y1    float32
	x2, y2    float32
	thickness float32
	color     Color
	visible   bool
}

// NewLine adds a line to the batch under the given group.
func NewLine(b *batch.Batch, group batch.GroupID, x1, y1, x2, y2, thickness float32, c Color) (*Line, error) {
	l := &Line{b: b, x1: x1, y1: y1, x2: x2, y2: y2, thickness: thickness, color: c, visible: true}
	hnd, err := b.Add(group, State(), l.vertices())
	if err != nil {
		return nil, err
	}
	l.h = hnd
	return l, nil
}

func (l *Line) vertices() []float32 {
	dx := float64(l.x2 - l.x1)
	dy := float64(l.y2 - l.y1)
	length := math.Hypot(dx, dy)
	var px, py float32
	if length > 0 {
		half := float64(l.thickness) / 2
		px = float32(-dy / length * half)
		py = float32(dx / length * half)
	}
	ax, ay := l.x1+px, l.y1+py
	bx, by := l.x1-px, l.y1-py
	cx, cy := l.x2-px, l.y2-py
	ex, ey := l.x2+px, l.y2+py
	xy := []float32{
		ax, ay, bx, by, cx, cy,
		ax, ay, cx, cy, ex, ey,
	}
	return interleave(xy, l.color)
}

func (l *Line) refresh() error {
	if !l.visible {
		return l.b.Update(l.h, make([]float32, 6*6))
	}
	return l.b.Update(l.h, l.vertices())
}

// SetPoints moves both endpoints.
func (l *Line) SetPoints(x1, y1, x2, y2 float32) error {
	l.x1, l.y1, l.x2, l.y2 = x1, y1, x2, y2
	return l.refresh()
}

// SetThickness changes the line width.
func (l *Line) SetThickness(t float32) error {
	l.thickness = t
	return l.refresh()
}

// SetColor recolors the line.
func (l *Line) SetColor(c Color) error {
	l.color = c
	return l.refresh()
}

// SetVisible toggles visibility without releasing the vertex slot.
func (l *Line) SetVisible(v bool) error {
	if l.visible == v {
		return nil
	}
	l.visible = v
	return l.refresh()
}

// Visible reports whether the line is drawn.
func (l *Line) Visible() bool { return l.visible }

// Handle returns the underlying batch handle.
func (l *Line) Handle() batch.Handle { return l.h }

// Delete removes the line from its batch.
func (l *Line) Delete() error {
	return l.b.Remove(l.h)
}
