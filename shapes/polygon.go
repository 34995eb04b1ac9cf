package shapes

import (
	"errors"

	"github.com/gogpu/batch"
)

// ErrTooFewPoints is returned when a polygon has fewer than three points.
var ErrTooFewPoints = errors.New("shapes: polygon needs at least 3 points")

// ErrPointCount is returned by SetPoints when the new point count differs
// from the count the polygon was created with.
var ErrPointCount = errors.New("shapes: point count must stay fixed")

// Polygon is a filled convex polygon fanned from its first point. Concave
// inputs render with artifacts; no triangulation is attempted.
type Polygon struct {
	b       *batch.Batch
	h       batch.Handle
	points  [][2]float32
	color   Color
	visible bool
}

// NewPolygon adds a polygon to the batch under the given group. The point
// slice is copied.
func NewPolygon(b *batch.Batch, group batch.GroupID, points [][2]float32, c Color) (*Polygon, error) {
	if len(points) < 3 {
		return nil, ErrTooFewPoints
	}
	p := &Polygon{b: b, points: append([][2]float32(nil), points...), color: c, visible: true}
	hnd, err := b.Add(group, State(), p.vertices())
	if err != nil {
		return nil, err
	}
	p.h = hnd
	return p, nil
}

func (p *Polygon) vertices() []float32 {
	n := len(p.points)
	xy := make([]float32, 0, (n-2)*6)
	for i := 1; i < n-1; i++ {
		xy = append(xy,
			p.points[0][0], p.points[0][1],
			p.points[i][0], p.points[i][1],
			p.points[i+1][0], p.points[i+1][1],
		)
	}
	return interleave(xy, p.color)
}

func (p *Polygon) refresh() error {
	if !p.visible {
		return p.b.Update(p.h, make([]float32, (len(p.points)-2)*3*6))
	}
	return p.b.Update(p.h, p.vertices())
}

// SetPoints replaces the polygon outline. The number of points must match
// the original count so the vertex slot keeps its size.
func (p *Polygon) SetPoints(points [][2]float32) error {
	if len(points) != len(p.points) {
		return ErrPointCount
	}
	copy(p.points, points)
	return p.refresh()
}

// SetColor recolors the polygon.
func (p *Polygon) SetColor(c Color) error {
	p.color = c
	return p.refresh()
}

// SetVisible toggles visibility without releasing the vertex slot.
func (p *Polygon) SetVisible(v bool) error {
	if p.visible == v {
		return nil
	}
	p.visible = v
	return p.refresh()
}

// Visible reports whether the polygon is drawn.
func (p *Polygon) Visible() bool { return p.visible }

// Handle returns the underlying batch handle.
func (p *Polygon) Handle() batch.Handle { return p.h }

// Delete removes the polygon from its batch.
func (p *Polygon) Delete() error {
	return p.b.Remove(p.h)
}
