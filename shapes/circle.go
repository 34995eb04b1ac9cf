package shapes

import (
	"math"

	"github.com/gogpu/batch"
)

// Circle is a filled circle approximated by a triangle fan. The segment
// count is fixed when the circle is created, so radius changes never
// resize the vertex slot.
type Circle struct {
	b        *batch.Batch
	h        batch.Handle
	x, y     float32
	radius   float32
	segments int
	color    Color
	visible  bool
}

// NewCircle adds a circle centered at (x, y). segments <= 0 picks a count
// proportional to the radius.
func NewCircle(b *batch.Batch, group batch.GroupID, x, y, radius float32, segments int, c Color) (*Circle, error) {
	if segments <= 0 {
		segments = int(radius / 1.25)
		if segments < 14 {
			segments = 14
		}
	}
	cir := &Circle{b: b, x: x, y: y, radius: radius, segments: segments, color: c, visible: true}
	hnd, err := b.Add(group, State(), cir.vertices())
	if err != nil {
		return nil, err
	}
	cir.h = hnd
	return cir, nil
}

func (c *Circle) vertices() []float32 {
	step := 2 * math.Pi / float64(c.segments)
	xy := make([]float32, 0, c.segments*6)
	r := float64(c.radius)
	for i := 0; i < c.segments; i++ {
		a0 := step * float64(i)
		a1 := step * float64(i+1)
		xy = append(xy,
			c.x, c.y,
			c.x+float32(r*math.Cos(a0)), c.y+float32(r*math.Sin(a0)),
			c.x+float32(r*math.Cos(a1)), c.y+float32(r*math.Sin(a1)),
		)
	}
	return interleave(xy, c.color)
}

func (c *Circle) refresh() error {
	if !c.visible {
		return c.b.Update(c.h, make([]float32, c.segments*3*6))
	}
	return c.b.Update(c.h, c.vertices())
}

// SetPosition moves the circle center.
func (c *Circle) SetPosition(x, y float32) error {
	c.x, c.y = x, y
	return c.refresh()
}

// SetRadius changes the radius. The segment count stays fixed.
func (c *Circle) SetRadius(r float32) error {
	c.radius = r
	return c.refresh()
}

// SetColor recolors the circle.
func (c *Circle) SetColor(col Color) error {
	c.color = col
	return c.refresh()
}

// SetVisible toggles visibility without releasing the vertex slot.
func (c *Circle) SetVisible(v bool) error {
	if c.visible == v {
		return nil
	}
	c.visible = v
	return c.refresh()
}

// Visible reports whether the circle is drawn.
func (c *Circle) Visible() bool { return c.visible }

// Segments returns the fixed triangle-fan segment count.
func (c *Circle) Segments() int { return c.segments }

// Handle returns the underlying batch handle.
func (c *Circle) Handle() batch.Handle { return c.h }

// Delete removes the circle from its batch.
func (c *Circle) Delete() error {
	return c.b.Remove(c.h)
}
