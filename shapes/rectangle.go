package shapes

import "github.com/gogpu/batch"

// Rectangle is an axis-aligned filled rectangle anchored at its
// bottom-left corner.
type Rectangle struct {
	b       *batch.Batch
	h       batch.Handle
	x, y    float32
	w, hgt  float32
	color   Color
	visible bool
}

// NewRectangle adds a rectangle to the batch under the given group.
func NewRectangle(b *batch.Batch, group batch.GroupID, x, y, w, h float32, c Color) (*Rectangle, error) {
	r := &Rectangle{b: b, x: x, y: y, w: w, hgt: h, color: c, visible: true}
	hnd, err := b.Add(group, State(), r.vertices())
	if err != nil {
		return nil, err
	}
	r.h = hnd
	return r, nil
}

func (r *Rectangle) vertices() []float32 {
	x1, y1 := r.x, r.y
	x2, y2 := r.x+r.w, r.y+r.hgt
	xy := []float32{
		x1, y1, x2, y1, x2, y2,
		x1, y1, x2, y2, x1, y2,
	}
	return interleave(xy, r.color)
}

func (r *Rectangle) refresh() error {
	if !r.visible {
		return r.b.Update(r.h, make([]float32, 6*6))
	}
	return r.b.Update(r.h, r.vertices())
}

// SetPosition moves the bottom-left corner.
func (r *Rectangle) SetPosition(x, y float32) error {
	r.x, r.y = x, y
	return r.refresh()
}

// SetSize changes the width and height.
func (r *Rectangle) SetSize(w, h float32) error {
	r.w, r.hgt = w, h
	return r.refresh()
}

// SetColor recolors the rectangle.
func (r *Rectangle) SetColor(c Color) error {
	r.color = c
	return r.refresh()
}

// SetVisible toggles visibility without releasing the vertex slot.
func (r *Rectangle) SetVisible(v bool) error {
	if r.visible == v {
		return nil
	}
	r.visible = v
	return r.refresh()
}

// Visible reports whether the rectangle is drawn.
func (r *Rectangle) Visible() bool { return r.visible }

// Handle returns the underlying batch handle.
func (r *Rectangle) Handle() batch.Handle { return r.h }

// Delete removes the rectangle from its batch. The shape must not be
// used afterwards.
func (r *Rectangle) Delete() error {
	return r.b.Remove(r.h)
}
