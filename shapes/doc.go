// Package shapes provides retained solid-color primitives built on a
// batch: rectangles, lines, circles and convex polygons. Each shape owns
// one drawable; setters rewrite its vertices in place, so moving or
// recoloring a shape never restructures the batch.
//
//	b := batch.New(adapter)
//	r, _ := shapes.NewRectangle(b, batch.RootGroup, 10, 10, 100, 50, shapes.Color{R: 1, A: 1})
//	r.SetPosition(20, 30)
//	_ = b.Draw()
//
// Hidden shapes keep their vertex slot and write degenerate geometry into
// it, making visibility toggles cheap. Delete frees the slot for reuse.
package shapes
