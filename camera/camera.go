// Package camera maps arena planes onto screen panels.
package camera

import "gonum.org/v1/gonum/spatial/r3"

// Plane selects which two world axes a camera shows.
type Plane int

const (
	// PlaneTop looks down: world x to the right, world y up the screen.
	PlaneTop Plane = iota
	// PlaneSide looks along y: world x to the right, world z up the screen.
	PlaneSide
)

// Camera projects one arena plane into a screen rectangle with a uniform
// scale, keeping the world extents centred.
type Camera struct {
	Plane Plane

	// Screen rectangle
	X, Y, W, H float32

	// World extents on the horizontal (u) and vertical (v) plane axes
	MinU, MaxU, MinV, MaxV float64

	// Zoom level (1.0 = whole extent fits the panel)
	Zoom             float32
	MinZoom, MaxZoom float32
}

// New creates a camera that fits the given world extents into the panel.
func New(plane Plane, x, y, w, h float32, minU, maxU, minV, maxV float64) *Camera {
	return &Camera{
		Plane:   plane,
		X:       x,
		Y:       y,
		W:       w,
		H:       h,
		MinU:    minU,
		MaxU:    maxU,
		MinV:    minV,
		MaxV:    maxV,
		Zoom:    1.0,
		MinZoom: 0.5,
		MaxZoom: 4.0,
	}
}

// axes returns the plane coordinates of p.
func (c *Camera) axes(p r3.Vec) (u, v float64) {
	if c.Plane == PlaneSide {
		return p.X, p.Z
	}
	return p.X, p.Y
}

// Scale returns screen pixels per world metre.
func (c *Camera) Scale() float32 {
	su := c.W / float32(c.MaxU-c.MinU)
	sv := c.H / float32(c.MaxV-c.MinV)
	return min(su, sv) * c.Zoom
}

// Project converts a world point to screen coordinates.
func (c *Camera) Project(p r3.Vec) (sx, sy float32) {
	u, v := c.axes(p)
	s := c.Scale()
	cu := float32(c.MinU+c.MaxU) / 2
	cv := float32(c.MinV+c.MaxV) / 2
	sx = c.X + c.W/2 + (float32(u)-cu)*s
	sy = c.Y + c.H/2 - (float32(v)-cv)*s
	return sx, sy
}

// Unproject converts screen coordinates to plane coordinates.
func (c *Camera) Unproject(sx, sy float32) (u, v float64) {
	s := c.Scale()
	cu := float32(c.MinU+c.MaxU) / 2
	cv := float32(c.MinV+c.MaxV) / 2
	u = float64((sx-c.X-c.W/2)/s + cu)
	v = float64(cv - (sy-c.Y-c.H/2)/s)
	return u, v
}

// Length converts a world distance to pixels.
func (c *Camera) Length(d float64) float32 {
	return float32(d) * c.Scale()
}

// Contains reports whether a screen point lies inside the panel.
func (c *Camera) Contains(sx, sy float32) bool {
	return sx >= c.X && sx <= c.X+c.W && sy >= c.Y && sy <= c.Y+c.H
}

// Resize moves the camera to a new screen rectangle.
func (c *Camera) Resize(x, y, w, h float32) {
	c.X, c.Y, c.W, c.H = x, y, w, h
}

// SetZoom sets the zoom level, clamped to valid range.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset restores 1:1 zoom.
func (c *Camera) Reset() {
	c.Zoom = 1.0
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
