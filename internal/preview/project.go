// Package preview draws a galaxy buffer on a character grid: every particle
// is rotated about the vertical axis, projected orthographically and its
// color added to the cell it lands in.
package preview

import (
	"math"

	"galaxy-server/internal/galaxy"
)

// viewTilt is the camera elevation above the disc plane.
const viewTilt = math.Pi / 5

// cellAspect compensates for terminal cells being about twice as tall as wide.
const cellAspect = 0.5

// RotationSpeed is the spin of the whole galaxy in radians per second.
const RotationSpeed = 0.01

type Cell struct {
	R, G, B float64
	Hits    int
}

// Color returns the accumulated color clamped to [0,1] per channel.
func (c Cell) Color() galaxy.Color {
	return galaxy.Color{R: math.Min(c.R, 1), G: math.Min(c.G, 1), B: math.Min(c.B, 1)}
}

type Frame struct {
	Width  int
	Height int
	Cells  []Cell
}

func (f *Frame) At(x, y int) Cell {
	return f.Cells[y*f.Width+x]
}

// Project renders buf into a width×height frame. angle is the rotation about
// the vertical axis; scale maps one world unit to that many columns.
// Contributions are additive, so dense regions saturate toward white.
func Project(buf *galaxy.Buffer, width, height int, angle, scale float64) *Frame {
	frame := &Frame{Width: width, Height: height}
	if width <= 0 || height <= 0 {
		frame.Width, frame.Height = 0, 0
		return frame
	}
	frame.Cells = make([]Cell, width*height)

	sinA, cosA := math.Sincos(angle)
	sinT, cosT := math.Sincos(viewTilt)
	cx, cy := float64(width)/2, float64(height)/2

	for i := 0; i < buf.Len(); i++ {
		p := buf.Particle(i)
		x, y, z := p.Position[0], p.Position[1], p.Position[2]

		rx := x*cosA + z*sinA
		rz := -x*sinA + z*cosA
		sy := y*cosT - rz*sinT

		col := int(math.Floor(cx + rx*scale))
		row := int(math.Floor(cy - sy*scale*cellAspect))
		if col < 0 || col >= width || row < 0 || row >= height {
			continue
		}

		cell := &frame.Cells[row*width+col]
		cell.R += p.Color.R
		cell.G += p.Color.G
		cell.B += p.Color.B
		cell.Hits++
	}

	return frame
}

// Angle is the rotation reached after elapsed seconds.
func Angle(elapsedSeconds float64) float64 {
	return elapsedSeconds * RotationSpeed
}
