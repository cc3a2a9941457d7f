package preview

import (
	"math"

	"github.com/gdamore/tcell/v2"
)

// glyphs from sparse to dense.
var glyphs = []rune{'·', '∙', '•', '●', '█'}

// Glyph picks the character for a cell hit n times. Larger particles reach
// the dense glyphs with fewer hits.
func Glyph(hits int, particleSize float64) rune {
	if hits <= 0 {
		return ' '
	}
	weight := float64(hits) * math.Max(particleSize, 0.001) * 100
	idx := int(math.Log2(1 + weight))
	if idx >= len(glyphs) {
		idx = len(glyphs) - 1
	}
	return glyphs[idx]
}

func rgb(v float64) int32 {
	return int32(math.Round(math.Min(math.Max(v, 0), 1) * 255))
}

// Draw copies frame onto screen starting at the top-left corner. Empty cells
// are cleared to the background.
func Draw(screen tcell.Screen, frame *Frame, particleSize float64) {
	background := tcell.StyleDefault.Background(tcell.ColorBlack)

	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			cell := frame.At(x, y)
			if cell.Hits == 0 {
				screen.SetContent(x, y, ' ', nil, background)
				continue
			}
			c := cell.Color()
			style := background.Foreground(tcell.NewRGBColor(rgb(c.R), rgb(c.G), rgb(c.B)))
			screen.SetContent(x, y, Glyph(cell.Hits, particleSize), nil, style)
		}
	}
}

// DrawText writes a single-line label, truncated at the screen edge.
func DrawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	width, _ := screen.Size()
	for _, r := range text {
		if x >= width {
			return
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
