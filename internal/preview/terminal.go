package preview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/coreman2200/tubestage/internal/layout"
	"github.com/coreman2200/tubestage/internal/pixel"
)

const cellGlyph = "██"

var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))

// Terminal renders frame as colored blocks, two characters per stage
// column, sampling at most rows rows. A marker line under the wall points
// at stage x=0.
func Terminal(space layout.Space, frame pixel.Frame, rows int) string {
	if space.N <= 0 || space.H <= 0 || frame.W != space.N || frame.H != space.H {
		return dimStyle.Render("(empty stage)")
	}
	if rows < 1 || rows > space.H {
		rows = space.H
	}

	styles := map[pixel.RGB]lipgloss.Style{}
	var b strings.Builder
	for r := 0; r < rows; r++ {
		y := r * space.H / rows
		for u := 0; u < space.N; u++ {
			c := frame.At(u, y)
			st, ok := styles[c]
			if !ok {
				st = lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex()))
				styles[c] = st
			}
			b.WriteString(st.Render(cellGlyph))
		}
		b.WriteByte('\n')
	}

	marker := make([]byte, 0, 2*space.N)
	for u := 0; u < space.N; u++ {
		if u == space.Center {
			marker = append(marker, "^ "...)
		} else {
			marker = append(marker, "  "...)
		}
	}
	b.WriteString(dimStyle.Render(strings.TrimRight(string(marker), " ")))
	return b.String()
}
