package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/expcgm/internal/profile"
)

// SVG draws one series against log10 x as a standalone SVG document.
// Returns "" when fewer than two rows are finite.
func SVG(rows []profile.Integrals, s Series, width, height int, strokeColor string) string {
	type point struct{ X, Y float64 }
	points := make([]point, 0, len(rows))
	for _, r := range rows {
		y := s.Value(r)
		if r.X <= 0 || math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		points = append(points, point{math.Log10(r.X), y})
	}
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	minY -= rangeY * 0.1
	rangeX *= 1.1
	rangeY *= 1.2

	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<title>%s vs log10 x</title>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, s.Name, strokeColor)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
