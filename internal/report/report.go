// Package report renders solved profiles for the terminal: ASCII plots of
// the tabulated integrals and styled summary panels.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/expcgm/internal/profile"
	"github.com/san-kum/expcgm/internal/solver"
	"github.com/san-kum/expcgm/internal/storage"
)

const (
	DefaultHeight = 10
	DefaultWidth  = 80
)

// Series extracts one plotted quantity from a table row.
type Series struct {
	Name  string
	Value func(profile.Integrals) float64
}

var (
	SeriesF    = Series{"F(x)", func(in profile.Integrals) float64 { return in.F() }}
	SeriesNorm = Series{"log10 P0 = -log10 I(x)", func(in profile.Integrals) float64 { return -math.Log10(in.I) }}
	SeriesI    = Series{"log10 I(x)", func(in profile.Integrals) float64 { return math.Log10(in.I) }}
)

func SeriesByName(name string) (Series, error) {
	switch name {
	case "F", "f":
		return SeriesF, nil
	case "norm":
		return SeriesNorm, nil
	case "I", "i":
		return SeriesI, nil
	}
	return Series{}, fmt.Errorf("unknown series: %s (available: F, norm, I)", name)
}

// Plot draws each series against the row index, which is log-spaced in x.
func Plot(w io.Writer, rows []profile.Integrals, height, width int, series ...Series) error {
	if len(rows) < 2 {
		return fmt.Errorf("need at least 2 rows to plot, got %d", len(rows))
	}
	span := fmt.Sprintf("x = %.3g .. %.3g (log)", rows[0].X, rows[len(rows)-1].X)

	for _, s := range series {
		data := make([]float64, len(rows))
		for i, r := range rows {
			data[i] = s.Value(r)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(s.Name+", "+span),
		)
		if _, err := fmt.Fprintf(w, "%s\n\n", graph); err != nil {
			return err
		}
	}
	return nil
}

// PlotShape draws α on a log grid of n points between xMin and xMax.
func PlotShape(w io.Writer, shape profile.Shape, xMin, xMax float64, n, height, width int) error {
	if n < 2 || !(xMin > 0) || !(xMax > xMin) {
		return fmt.Errorf("%w: shape grid [%g, %g] with %d points", profile.ErrParameterBounds, xMin, xMax, n)
	}
	data := make([]float64, n)
	step := math.Log(xMax/xMin) / float64(n-1)
	for i := range data {
		data[i] = shape.Alpha(xMin * math.Exp(step*float64(i)))
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("alpha(x), x = %.3g .. %.3g (log)", xMin, xMax)),
	)
	_, err := fmt.Fprintf(w, "%s\n\n", graph)
	return err
}

// WriteTable prints the rows as aligned columns.
func WriteTable(w io.Writer, rows []profile.Integrals) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "x\tF\tI\tJ_phi\tJ_th\tJ_nt\tnorm")
	for _, r := range rows {
		fmt.Fprintf(tw, "%.4g\t%.6g\t%.6g\t%.6g\t%.6g\t%.6g\t%.6g\n",
			r.X, r.F(), r.I, r.JPhi, r.JTh, r.JNt, r.Norm())
	}
	return tw.Flush()
}

func field(label, value string) string {
	return Label.Render(fmt.Sprintf("%-16s", label)) + Value.Render(value)
}

// Equilibria renders solved targets and failures in one panel.
func Equilibria(title string, eqs []profile.Equilibrium, failures []storage.Failure) string {
	lines := []string{Title.Render(title)}
	for _, eq := range eqs {
		lines = append(lines,
			field(fmt.Sprintf("eps=%.4g", eq.Target), fmt.Sprintf("x_cgm=%.6g  P0=%.6g", eq.X, eq.PressureNorm)))
	}
	for _, f := range failures {
		lines = append(lines,
			Label.Render(fmt.Sprintf("%-16s", fmt.Sprintf("eps=%.4g", f.Target)))+Bad.Render(f.Error))
	}
	if len(eqs) == 0 && len(failures) == 0 {
		lines = append(lines, Subtle.Render("no targets solved"))
	}
	return Panel.Render(strings.Join(lines, "\n"))
}

// Diagnostics renders the table health check.
func Diagnostics(d solver.Diagnostics) string {
	mono := Good.Render("yes")
	if !d.Monotonic {
		mono = Bad.Render(fmt.Sprintf("no, F decreases after x=%.4g", d.ViolationX))
	}
	ceiling := "unbounded"
	if d.Bound {
		ceiling = fmt.Sprintf("%.6g", d.PhiInf)
	}

	lines := []string{
		Title.Render("table"),
		field("points", fmt.Sprintf("%d", d.Points)),
		Label.Render(fmt.Sprintf("%-16s", "monotonic")) + mono,
		field("F range", fmt.Sprintf("%.6g .. %.6g", d.FMin, d.FMax)),
		field("phi_inf", ceiling),
	}
	return Panel.Render(strings.Join(lines, "\n"))
}

// Run renders a stored run: parameters, equilibria and diagnostics.
func Run(meta storage.RunMetadata) string {
	lines := []string{
		Title.Render(meta.ID),
		field("model", fmt.Sprintf("%s / %s", meta.Shape, meta.Potential)),
		field("integrator", meta.Integrator),
		field("time", meta.Timestamp.Format("2006-01-02 15:04:05")),
	}
	for _, k := range sortedKeys(meta.Params) {
		lines = append(lines, field(k, fmt.Sprintf("%g", meta.Params[k])))
	}
	head := Panel.Render(strings.Join(lines, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left,
		head,
		Equilibria("equilibria", meta.Equilibria, meta.Failures),
		Diagnostics(meta.Diagnostics),
	)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
