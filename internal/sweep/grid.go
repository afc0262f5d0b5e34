package sweep

import (
	"fmt"
	"sort"
	"strings"
)

// Grid is the cartesian product of named parameter values.
type Grid struct {
	names  []string
	values [][]float64
}

func NewGrid() *Grid {
	return &Grid{}
}

// Add appends an axis. Axes vary slowest-first in the order added.
func (g *Grid) Add(name string, values ...float64) *Grid {
	g.names = append(g.names, name)
	g.values = append(g.values, values)
	return g
}

func (g *Grid) Size() int {
	if len(g.names) == 0 {
		return 0
	}
	n := 1
	for _, v := range g.values {
		n *= len(v)
	}
	return n
}

// Points enumerates every combination.
func (g *Grid) Points() []map[string]float64 {
	if g.Size() == 0 {
		return nil
	}
	out := make([]map[string]float64, 0, g.Size())
	g.walk(0, make(map[string]float64), &out)
	return out
}

func (g *Grid) walk(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.names) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	name := g.names[depth]
	for _, v := range g.values[depth] {
		current[name] = v
		g.walk(depth+1, current, out)
	}
}

// Cases turns every grid point into a sweep case.
func (g *Grid) Cases(build func(params map[string]float64) Builder) []Case {
	points := g.Points()
	cases := make([]Case, len(points))
	for i, p := range points {
		cases[i] = Case{Label: Label(p), Params: p, Build: build(p)}
	}
	return cases
}

// Label renders parameters as "a=1 b=2" with keys sorted.
func Label(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, params[k])
	}
	return strings.Join(parts, " ")
}
