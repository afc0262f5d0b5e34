package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/expcgm/internal/potentials"
	"github.com/san-kum/expcgm/internal/profile"
)

const (
	ShapeConstant    = "constant"
	ShapeGeneralized = "generalized"
	ShapeTabulated   = "tabulated"

	PotentialNFW        = "nfw"
	PotentialHernquist  = "hernquist"
	PotentialIsothermal = "isothermal"
	PotentialComposite  = "nfw+hernquist"

	IntegratorKronrod  = "kronrod"
	IntegratorLegendre = "legendre"
)

const (
	DefaultAlpha          = 1.5
	DefaultHernquistA     = 0.8
	DefaultHernquistScale = 0.05
	DefaultIsothermalV    = 1.0
	DefaultLegendreOrder  = 64
)

type Config struct {
	Name      string          `yaml:"name" toml:"name"`
	Shape     ShapeConfig     `yaml:"shape" toml:"shape"`
	Potential PotentialConfig `yaml:"potential" toml:"potential"`
	Support   SupportConfig   `yaml:"support" toml:"support"`
	Solver    SolverConfig    `yaml:"solver" toml:"solver"`
	Targets   []float64       `yaml:"targets" toml:"targets,omitempty"`
}

type ShapeConfig struct {
	Kind       string       `yaml:"kind" toml:"kind"`
	Alpha      float64      `yaml:"alpha" toml:"alpha"`
	Inner      float64      `yaml:"inner" toml:"inner"`
	Outer      float64      `yaml:"outer" toml:"outer"`
	Sharpness  float64      `yaml:"sharpness" toml:"sharpness"`
	Transition float64      `yaml:"transition" toml:"transition"`
	Table      []TablePoint `yaml:"table,omitempty" toml:"table,omitempty"`
}

type TablePoint struct {
	X     float64 `yaml:"x" toml:"x"`
	Alpha float64 `yaml:"alpha" toml:"alpha"`
}

type PotentialConfig struct {
	Kind           string  `yaml:"kind" toml:"kind"`
	ANFW           float64 `yaml:"a_nfw" toml:"a_nfw"`
	HernquistA     float64 `yaml:"hernquist_a" toml:"hernquist_a"`
	HernquistScale float64 `yaml:"hernquist_scale" toml:"hernquist_scale"`
	IsothermalV    float64 `yaml:"isothermal_v" toml:"isothermal_v"`
}

type SupportConfig struct {
	ThermalFraction float64 `yaml:"thermal_fraction" toml:"thermal_fraction"`
	NonThermalRatio float64 `yaml:"nonthermal_ratio" toml:"nonthermal_ratio"`
}

type SolverConfig struct {
	Epsilon       float64 `yaml:"epsilon" toml:"epsilon"`
	XRef          float64 `yaml:"x_ref" toml:"x_ref"`
	XMin          float64 `yaml:"x_min" toml:"x_min"`
	XMax          float64 `yaml:"x_max" toml:"x_max"`
	GridPoints    int     `yaml:"grid_points" toml:"grid_points"`
	Limit         int     `yaml:"limit" toml:"limit"`
	AbsTol        float64 `yaml:"abs_tol" toml:"abs_tol"`
	RelTol        float64 `yaml:"rel_tol" toml:"rel_tol"`
	RootTol       float64 `yaml:"root_tol" toml:"root_tol"`
	Integrator    string  `yaml:"integrator" toml:"integrator"`
	LegendreOrder int     `yaml:"legendre_order" toml:"legendre_order"`
}

func DefaultConfig() *Config {
	opts := profile.DefaultOptions()
	support := profile.DefaultSupport()
	return &Config{
		Name: "default",
		Shape: ShapeConfig{
			Kind:       ShapeConstant,
			Alpha:      DefaultAlpha,
			Inner:      1.0,
			Outer:      3.0,
			Sharpness:  1.0,
			Transition: 1.0,
		},
		Potential: PotentialConfig{
			Kind:           PotentialNFW,
			ANFW:           potentials.DefaultANFW,
			HernquistA:     DefaultHernquistA,
			HernquistScale: DefaultHernquistScale,
			IsothermalV:    DefaultIsothermalV,
		},
		Support: SupportConfig{
			ThermalFraction: support.ThermalFraction,
			NonThermalRatio: support.NonThermalRatio,
		},
		Solver: SolverConfig{
			Epsilon:       opts.Epsilon,
			XRef:          opts.XRef,
			XMin:          opts.XMin,
			XMax:          opts.XMax,
			GridPoints:    opts.GridPoints,
			Limit:         opts.Limit,
			AbsTol:        opts.AbsTol,
			RelTol:        opts.RelTol,
			RootTol:       opts.RootTol,
			Integrator:    IntegratorKronrod,
			LegendreOrder: DefaultLegendreOrder,
		},
	}
}

// Load reads a YAML or TOML run file, chosen by extension, over the
// defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver is Load with keys missing from the file taken from base, which
// is left unchanged.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()

	if isTOML(path) {
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("parse %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func (c *Config) Options() profile.Options {
	opts := profile.DefaultOptions()
	opts.Epsilon = c.Solver.Epsilon
	opts.XRef = c.Solver.XRef
	opts.XMin = c.Solver.XMin
	opts.XMax = c.Solver.XMax
	opts.GridPoints = c.Solver.GridPoints
	opts.Limit = c.Solver.Limit
	opts.AbsTol = c.Solver.AbsTol
	opts.RelTol = c.Solver.RelTol
	opts.RootTol = c.Solver.RootTol
	return opts
}

func (c *Config) SupportValue() profile.Support {
	return profile.Support{
		ThermalFraction: c.Support.ThermalFraction,
		NonThermalRatio: c.Support.NonThermalRatio,
	}
}

func (c *Config) Validate() error {
	switch c.Shape.Kind {
	case ShapeConstant, ShapeGeneralized:
	case ShapeTabulated:
		if len(c.Shape.Table) < 2 {
			return fmt.Errorf("%w: tabulated shape needs at least 2 points", profile.ErrParameterBounds)
		}
	default:
		return fmt.Errorf("unknown shape: %s", c.Shape.Kind)
	}

	switch c.Potential.Kind {
	case PotentialNFW, PotentialHernquist, PotentialIsothermal, PotentialComposite:
	default:
		return fmt.Errorf("unknown potential: %s", c.Potential.Kind)
	}

	switch c.Solver.Integrator {
	case IntegratorKronrod:
	case IntegratorLegendre:
		if c.Solver.LegendreOrder < 2 {
			return fmt.Errorf("%w: legendre order %d", profile.ErrParameterBounds, c.Solver.LegendreOrder)
		}
	default:
		return fmt.Errorf("unknown integrator: %s", c.Solver.Integrator)
	}

	if err := c.SupportValue().Validate(); err != nil {
		return err
	}
	return c.Options().Validate()
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Shape.Table = append([]TablePoint(nil), c.Shape.Table...)
	out.Targets = append([]float64(nil), c.Targets...)
	return &out
}

// Params flattens the active model parameters for run metadata.
func (c *Config) Params() map[string]float64 {
	p := map[string]float64{
		"epsilon":          c.Solver.Epsilon,
		"x_ref":            c.Solver.XRef,
		"thermal_fraction": c.Support.ThermalFraction,
		"nonthermal_ratio": c.Support.NonThermalRatio,
	}
	switch c.Shape.Kind {
	case ShapeConstant:
		p["alpha"] = c.Shape.Alpha
	case ShapeGeneralized:
		p["inner"] = c.Shape.Inner
		p["outer"] = c.Shape.Outer
		p["sharpness"] = c.Shape.Sharpness
		p["transition"] = c.Shape.Transition
	}
	switch c.Potential.Kind {
	case PotentialNFW:
		p["a_nfw"] = c.Potential.ANFW
	case PotentialHernquist:
		p["hernquist_a"] = c.Potential.HernquistA
		p["hernquist_scale"] = c.Potential.HernquistScale
	case PotentialIsothermal:
		p["isothermal_v"] = c.Potential.IsothermalV
	case PotentialComposite:
		p["a_nfw"] = c.Potential.ANFW
		p["hernquist_a"] = c.Potential.HernquistA
		p["hernquist_scale"] = c.Potential.HernquistScale
	}
	return p
}

// Set assigns one named parameter, using the keys reported by Params.
// Keys the configured shape or potential does not read are rejected, so a
// sweep cannot vary a value that never reaches the model.
func (c *Config) Set(key string, v float64) error {
	field := c.param(key)
	if field == nil {
		return fmt.Errorf("unknown parameter: %s", key)
	}
	if _, ok := c.Params()[key]; !ok {
		return fmt.Errorf("%w: parameter %s does not apply to shape %s with potential %s",
			profile.ErrParameterBounds, key, c.Shape.Kind, c.Potential.Kind)
	}
	*field = v
	return nil
}

func (c *Config) param(key string) *float64 {
	switch key {
	case "alpha":
		return &c.Shape.Alpha
	case "inner":
		return &c.Shape.Inner
	case "outer":
		return &c.Shape.Outer
	case "sharpness":
		return &c.Shape.Sharpness
	case "transition":
		return &c.Shape.Transition
	case "a_nfw":
		return &c.Potential.ANFW
	case "hernquist_a":
		return &c.Potential.HernquistA
	case "hernquist_scale":
		return &c.Potential.HernquistScale
	case "isothermal_v":
		return &c.Potential.IsothermalV
	case "thermal_fraction":
		return &c.Support.ThermalFraction
	case "nonthermal_ratio":
		return &c.Support.NonThermalRatio
	case "epsilon":
		return &c.Solver.Epsilon
	case "x_ref":
		return &c.Solver.XRef
	}
	return nil
}
