package config

import "sort"

var Presets = map[string]func() *Config{
	"default": DefaultConfig,
	"generalized": func() *Config {
		c := DefaultConfig()
		c.Name = "generalized"
		c.Shape.Kind = ShapeGeneralized
		c.Shape.Inner, c.Shape.Outer, c.Shape.Sharpness, c.Shape.Transition = 1.0, 3.0, 1.0, 1.0
		return c
	},
	"central_galaxy": func() *Config {
		c := DefaultConfig()
		c.Name = "central_galaxy"
		c.Potential.Kind = PotentialComposite
		return c
	},
	"extended": func() *Config {
		c := DefaultConfig()
		c.Name = "extended"
		c.Potential.Kind = PotentialIsothermal
		return c
	},
	"turbulent": func() *Config {
		c := DefaultConfig()
		c.Name = "turbulent"
		c.Support.ThermalFraction = 0.5
		c.Support.NonThermalRatio = 1.5
		return c
	},
	"cosmic_rays": func() *Config {
		c := DefaultConfig()
		c.Name = "cosmic_rays"
		c.Support.ThermalFraction = 0.5
		c.Support.NonThermalRatio = 3.0
		return c
	},
	"steep": func() *Config {
		c := DefaultConfig()
		c.Name = "steep"
		c.Shape.Kind = ShapeTabulated
		c.Shape.Table = []TablePoint{{X: 0.01, Alpha: 0.8}, {X: 1, Alpha: 1.5}, {X: 100, Alpha: 2.5}}
		return c
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
