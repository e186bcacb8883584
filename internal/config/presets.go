package config

import "sort"

// Presets are ready-made loop configurations. Each one is a complete
// config; Validate still runs on load paths that use them.
var Presets = map[string]*Config{
	"default": {
		Dt: 0.1, PeriodMs: 100, Ticks: 300, Mode: "angles",
		Pendulum:  PendulumConfig{Gravity: 9.81, Length: 1.0, Damping: 0.2, NoiseAmp: 1.0},
		InitState: InitStateConfig{TruthTheta: DefaultTruthTheta, EstTheta: -1.0},
		Filter:    FilterConfig{PInit: 1.0, RvInit: 0.001, RnInit: 0.1, Alpha: 0.9, Beta: 2.0},
	},
	"noisy": {
		Dt: 0.1, PeriodMs: 100, Ticks: 600, Mode: "measurement",
		Pendulum:  PendulumConfig{Gravity: 9.81, Length: 1.0, Damping: 0.2, NoiseAmp: 1.0},
		InitState: InitStateConfig{TruthTheta: DefaultTruthTheta, EstTheta: -1.0},
		Filter:    FilterConfig{PInit: 1.0, RvInit: 0.001, RnInit: 0.5, Alpha: 0.9, Beta: 2.0},
	},
	"coarse": {
		Dt: 0.25, PeriodMs: 250, Ticks: 200, Mode: "angles",
		Pendulum:  PendulumConfig{Gravity: 9.81, Length: 1.0, Damping: 0.2, NoiseAmp: 0.5},
		InitState: InitStateConfig{TruthTheta: 2.5, EstTheta: 0.0},
		Filter:    FilterConfig{PInit: 2.0, RvInit: 0.01, RnInit: 0.2, Alpha: 0.9, Beta: 2.0},
	},
}

func GetPreset(name string) *Config {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
