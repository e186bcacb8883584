package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt         = 0.1
	DefaultPeriodMs   = 100
	DefaultTicks      = 300
	DefaultGravity    = 9.81
	DefaultLength     = 1.0
	DefaultDamping    = 0.2
	DefaultNoiseAmp   = 1.0
	DefaultTruthTheta = math.Pi / 2
	DefaultEstTheta   = -1.0
	DefaultPInit      = 1.0
	DefaultRvInit     = 0.001
	DefaultRnInit     = 0.1
	DefaultAlpha      = 0.9
	DefaultBeta       = 2.0
	DefaultKappa      = 0.0
)

type Config struct {
	Dt       float64 `yaml:"dt"`
	PeriodMs int     `yaml:"period_ms"`
	Ticks    int     `yaml:"ticks"`
	Seed     int64   `yaml:"seed"`
	Mode     string  `yaml:"mode"`

	Pendulum  PendulumConfig  `yaml:"pendulum"`
	InitState InitStateConfig `yaml:"init_state"`
	Filter    FilterConfig    `yaml:"filter"`
}

type PendulumConfig struct {
	Gravity  float64 `yaml:"gravity"`
	Length   float64 `yaml:"length"`
	Damping  float64 `yaml:"damping"`
	NoiseAmp float64 `yaml:"noise_amp"`
}

type InitStateConfig struct {
	TruthTheta float64 `yaml:"truth_theta"`
	TruthOmega float64 `yaml:"truth_omega"`
	EstTheta   float64 `yaml:"est_theta"`
	EstOmega   float64 `yaml:"est_omega"`
}

type FilterConfig struct {
	PInit  float64 `yaml:"p_init"`
	RvInit float64 `yaml:"rv_init"`
	RnInit float64 `yaml:"rn_init"`
	Alpha  float64 `yaml:"alpha"`
	Beta   float64 `yaml:"beta"`
	Kappa  float64 `yaml:"kappa"`
}

func DefaultConfig() *Config {
	return &Config{
		Dt:       DefaultDt,
		PeriodMs: DefaultPeriodMs,
		Ticks:    DefaultTicks,
		Mode:     "angles",
		Pendulum: PendulumConfig{
			Gravity:  DefaultGravity,
			Length:   DefaultLength,
			Damping:  DefaultDamping,
			NoiseAmp: DefaultNoiseAmp,
		},
		InitState: InitStateConfig{
			TruthTheta: DefaultTruthTheta,
			EstTheta:   DefaultEstTheta,
		},
		Filter: FilterConfig{
			PInit:  DefaultPInit,
			RvInit: DefaultRvInit,
			RnInit: DefaultRnInit,
			Alpha:  DefaultAlpha,
			Beta:   DefaultBeta,
			Kappa:  DefaultKappa,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations the loop cannot run. The truth simulator
// and the filter's process model must share the same dt, so the single Dt
// field feeds both.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %f", c.Dt)
	}
	if c.PeriodMs <= 0 {
		return fmt.Errorf("config: period_ms must be positive, got %d", c.PeriodMs)
	}
	if c.Pendulum.Length <= 0 {
		return fmt.Errorf("config: pendulum length must be positive, got %f", c.Pendulum.Length)
	}
	if c.Pendulum.NoiseAmp < 0 {
		return fmt.Errorf("config: noise_amp must be non-negative, got %f", c.Pendulum.NoiseAmp)
	}
	if c.Filter.PInit <= 0 || c.Filter.RvInit <= 0 || c.Filter.RnInit <= 0 {
		return fmt.Errorf("config: filter scales must be positive")
	}
	if c.Filter.Alpha <= 0 {
		return fmt.Errorf("config: sigma-point alpha must be positive, got %f", c.Filter.Alpha)
	}
	switch c.Mode {
	case "angles", "measurement":
	default:
		return fmt.Errorf("config: unknown telemetry mode %q", c.Mode)
	}
	return nil
}
