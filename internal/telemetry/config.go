package telemetry

import "time"

// UpdateIntervals are the simulated periods of the three update loops.
type UpdateIntervals struct {
	Position time.Duration `json:"position" yaml:"position"`
	Status   time.Duration `json:"status" yaml:"status"`
	Metrics  time.Duration `json:"metrics" yaml:"metrics"`
}

// FailureInjection controls random fault injection in the status loop.
type FailureInjection struct {
	Enabled            bool          `json:"enabled" yaml:"enabled"`
	FailureRate        float64       `json:"failure_rate" yaml:"failure_rate"` // expected failures per robot per simulated hour
	Types              []FailureType `json:"types" yaml:"types"`
	MeanTimeToRecovery time.Duration `json:"mean_time_to_recovery" yaml:"mean_time_to_recovery"`
}

// Config is the generator's runtime configuration.
type Config struct {
	Enabled          bool             `json:"enabled" yaml:"enabled"`
	TimeAcceleration float64          `json:"time_acceleration" yaml:"time_acceleration"`
	UpdateIntervals  UpdateIntervals  `json:"update_intervals" yaml:"update_intervals"`
	FailureInjection FailureInjection `json:"failure_injection" yaml:"failure_injection"`
	RealismLevel     string           `json:"realism_level" yaml:"realism_level"`
	NoiseLevel       float64          `json:"noise_level" yaml:"noise_level"`
	BufferSize       int              `json:"buffer_size" yaml:"buffer_size"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		TimeAcceleration: 1,
		UpdateIntervals: UpdateIntervals{
			Position: 100 * time.Millisecond,
			Status:   time.Second,
			Metrics:  5 * time.Second,
		},
		FailureInjection: FailureInjection{
			Enabled:            false,
			FailureRate:        0.01,
			Types:              []FailureType{FailureBatteryDrain, FailureConnectionLoss},
			MeanTimeToRecovery: 30 * time.Second,
		},
		RealismLevel: "high",
		NoiseLevel:   0.1,
		BufferSize:   1024,
	}
}

// normalize replaces unusable values with defaults.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.TimeAcceleration <= 0 {
		c.TimeAcceleration = def.TimeAcceleration
	}
	if c.UpdateIntervals.Position <= 0 {
		c.UpdateIntervals.Position = def.UpdateIntervals.Position
	}
	if c.UpdateIntervals.Status <= 0 {
		c.UpdateIntervals.Status = def.UpdateIntervals.Status
	}
	if c.UpdateIntervals.Metrics <= 0 {
		c.UpdateIntervals.Metrics = def.UpdateIntervals.Metrics
	}
	if c.FailureInjection.FailureRate < 0 {
		c.FailureInjection.FailureRate = 0
	}
	if c.FailureInjection.MeanTimeToRecovery <= 0 {
		c.FailureInjection.MeanTimeToRecovery = def.FailureInjection.MeanTimeToRecovery
	}
	c.FailureInjection.Types = append([]FailureType(nil), c.FailureInjection.Types...)
	c.NoiseLevel = clamp(c.NoiseLevel, 0, 1)
	if c.BufferSize <= 0 {
		c.BufferSize = def.BufferSize
	}
	return c
}

// ConfigPatch is a partial Config. Nil fields keep the current value;
// FailureInjection replaces the whole block when set.
type ConfigPatch struct {
	Enabled          *bool             `json:"enabled,omitempty"`
	TimeAcceleration *float64          `json:"time_acceleration,omitempty"`
	UpdateIntervals  *UpdateIntervals  `json:"update_intervals,omitempty"`
	FailureInjection *FailureInjection `json:"failure_injection,omitempty"`
	RealismLevel     *string           `json:"realism_level,omitempty"`
	NoiseLevel       *float64          `json:"noise_level,omitempty"`
}

// Apply returns c with the patch merged in.
func (p ConfigPatch) Apply(c Config) Config {
	if p.Enabled != nil {
		c.Enabled = *p.Enabled
	}
	if p.TimeAcceleration != nil {
		c.TimeAcceleration = *p.TimeAcceleration
	}
	if p.UpdateIntervals != nil {
		iv := *p.UpdateIntervals
		if iv.Position > 0 {
			c.UpdateIntervals.Position = iv.Position
		}
		if iv.Status > 0 {
			c.UpdateIntervals.Status = iv.Status
		}
		if iv.Metrics > 0 {
			c.UpdateIntervals.Metrics = iv.Metrics
		}
	}
	if p.FailureInjection != nil {
		c.FailureInjection = *p.FailureInjection
	}
	if p.RealismLevel != nil {
		c.RealismLevel = *p.RealismLevel
	}
	if p.NoiseLevel != nil {
		c.NoiseLevel = *p.NoiseLevel
	}
	return c.normalize()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
