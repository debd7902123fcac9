package admin

import (
	"fmt"
	"time"

	"robofleet-sim/internal/telemetry"
)

// configRequest is the PATCH /config body. Durations are strings such as
// "250ms" or "2s".
type configRequest struct {
	Enabled          *bool    `json:"enabled"`
	TimeAcceleration *float64 `json:"time_acceleration"`
	UpdateIntervals  *struct {
		Position string `json:"position"`
		Status   string `json:"status"`
		Metrics  string `json:"metrics"`
	} `json:"update_intervals"`
	FailureInjection *struct {
		Enabled            bool                    `json:"enabled"`
		FailureRate        float64                 `json:"failure_rate"`
		Types              []telemetry.FailureType `json:"types"`
		MeanTimeToRecovery string                  `json:"mean_time_to_recovery"`
	} `json:"failure_injection"`
	RealismLevel *string  `json:"realism_level"`
	NoiseLevel   *float64 `json:"noise_level"`
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", field)
	}
	return d, nil
}

func (r configRequest) patch() (telemetry.ConfigPatch, error) {
	p := telemetry.ConfigPatch{
		Enabled:          r.Enabled,
		TimeAcceleration: r.TimeAcceleration,
		RealismLevel:     r.RealismLevel,
		NoiseLevel:       r.NoiseLevel,
	}
	if r.TimeAcceleration != nil && *r.TimeAcceleration <= 0 {
		return p, fmt.Errorf("time_acceleration must be positive")
	}
	if iv := r.UpdateIntervals; iv != nil {
		var out telemetry.UpdateIntervals
		var err error
		if out.Position, err = parseDuration("update_intervals.position", iv.Position); err != nil {
			return p, err
		}
		if out.Status, err = parseDuration("update_intervals.status", iv.Status); err != nil {
			return p, err
		}
		if out.Metrics, err = parseDuration("update_intervals.metrics", iv.Metrics); err != nil {
			return p, err
		}
		p.UpdateIntervals = &out
	}
	if fi := r.FailureInjection; fi != nil {
		for _, ft := range fi.Types {
			if !ft.Valid() {
				return p, fmt.Errorf("failure_injection.types: %w: %q", telemetry.ErrUnknownFailure, ft)
			}
		}
		mttr, err := parseDuration("failure_injection.mean_time_to_recovery", fi.MeanTimeToRecovery)
		if err != nil {
			return p, err
		}
		p.FailureInjection = &telemetry.FailureInjection{
			Enabled:            fi.Enabled,
			FailureRate:        fi.FailureRate,
			Types:              fi.Types,
			MeanTimeToRecovery: mttr,
		}
	}
	return p, nil
}
