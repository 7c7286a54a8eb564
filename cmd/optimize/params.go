package main

import (
	"github.com/pthm-cable/intercept/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	apply   func(cfg *config.Config, v float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Motor hierarchy
			{Name: "motor_eta_rep", Path: "motor.eta_rep", Min: 0.005, Max: 0.3, Default: 0.05,
				apply: func(c *config.Config, v float64) { c.Motor.Hierarchy.EtaRep = float32(v) }},
			{Name: "motor_eta_w", Path: "motor.eta_w", Min: 1e-4, Max: 0.01, Default: 0.001,
				apply: func(c *config.Config, v float64) { c.Motor.Hierarchy.EtaW = float32(v) }},
			{Name: "motor_momentum", Path: "motor.momentum", Min: 0, Max: 0.99, Default: 0.9,
				apply: func(c *config.Config, v float64) { c.Motor.Hierarchy.Momentum = float32(v) }},
			{Name: "motor_gain", Path: "motor.gain", Min: 0.5, Max: 8, Default: 3,
				apply: func(c *config.Config, v float64) { c.Motor.Gain = float32(v) }},
			// Planning hierarchy
			{Name: "planning_eta_rep", Path: "planning.eta_rep", Min: 0.01, Max: 0.4, Default: 0.1,
				apply: func(c *config.Config, v float64) { c.Planning.Hierarchy.EtaRep = float32(v) }},
			{Name: "planning_eta_w", Path: "planning.eta_w", Min: 1e-4, Max: 0.01, Default: 0.001,
				apply: func(c *config.Config, v float64) { c.Planning.Hierarchy.EtaW = float32(v) }},
			{Name: "planning_momentum", Path: "planning.momentum", Min: 0, Max: 0.99, Default: 0.9,
				apply: func(c *config.Config, v float64) { c.Planning.Hierarchy.Momentum = float32(v) }},
			// Precision adaptation
			{Name: "precision_alpha", Path: "precision.alpha", Min: 0.001, Max: 0.5, Default: 0.05,
				apply: func(c *config.Config, v float64) { c.Precision.Alpha = float32(v) }},
			{Name: "precision_threshold", Path: "precision.threshold", Min: 0.01, Max: 1.0, Default: 0.1,
				apply: func(c *config.Config, v float64) { c.Precision.Threshold = float32(v) }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies clamped parameter values to cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].apply(cfg, v)
	}
}

// AsMap returns clamped values keyed by parameter name.
func (pv *ParamVector) AsMap(values []float64) map[string]float64 {
	m := make(map[string]float64, len(pv.Specs))
	for i, v := range pv.Clamp(values) {
		m[pv.Specs[i].Name] = v
	}
	return m
}
