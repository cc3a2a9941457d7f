package galaxy

import (
	"errors"
	"fmt"
	"math"
	"strings"

	apperrors "galaxy-server/internal/shared/errors"
)

// ErrInvalidParameters matches every parameter validation failure via errors.Is.
var ErrInvalidParameters = errors.New("invalid galaxy parameters")

// ValidationError lists every invariant a Parameters value violates.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidParameters
}

// maxRadius keeps radius plus jitter representable as a float32 position.
const maxRadius = math.MaxFloat32 / 4

// Validate checks the generation invariants. A nil result guarantees that
// every position and color Generate writes is finite: radius is bounded
// by maxRadius and the largest spin angle, radius*spin, must be finite.
func (p Parameters) Validate() error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if p.Count <= 0 {
		addf("count must be positive, got %d", p.Count)
	}
	if p.Branches < 2 {
		addf("branches must be at least 2, got %d", p.Branches)
	}
	if !finite(p.Radius) || p.Radius <= 0 {
		addf("radius must be a positive finite number, got %v", p.Radius)
	} else if p.Radius > maxRadius {
		addf("radius must not exceed %v, got %v", maxRadius, p.Radius)
	}
	if !finite(p.RandomnessPower) || p.RandomnessPower <= 0 {
		addf("randomness_power must be a positive finite number, got %v", p.RandomnessPower)
	}
	if !finite(p.Spin) {
		addf("spin must be finite, got %v", p.Spin)
	} else if p.Radius > 0 && p.Radius <= maxRadius && !finite(p.Radius*p.Spin) {
		addf("spin angle radius*spin must be finite, got spin %v for radius %v", p.Spin, p.Radius)
	}
	if !finite(p.Randomness) {
		addf("randomness must be finite, got %v", p.Randomness)
	}
	if !finite(p.ParticleSize) || p.ParticleSize < 0 {
		addf("particle_size must be a non-negative finite number, got %v", p.ParticleSize)
	}
	if !p.InsideColor.Valid() {
		addf("inside_color channels must be within [0,1]")
	}
	if !p.OutsideColor.Valid() {
		addf("outside_color channels must be within [0,1]")
	}

	if len(problems) == 0 {
		return nil
	}
	return apperrors.WrapValidation(ErrInvalidParameters.Error(), &ValidationError{Problems: problems})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Range describes one slider of the parameter editing surface.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// stepTolerance absorbs float error in decimal steps such as 0.001.
const stepTolerance = 1e-6

func (r Range) contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// onGrid reports whether v is Min plus a whole number of steps. A range
// without a positive step accepts any value.
func (r Range) onGrid(v float64) bool {
	if r.Step <= 0 {
		return true
	}
	steps := (v - r.Min) / r.Step
	return math.Abs(steps-math.Round(steps)) <= stepTolerance
}

// Controls are the ranges the editing surface offers. Fields without a
// range (randomness, randomness_power, colors) are only checked by Validate.
type Controls struct {
	Count        Range `json:"count"`
	ParticleSize Range `json:"particle_size"`
	Radius       Range `json:"radius"`
	Branches     Range `json:"branches"`
	Spin         Range `json:"spin"`
}

var DefaultControls = Controls{
	Count:        Range{Min: 100, Max: 100000, Step: 100},
	ParticleSize: Range{Min: 0.001, Max: 0.1, Step: 0.001},
	Radius:       Range{Min: 0, Max: 10, Step: 0.001},
	Branches:     Range{Min: 2, Max: 10, Step: 1},
	Spin:         Range{Min: -2, Max: 2, Step: 0.001},
}

// Check rejects values outside the surface ranges or off their step grid.
func (c Controls) Check(p Parameters) error {
	var problems []string
	check := func(name string, r Range, v float64) {
		switch {
		case !r.contains(v):
			problems = append(problems, fmt.Sprintf("%s must be within [%v, %v], got %v", name, r.Min, r.Max, v))
		case !r.onGrid(v):
			problems = append(problems, fmt.Sprintf("%s must be %v plus a multiple of %v, got %v", name, r.Min, r.Step, v))
		}
	}

	check("count", c.Count, float64(p.Count))
	check("particle_size", c.ParticleSize, p.ParticleSize)
	check("radius", c.Radius, p.Radius)
	check("branches", c.Branches, float64(p.Branches))
	check("spin", c.Spin, p.Spin)

	if len(problems) == 0 {
		return nil
	}
	return apperrors.WrapValidation("parameters outside control ranges", &ValidationError{Problems: problems})
}
