package preview

import (
	"math"

	"galaxy-server/internal/galaxy"
)

type keyBinding struct {
	field string
	delta float64
}

// Lower case decreases, upper case increases.
var keyBindings = map[rune]keyBinding{
	'c': {"count", -5000}, 'C': {"count", 5000},
	'b': {"branches", -1}, 'B': {"branches", 1},
	's': {"spin", -0.1}, 'S': {"spin", 0.1},
	'r': {"radius", -0.5}, 'R': {"radius", 0.5},
	'z': {"particle_size", -0.005}, 'Z': {"particle_size", 0.005},
	'p': {"randomness_power", -0.5}, 'P': {"randomness_power", 0.5},
}

// KeyEdit applies the edit bound to key, clamped to the control ranges. It
// reports false for unbound keys and for edits that would leave p invalid,
// in which case p is returned unchanged.
func KeyEdit(p galaxy.Parameters, controls galaxy.Controls, key rune) (galaxy.Parameters, bool) {
	binding, ok := keyBindings[key]
	if !ok {
		return p, false
	}

	next := p
	switch binding.field {
	case "count":
		next.Count = int(clamp(float64(p.Count)+binding.delta, controls.Count))
	case "branches":
		next.Branches = int(clamp(float64(p.Branches)+binding.delta, controls.Branches))
	case "spin":
		next.Spin = round(clamp(p.Spin+binding.delta, controls.Spin), controls.Spin.Step)
	case "radius":
		next.Radius = round(clamp(p.Radius+binding.delta, controls.Radius), controls.Radius.Step)
	case "particle_size":
		next.ParticleSize = round(clamp(p.ParticleSize+binding.delta, controls.ParticleSize), controls.ParticleSize.Step)
	case "randomness_power":
		next.RandomnessPower = p.RandomnessPower + binding.delta
	}

	if next.Validate() != nil {
		return p, false
	}
	return next, true
}

func clamp(v float64, r galaxy.Range) float64 {
	return math.Min(math.Max(v, r.Min), r.Max)
}

// round snaps v to the slider step.
func round(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}
