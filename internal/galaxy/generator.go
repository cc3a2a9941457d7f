package galaxy

import (
	"context"
	"math"
	"time"
)

// cancellation is polled once per this many particles
const cancelCheckInterval = 4096

// Per-axis jitter: magnitude when the sign draw falls below the threshold,
// and the (negative) magnitude otherwise.
type axisJitter struct {
	threshold float64
	positive  float64
	negative  float64
}

var (
	horizontalJitter = axisJitter{threshold: 0.5, positive: 2, negative: -2}
	verticalJitter   = axisJitter{threshold: 0.75, positive: 0.75, negative: -0.5}
)

func (a axisJitter) draw(rng RandomSource, power float64) float64 {
	magnitude := math.Pow(rng.Float64(), power)
	if rng.Float64() < a.threshold {
		return magnitude * a.positive
	}
	return magnitude * a.negative
}

// GeneratorFunc is the signature the controller drives.
type GeneratorFunc func(ctx context.Context, p Parameters, rng RandomSource) (*Buffer, error)

// Generate builds exactly p.Count particles arranged along p.Branches spiral arms.
func Generate(p Parameters, rng RandomSource) (*Buffer, error) {
	return GenerateContext(context.Background(), p, rng)
}

// GenerateContext is Generate with cancellation. A cancelled run returns
// ctx.Err() and no buffer.
func GenerateContext(ctx context.Context, p Parameters, rng RandomSource) (*Buffer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	buf := newBuffer(p)

	for i := 0; i < p.Count; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		radius := rng.Float64() * p.Radius
		spinAngle := radius * p.Spin
		branchAngle := BranchAngle(i, p.Branches)

		jx := horizontalJitter.draw(rng, p.RandomnessPower)
		jy := verticalJitter.draw(rng, p.RandomnessPower)
		jz := horizontalJitter.draw(rng, p.RandomnessPower)

		angle := branchAngle + spinAngle
		i3 := i * 3
		buf.Positions[i3] = float32(math.Cos(angle)*radius + jx)
		buf.Positions[i3+1] = float32(jy)
		buf.Positions[i3+2] = float32(math.Sin(angle)*radius + jz)

		mixed := Blend(p.InsideColor, p.OutsideColor, clamp01(radius/p.Radius))
		buf.Colors[i3] = float32(mixed.R)
		buf.Colors[i3+1] = float32(mixed.G)
		buf.Colors[i3+2] = float32(mixed.B)
	}

	buf.GeneratedAt = time.Now()
	return buf, nil
}

// BranchAngle is the base angle of the arm particle i belongs to. Arms are
// assigned by index residue, not drawn.
func BranchAngle(i, branches int) float64 {
	return float64(i%branches) / float64(branches) * 2 * math.Pi
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}
