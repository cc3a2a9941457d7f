package galaxy_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"galaxy-server/internal/galaxy"
	apperrors "galaxy-server/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays values in a loop. Each particle consumes seven
// draws: radius, then magnitude and sign for x, y and z.
type scriptedSource struct {
	values []float64
	next   int
}

func (s *scriptedSource) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

func baseParameters() galaxy.Parameters {
	return galaxy.Parameters{
		Count:           300,
		ParticleSize:    0.01,
		Radius:          5,
		Branches:        3,
		Spin:            1,
		Randomness:      0.2,
		RandomnessPower: 3,
		InsideColor:     galaxy.MustParseColor("#ff6030"),
		OutsideColor:    galaxy.MustParseColor("#1b3984"),
	}
}

func colorAt(buf *galaxy.Buffer, i int) [3]float32 {
	return [3]float32{buf.Colors[i*3], buf.Colors[i*3+1], buf.Colors[i*3+2]}
}

func float32Color(c galaxy.Color) [3]float32 {
	return [3]float32{float32(c.R), float32(c.G), float32(c.B)}
}

func TestGenerateProducesExactlyCountParticles(t *testing.T) {
	for _, count := range []int{1, 2, 100, 4097} {
		p := baseParameters()
		p.Count = count

		buf, err := galaxy.Generate(p, galaxy.NewSeededSource(1))
		require.NoError(t, err)

		assert.Equal(t, count, buf.Len())
		assert.Len(t, buf.Positions, count*3)
		assert.Len(t, buf.Colors, count*3)
	}
}

func TestGenerateColorEndpoints(t *testing.T) {
	p := baseParameters()
	p.Count = 6

	t.Run("center radius yields inside color", func(t *testing.T) {
		buf, err := galaxy.Generate(p, &scriptedSource{values: []float64{0, 0.3, 0.2, 0.3, 0.2, 0.3, 0.2}})
		require.NoError(t, err)
		for i := 0; i < buf.Len(); i++ {
			assert.Equal(t, float32Color(p.InsideColor), colorAt(buf, i))
		}
	})

	t.Run("rim radius yields outside color", func(t *testing.T) {
		buf, err := galaxy.Generate(p, &scriptedSource{values: []float64{1, 0.3, 0.2, 0.3, 0.2, 0.3, 0.2}})
		require.NoError(t, err)
		for i := 0; i < buf.Len(); i++ {
			assert.Equal(t, float32Color(p.OutsideColor), colorAt(buf, i))
		}
	})
}

func TestGenerateColorsAreConvexCombinations(t *testing.T) {
	p := baseParameters()
	p.Count = 2000

	buf, err := galaxy.Generate(p, galaxy.NewSeededSource(99))
	require.NoError(t, err)

	in, out := p.InsideColor, p.OutsideColor
	within := func(v, a, b float64) bool {
		lo, hi := math.Min(a, b), math.Max(a, b)
		return v >= lo-1e-6 && v <= hi+1e-6
	}
	for i := 0; i < buf.Len(); i++ {
		c := buf.Particle(i).Color
		require.True(t, within(c.R, in.R, out.R), "particle %d red %v", i, c.R)
		require.True(t, within(c.G, in.G, out.G), "particle %d green %v", i, c.G)
		require.True(t, within(c.B, in.B, out.B), "particle %d blue %v", i, c.B)
	}
}

func TestBranchAngleByIndexResidue(t *testing.T) {
	want := []float64{0, 2 * math.Pi / 3, 4 * math.Pi / 3}
	for i := 0; i < 9; i++ {
		assert.InDelta(t, want[i%3], galaxy.BranchAngle(i, 3), 1e-12, "index %d", i)
	}
}

func TestGenerateBranchAssignment(t *testing.T) {
	p := baseParameters()
	p.Count = 9
	p.Spin = 0

	// half radius, zero jitter magnitude: each particle sits on its arm axis
	buf, err := galaxy.Generate(p, &scriptedSource{values: []float64{0.5, 0, 0.1, 0, 0.1, 0, 0.1}})
	require.NoError(t, err)

	for i := 0; i < buf.Len(); i++ {
		pos := buf.Particle(i).Position
		angle := math.Atan2(pos[2], pos[0])
		if angle < 0 {
			angle += 2 * math.Pi
		}
		assert.InDelta(t, galaxy.BranchAngle(i, 3), angle, 1e-5, "particle %d", i)
		assert.InDelta(t, 2.5, math.Hypot(pos[0], pos[2]), 1e-5, "particle %d", i)
		assert.Zero(t, pos[1])
	}
}

func TestGenerateJitterSigns(t *testing.T) {
	p := baseParameters()
	p.Count = 1

	// zero radius leaves jitter as the whole position; full magnitude draws
	positive, err := galaxy.Generate(p, &scriptedSource{values: []float64{0, 1, 0.1, 1, 0.1, 1, 0.1}})
	require.NoError(t, err)
	assert.Equal(t, [3]float64{2, 0.75, 2}, positive.Particle(0).Position)

	negative, err := galaxy.Generate(p, &scriptedSource{values: []float64{0, 1, 0.9, 1, 0.9, 1, 0.9}})
	require.NoError(t, err)
	assert.Equal(t, [3]float64{-2, -0.5, -2}, negative.Particle(0).Position)

	// the vertical threshold is 0.75, the horizontal one 0.5
	mixed, err := galaxy.Generate(p, &scriptedSource{values: []float64{0, 1, 0.6, 1, 0.6, 1, 0.6}})
	require.NoError(t, err)
	assert.Equal(t, [3]float64{-2, 0.75, -2}, mixed.Particle(0).Position)
}

func TestGenerateRandomnessPowerTightensJitter(t *testing.T) {
	p := baseParameters()
	p.Count = 1

	src := []float64{0, 0.5, 0.1, 0.5, 0.1, 0.5, 0.1}
	p.RandomnessPower = 1
	loose, err := galaxy.Generate(p, &scriptedSource{values: src})
	require.NoError(t, err)

	p.RandomnessPower = 3
	tight, err := galaxy.Generate(p, &scriptedSource{values: src})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, loose.Particle(0).Position[0], 1e-6)
	assert.InDelta(t, 0.25, tight.Particle(0).Position[0], 1e-6)
}

func TestGenerateIsReproducibleWithSeededSource(t *testing.T) {
	p := baseParameters()
	p.Count = 5000

	first, err := galaxy.Generate(p, galaxy.NewSeededSource(2024))
	require.NoError(t, err)
	second, err := galaxy.Generate(p, galaxy.NewSeededSource(2024))
	require.NoError(t, err)
	other, err := galaxy.Generate(p, galaxy.NewSeededSource(2025))
	require.NoError(t, err)

	assert.Equal(t, first.Positions, second.Positions)
	assert.Equal(t, first.Colors, second.Colors)
	assert.NotEqual(t, first.Positions, other.Positions)
}

func TestGenerateLargeGalaxyIsFinite(t *testing.T) {
	p := baseParameters()
	p.Count = 100000
	p.Branches = 3
	p.Radius = 5
	p.RandomnessPower = 3

	buf, err := galaxy.Generate(p, galaxy.NewRandomSource())
	require.NoError(t, err)
	require.Equal(t, 100000, buf.Len())

	for i, v := range buf.Positions {
		f := float64(v)
		require.False(t, math.IsNaN(f) || math.IsInf(f, 0), "position component %d is %v", i, v)
	}
	for i, v := range buf.Colors {
		f := float64(v)
		require.False(t, math.IsNaN(f) || math.IsInf(f, 0), "color component %d is %v", i, v)
		require.True(t, f >= 0 && f <= 1, "color component %d is %v", i, v)
	}
}

func TestGenerateLargestAcceptedRadiusIsFinite(t *testing.T) {
	p := baseParameters()
	p.Radius = math.MaxFloat32 / 4
	p.Spin = 2
	require.NoError(t, p.Validate())

	buf, err := galaxy.Generate(p, galaxy.NewSeededSource(9))
	require.NoError(t, err)
	for i, v := range buf.Positions {
		f := float64(v)
		require.False(t, math.IsNaN(f) || math.IsInf(f, 0), "position component %d is %v", i, v)
	}
}

func TestGenerateRejectsInvalidParameters(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(p *galaxy.Parameters)
		problem string
	}{
		{"zero radius", func(p *galaxy.Parameters) { p.Radius = 0 }, "radius"},
		{"negative radius", func(p *galaxy.Parameters) { p.Radius = -1 }, "radius"},
		{"single branch", func(p *galaxy.Parameters) { p.Branches = 1 }, "branches"},
		{"zero count", func(p *galaxy.Parameters) { p.Count = 0 }, "count"},
		{"zero power", func(p *galaxy.Parameters) { p.RandomnessPower = 0 }, "randomness_power"},
		{"nan spin", func(p *galaxy.Parameters) { p.Spin = math.NaN() }, "spin"},
		{"radius beyond float32", func(p *galaxy.Parameters) { p.Radius = 1e39 }, "radius"},
		{"huge radius with spin", func(p *galaxy.Parameters) { p.Radius = 1e308; p.Spin = 2 }, "radius"},
		{"spin angle overflows", func(p *galaxy.Parameters) { p.Radius = 1e37; p.Spin = 1e300 }, "spin"},
		{"color out of range", func(p *galaxy.Parameters) { p.InsideColor = galaxy.Color{R: 2} }, "inside_color"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := baseParameters()
			tc.mutate(&p)

			buf, err := galaxy.Generate(p, galaxy.NewSeededSource(1))
			require.Error(t, err)
			assert.Nil(t, buf)

			assert.ErrorIs(t, err, galaxy.ErrInvalidParameters)
			assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetType(err))

			var verr *galaxy.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Problems, 1)
			assert.Contains(t, verr.Problems[0], tc.problem)
		})
	}
}

func TestGenerateContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf, err := galaxy.GenerateContext(ctx, baseParameters(), galaxy.NewSeededSource(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, buf)
}
