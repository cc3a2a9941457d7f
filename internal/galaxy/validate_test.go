package galaxy

import (
	"errors"
	"testing"

	apperrors "galaxy-server/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParameters() Parameters {
	return Parameters{
		Count:           1000,
		ParticleSize:    0.01,
		Radius:          5,
		Branches:        3,
		Spin:            1,
		Randomness:      0.2,
		RandomnessPower: 3,
		InsideColor:     MustParseColor("#ff6030"),
		OutsideColor:    MustParseColor("#1b3984"),
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	p := validParameters()
	require.NoError(t, p.Validate())

	p.Count = -5
	p.Branches = 1
	p.Radius = 0
	p.RandomnessPower = -1

	err := p.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 4)
	assert.Contains(t, err.Error(), "invalid galaxy parameters")
	assert.Contains(t, err.Error(), "branches must be at least 2, got 1")
}

func TestControlsCheck(t *testing.T) {
	p := validParameters()
	require.NoError(t, DefaultControls.Check(p))

	p.Count = 100001
	p.Spin = 2.5
	err := DefaultControls.Check(p)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetType(err))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{
		"count must be within [100, 100000], got 100001",
		"spin must be within [-2, 2], got 2.5",
	}, verr.Problems)
}

func TestControlsRejectOffStepValues(t *testing.T) {
	p := validParameters()
	p.Count = 150
	p.Spin = 0.0005

	err := DefaultControls.Check(p)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{
		"count must be 100 plus a multiple of 100, got 150",
		"spin must be -2 plus a multiple of 0.001, got 0.0005",
	}, verr.Problems)
}

func TestControlsAcceptDecimalSteps(t *testing.T) {
	p := validParameters()
	p.ParticleSize = 0.037
	p.Radius = 7.321
	p.Spin = -1.999

	assert.NoError(t, DefaultControls.Check(p))
}

func TestControlsWithoutStepSkipGrid(t *testing.T) {
	controls := DefaultControls
	controls.Count.Step = 0

	p := validParameters()
	p.Count = 150
	assert.NoError(t, controls.Check(p))
}

func TestValidateBoundsRadiusAndSpinAngle(t *testing.T) {
	p := validParameters()
	p.Radius = 1e39
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)

	p = validParameters()
	p.Radius = maxRadius
	p.Spin = 2
	assert.NoError(t, p.Validate())

	p.Radius = 1e37
	p.Spin = 1e300
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)
}

func TestControlsAllowRangeBounds(t *testing.T) {
	p := validParameters()
	p.Count = 100
	p.ParticleSize = 0.1
	p.Radius = 10
	p.Branches = 10
	p.Spin = -2

	assert.NoError(t, DefaultControls.Check(p))
}
