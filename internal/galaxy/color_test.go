package galaxy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff6030")
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.R)
	assert.InDelta(t, 96.0/255, c.G, 1e-12)
	assert.InDelta(t, 48.0/255, c.B, 1e-12)
	assert.Equal(t, "#ff6030", c.Hex())

	_, err = ParseColor("orange")
	assert.Error(t, err)
}

func TestBlend(t *testing.T) {
	a := Color{R: 0.1, G: 0.2, B: 0.3}
	b := Color{R: 0.9, G: 0.6, B: 0.3}

	assert.Equal(t, a, Blend(a, b, 0))
	assert.Equal(t, b, Blend(a, b, 1))

	mid := Blend(a, b, 0.5)
	assert.InDelta(t, 0.5, mid.R, 1e-12)
	assert.InDelta(t, 0.4, mid.G, 1e-12)
	assert.InDelta(t, 0.3, mid.B, 1e-12)

	quarter := Blend(a, b, 0.25)
	assert.InDelta(t, 0.1+(0.9-0.1)*0.25, quarter.R, 1e-12)
}

func TestColorJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		C Color `json:"c"`
	}{C: MustParseColor("#1b3984")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"#1b3984"}`, string(data))

	var decoded struct {
		C Color `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"c":"#ffffff"}`), &decoded))
	assert.Equal(t, Color{R: 1, G: 1, B: 1}, decoded.C)

	assert.Error(t, json.Unmarshal([]byte(`{"c":"#zzzzzz"}`), &decoded))
}

func TestColorValid(t *testing.T) {
	assert.True(t, Color{R: 0, G: 0.5, B: 1}.Valid())
	assert.False(t, Color{R: -0.1}.Valid())
	assert.False(t, Color{B: 1.5}.Valid())
}
