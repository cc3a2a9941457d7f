package galaxy

import (
	"encoding/json"
	"time"
)

// Parameters is an immutable snapshot of the tunable galaxy settings.
// ParticleSize and Randomness are carried for the rendering side only;
// Generate never reads them.
type Parameters struct {
	Count           int     `json:"count"`
	ParticleSize    float64 `json:"particle_size"`
	Radius          float64 `json:"radius"`
	Branches        int     `json:"branches"`
	Spin            float64 `json:"spin"`
	Randomness      float64 `json:"randomness"`
	RandomnessPower float64 `json:"randomness_power"`
	InsideColor     Color   `json:"inside_color"`
	OutsideColor    Color   `json:"outside_color"`
	Seed            *uint64 `json:"seed,omitempty"`
}

// WithSeed returns a copy of p that generates reproducibly from seed.
func (p Parameters) WithSeed(seed uint64) Parameters {
	p.Seed = &seed
	return p
}

// Seeded reports whether p pins its random stream.
func (p Parameters) Seeded() bool {
	return p.Seed != nil
}

// Color is an RGB triple with channels in [0,1].
type Color struct {
	R float64
	G float64
	B float64
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Hex())
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Particle is a read-only view of one entry of a Buffer.
type Particle struct {
	Position [3]float64
	Color    Color
}

// Buffer holds a generated point cloud as two parallel float32 arrays,
// three components per particle, in generation order.
type Buffer struct {
	Positions   []float32
	Colors      []float32
	Params      Parameters
	Epoch       uint64
	GeneratedAt time.Time
}

func newBuffer(p Parameters) *Buffer {
	return &Buffer{
		Positions: make([]float32, p.Count*3),
		Colors:    make([]float32, p.Count*3),
		Params:    p,
	}
}

// Len returns the number of particles.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Positions) / 3
}

func (b *Buffer) Particle(i int) Particle {
	i3 := i * 3
	return Particle{
		Position: [3]float64{
			float64(b.Positions[i3]),
			float64(b.Positions[i3+1]),
			float64(b.Positions[i3+2]),
		},
		Color: Color{
			R: float64(b.Colors[i3]),
			G: float64(b.Colors[i3+1]),
			B: float64(b.Colors[i3+2]),
		},
	}
}

// Snapshot is a finalized parameter set as stored in the database.
type Snapshot struct {
	ID         int        `json:"id"`
	Parameters Parameters `json:"parameters"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

// State is the RegenerationController lifecycle state.
type State string

const (
	StateIdle         State = "idle"
	StateRegenerating State = "regenerating"
)

// Status summarizes the published buffer for API consumers.
type Status struct {
	State       State      `json:"state"`
	Epoch       uint64     `json:"epoch"`
	Count       int        `json:"count"`
	Seeded      bool       `json:"seeded"`
	GeneratedAt *time.Time `json:"generated_at"`
}
