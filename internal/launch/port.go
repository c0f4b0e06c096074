package launch

import (
	"fmt"
	"math/rand/v2"
)

// Default port range: [3000, 3500).
const (
	DefaultPortBase = 3000
	DefaultPortSpan = 500
)

// PortPicker draws ports uniformly from [base, base+span). Picks are not
// checked for collisions.
type PortPicker struct {
	base int
	span int
	rng  *rand.Rand
}

// NewPortPicker validates the range. A nil rng uses a randomly seeded source.
func NewPortPicker(base, span int, rng *rand.Rand) (*PortPicker, error) {
	if span <= 0 {
		return nil, fmt.Errorf("port span must be positive, got %d", span)
	}
	if base <= 0 || base+span-1 > 65535 {
		return nil, fmt.Errorf("port range %d+%d outside 1-65535", base, span)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &PortPicker{base: base, span: span, rng: rng}, nil
}

// Pick returns the next port.
func (p *PortPicker) Pick() int {
	return p.base + p.rng.IntN(p.span)
}
