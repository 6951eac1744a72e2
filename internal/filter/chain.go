package filter

import (
	"strings"

	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

// Chain applies a fixed sequence of filters. Apply updates the state of the
// stateful filters it holds, so a Chain must only be driven from one goroutine
// and its order must not change between frames.
type Chain struct {
	filters []Filter
	enabled bool
}

func NewChain(filters ...Filter) *Chain {
	return &Chain{
		filters: filters,
		enabled: true,
	}
}

// Apply runs every filter in order. A disabled chain returns the input untouched.
func (c *Chain) Apply(in *data.DepthMap) *data.DepthMap {
	if !c.enabled || in == nil {
		return in
	}
	out := in
	for _, f := range c.filters {
		out = f.Process(out)
	}
	return out
}

// Reset clears the history of every filter.
func (c *Chain) Reset() {
	for _, f := range c.filters {
		f.Reset()
	}
}

func (c *Chain) SetEnabled(enabled bool) {
	c.enabled = enabled
}

func (c *Chain) Enabled() bool {
	return c.enabled
}

// Scale is the product of the resampling factors of the chain, 1 when disabled.
func (c *Chain) Scale() float64 {
	s := 1.0
	if !c.enabled {
		return s
	}
	for _, f := range c.filters {
		if r, ok := f.(Resampler); ok {
			s *= r.Scale()
		}
	}
	return s
}

func (c *Chain) String() string {
	names := make([]string, len(c.filters))
	for i, f := range c.filters {
		names[i] = f.Name()
	}
	return strings.Join(names, " -> ")
}
