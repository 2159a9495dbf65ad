package qkd

import (
	"errors"
	"fmt"

	"github.com/Jaipikun/QKD-Simulation/internal/qkd/quantum"
)

var errExhausted = errors.New("script exhausted")

// scriptedOracle answers each request with the next scripted value and
// records the requested widths.
type scriptedOracle struct {
	values []uint64
	widths []int
}

func (s *scriptedOracle) DrawBits(n int) (uint64, error) {
	s.widths = append(s.widths, n)
	if len(s.values) == 0 {
		return 0, errExhausted
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v, nil
}

func script(values ...uint64) *scriptedOracle {
	return &scriptedOracle{values: values}
}

// countingOracle wraps another oracle and counts requests, failing once the
// budget is spent. A negative budget never fails.
type countingOracle struct {
	inner  quantum.RandomBitOracle
	calls  int
	budget int
}

func (c *countingOracle) DrawBits(n int) (uint64, error) {
	if c.budget >= 0 && c.calls >= c.budget {
		return 0, fmt.Errorf("budget of %d draws spent", c.budget)
	}
	c.calls++
	return c.inner.DrawBits(n)
}

func counting(inner quantum.RandomBitOracle) *countingOracle {
	return &countingOracle{inner: inner, budget: -1}
}
