package layout

import "sync/atomic"

// IDCounter hands out unique uint64 identifiers, starting from 1 so that 0
// can stand for "no window".
type IDCounter struct {
	value atomic.Uint64
}

// Next returns the next unique id.
func (c *IDCounter) Next() uint64 {
	return c.value.Add(1)
}
