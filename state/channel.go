package state

// Channel is the inbound link to a single router: an unbounded,
// order-preserving queue of packets. Any router holding a reference may
// push; only the owning router drains it. All channel operations are
// non-blocking.
type Channel struct {
	packets []Packet
}

func (c *Channel) Push(p Packet) {
	c.packets = append(c.packets, p)
}

// Pop removes and returns the oldest packet, or false if the channel is
// empty.
func (c *Channel) Pop() (Packet, bool) {
	if len(c.packets) == 0 {
		return nil, false
	}
	p := c.packets[0]
	c.packets = c.packets[1:]
	return p, true
}

func (c *Channel) Len() int {
	return len(c.packets)
}

// Clear discards all buffered packets without processing them.
func (c *Channel) Clear() {
	c.packets = nil
}
