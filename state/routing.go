package state

// Node is an opaque router address. The core never interprets it beyond
// equality.
type Node string

// Entry is the best known path to one destination from a router's
// perspective.
type Entry struct {
	Nh   Node // next hop node
	Cost uint32
}

// Vector maps every known destination to the best known (next hop, cost)
// pair. A router's own address always maps to (self, 0).
type Vector map[Node]Entry

func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for dst, e := range v {
		out[dst] = e
	}
	return out
}

// AddCost adds two costs without wrapping around.
func AddCost(a, b uint32) uint32 {
	if a > ^uint32(0)-b {
		return ^uint32(0)
	}
	return a + b
}
