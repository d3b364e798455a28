package core

import (
	"fmt"
	"maps"
	"slices"

	"github.com/encodeous/dvnet/perf"
	"github.com/encodeous/dvnet/state"
)

// Network owns the full set of routers and their channels and orchestrates
// the synchronized rounds of the protocol. Scheduling is strictly
// sequential: no operation here ever blocks or runs concurrently.
type Network struct {
	Channels map[state.Node]*state.Channel
	Routers  map[state.Node]*Router
	Tracer   Tracer
}

// NewNetwork builds a network from a set of directed edges. The address
// universe is the union of all edge endpoints; a duplicate edge overrides
// the earlier cost.
func NewNetwork(edges []state.Edge, tr Tracer) *Network {
	if tr == nil {
		tr = NopTracer{}
	}
	n := &Network{
		Channels: make(map[state.Node]*state.Channel),
		Routers:  make(map[state.Node]*Router),
		Tracer:   tr,
	}
	costs := make(map[state.Node]map[state.Node]uint32)
	for _, e := range edges {
		for _, addr := range []state.Node{e.From, e.To} {
			if _, ok := n.Channels[addr]; !ok {
				n.Channels[addr] = &state.Channel{}
				costs[addr] = make(map[state.Node]uint32)
			}
		}
		costs[e.From][e.To] = e.Cost
	}
	for addr := range n.Channels {
		outbound := make(map[state.Node]*state.Channel, len(costs[addr]))
		for dst := range costs[addr] {
			outbound[dst] = n.Channels[dst]
		}
		n.Routers[addr] = NewRouter(addr, costs[addr], n.Channels[addr], outbound)
	}
	return n
}

// Step broadcasts every vector, then drains every queue. Receivers never
// see a neighbour's update until the following RouteAll; the one-round
// propagation delay is intentional and must not be optimized away.
func (n *Network) Step() {
	n.SendAll()
	n.RouteAll()
	perf.Steps.Add(1)
}

// SendAll asks every router to advertise its vector. Routers only touch
// their own outbound channels, so order is immaterial.
func (n *Network) SendAll() {
	for _, r := range n.Routers {
		r.SendVector()
	}
}

// RouteAll asks every router to drain its inbound channel.
func (n *Network) RouteAll() {
	for _, r := range n.Routers {
		r.Route(n.Tracer)
	}
}

// IsStable reports whether every router has observed two consecutive idle
// rounds.
func (n *Network) IsStable() bool {
	for _, r := range n.Routers {
		if r.Converged != 0 {
			return false
		}
	}
	return true
}

// RunUntilConverged steps the network until every router is stable and
// returns the number of steps executed. Costs live on a finite lattice
// bounded below by zero and above by Infinity, so relaxation runs out of
// improvements after finitely many rounds.
func (n *Network) RunUntilConverged() int {
	steps := 0
	for !n.IsStable() {
		n.Step()
		steps++
	}
	return steps
}

// Reset restores every router to its topology-derived initial state and
// discards all buffered packets.
func (n *Network) Reset() {
	for _, r := range n.Routers {
		r.Reset()
	}
}

// SendData injects an application message into the sender's own inbound
// channel; the next time that router routes, the packet is forwarded along
// its best known path. The created packet is returned so callers can
// correlate it with trace events.
func (n *Network) SendData(from, to state.Node, payload string) (state.DataPacket, error) {
	ch, ok := n.Channels[from]
	if !ok {
		return state.DataPacket{}, fmt.Errorf("unknown source address %q", from)
	}
	pkt := state.NewDataPacket(from, to, payload)
	ch.Push(pkt)
	return pkt, nil
}

// SetLinkCost updates a router's direct link cost. If the new cost improves
// the current entry for that neighbour, the entry is rewritten immediately
// and the router is marked not-converged. A cost increase is only absorbed
// into the link table; relaxation alone can never raise an existing entry,
// so the old cost may persist until a reset.
func (n *Network) SetLinkCost(from, to state.Node, cost uint32) error {
	r, ok := n.Routers[from]
	if !ok {
		return fmt.Errorf("unknown source address %q", from)
	}
	ch, ok := n.Channels[to]
	if !ok {
		return fmt.Errorf("unknown destination address %q", to)
	}
	r.LinkCosts[to] = cost
	if _, ok := r.Outbound[to]; !ok {
		r.Outbound[to] = ch
	}
	if _, ok := r.Vector[to]; !ok {
		r.Vector[to] = state.Entry{Nh: to, Cost: state.Infinity}
	}
	if cost < r.Vector[to].Cost {
		r.Vector[to] = state.Entry{Nh: to, Cost: cost}
		r.Converged = state.NotConverged
	}
	return nil
}

// Vector returns a snapshot of one router's distance vector.
func (n *Network) Vector(addr state.Node) (state.Vector, error) {
	r, ok := n.Routers[addr]
	if !ok {
		return nil, fmt.Errorf("unknown address %q", addr)
	}
	return r.Vector.Clone(), nil
}

// Vectors returns a snapshot of every router's distance vector.
func (n *Network) Vectors() map[state.Node]state.Vector {
	out := make(map[state.Node]state.Vector, len(n.Routers))
	for addr, r := range n.Routers {
		out[addr] = r.Vector.Clone()
	}
	return out
}

// Convergence returns every router's convergence state.
func (n *Network) Convergence() map[state.Node]ConvergenceState {
	out := make(map[state.Node]ConvergenceState, len(n.Routers))
	for addr, r := range n.Routers {
		out[addr] = r.Convergence()
	}
	return out
}

// Nodes returns every address in sorted order.
func (n *Network) Nodes() []state.Node {
	nodes := slices.Collect(maps.Keys(n.Routers))
	slices.Sort(nodes)
	return nodes
}
