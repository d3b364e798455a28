package core

import (
	"fmt"

	"github.com/encodeous/dvnet/state"
)

// Router owns one distance vector, one inbound channel, and references to
// its neighbours' inbound channels. It never reaches into another router's
// state; the channels are the only sharing point in the system.
type Router struct {
	Id        state.Node
	LinkCosts map[state.Node]uint32
	Vector    state.Vector
	// Converged counts idle rounds remaining before this router is stable:
	// 2 = changed this round or the previous one, 1 = one more idle round
	// needed, 0 = two consecutive idle rounds observed.
	Converged int
	Inbound   *state.Channel
	Outbound  map[state.Node]*state.Channel
}

func NewRouter(id state.Node, costs map[state.Node]uint32, inbound *state.Channel, outbound map[state.Node]*state.Channel) *Router {
	r := &Router{
		Id:        id,
		LinkCosts: costs,
		Inbound:   inbound,
		Outbound:  outbound,
	}
	r.Reset()
	return r
}

// Reset restores the topology-derived initial state: one entry per direct
// link, routed through the neighbour itself, plus the self route. Buffered
// inbound packets are discarded unprocessed.
func (r *Router) Reset() {
	r.Vector = make(state.Vector, len(r.LinkCosts)+1)
	for dst, cost := range r.LinkCosts {
		r.Vector[dst] = state.Entry{Nh: dst, Cost: cost}
	}
	r.Vector[r.Id] = state.Entry{Nh: r.Id, Cost: 0}
	r.Converged = state.NotConverged
	r.Inbound.Clear()
}

// Route drains the inbound channel, processing packets in arrival order. It
// handles exactly what is buffered at call time and never blocks waiting
// for more.
func (r *Router) Route(tr Tracer) {
	for {
		pkt, ok := r.Inbound.Pop()
		if !ok {
			return
		}
		if pkt.Dst() == r.Id {
			r.readPacket(pkt, tr)
			continue
		}
		entry, known := r.Vector[pkt.Dst()]
		if !known {
			tr.PacketDropped(r.Id, pkt, "destination unknown")
			continue
		}
		r.Outbound[entry.Nh].Push(pkt)
		tr.PacketForwarded(r.Id, entry.Nh, pkt)
	}
}

// readPacket consumes a packet addressed to this router.
func (r *Router) readPacket(pkt state.Packet, tr Tracer) {
	switch p := pkt.(type) {
	case state.VectorPacket:
		tr.VectorReceived(r.Id, p.From)
		r.applyVector(p.From, p.Vector)
	case state.DataPacket:
		tr.MessageDelivered(r.Id, p.From, p.Payload)
	default:
		// the packet variant set is closed; anything else is a bug
		panic(fmt.Sprintf("unknown packet kind %T", pkt))
	}
}

// applyVector folds a neighbour's advertised vector into our own:
//
//	Dx(y) = min { C(x,v) + Dv(y), Dx(y) } for each destination y
//
// where x is this router, v the advertising neighbour, and C(x,v) our
// current cost to v. Only destinations the neighbour itself advertises
// participate in the relaxation, so a neighbour cannot force changes to
// routes it knows nothing about.
func (r *Router) applyVector(src state.Node, table state.Vector) {
	// src is always a direct neighbour; give it a baseline entry so the
	// relaxation below has a C(x,v) to work with
	if _, ok := r.Vector[src]; !ok {
		r.Vector[src] = state.Entry{Nh: src, Cost: state.Infinity}
	}

	// learn destinations the neighbour knows about and we do not
	for dst, adv := range table {
		if _, ok := r.Vector[dst]; !ok {
			r.Vector[dst] = state.Entry{Nh: src, Cost: state.AddCost(r.Vector[src].Cost, adv.Cost)}
			r.Converged = state.NotConverged
		}
	}

	r.clampVector()

	for dst, adv := range table {
		if dst == r.Id {
			continue
		}
		candidate := state.AddCost(r.Vector[src].Cost, adv.Cost)
		if candidate < r.Vector[dst].Cost {
			r.Vector[dst] = state.Entry{Nh: src, Cost: candidate}
			r.Converged = state.NotConverged
		}
	}

	// costs may have grown again through learning or candidate arithmetic
	r.clampVector()
}

// clampVector bounds every cost at Infinity and forces the self route. The
// boundary is strict: a cost of exactly Infinity is left as-is, only costs
// above it are clamped.
func (r *Router) clampVector() {
	for dst, e := range r.Vector {
		if e.Cost > state.Infinity {
			e.Cost = state.Infinity
			r.Vector[dst] = e
		}
	}
	r.Vector[r.Id] = state.Entry{Nh: r.Id, Cost: 0}
}

// SendVector advertises a snapshot of the full current vector to every
// neighbour, unless the router has already been idle for two rounds. Each
// call burns one idle round off the counter.
func (r *Router) SendVector() {
	if r.Converged == 0 {
		return
	}
	r.Converged--
	for dst, ch := range r.Outbound {
		ch.Push(state.VectorPacket{From: r.Id, To: dst, Vector: r.Vector.Clone()})
	}
}

type ConvergenceState int

const (
	Stable ConvergenceState = iota
	Settling
	Unstable
)

func (s ConvergenceState) String() string {
	switch s {
	case Stable:
		return "converged"
	case Settling:
		return "might be converged next step"
	default:
		return "not converged"
	}
}

func (r *Router) Convergence() ConvergenceState {
	switch r.Converged {
	case 0:
		return Stable
	case 1:
		return Settling
	default:
		return Unstable
	}
}
