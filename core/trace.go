package core

import (
	"log/slog"

	"github.com/encodeous/dvnet/perf"
	"github.com/encodeous/dvnet/state"
	"github.com/jellydator/ttlcache/v3"
)

// Tracer receives the observable side effects of routing: drops, forwards,
// vector exchanges and message deliveries. Implementations must not mutate
// the packets they are handed.
type Tracer interface {
	PacketDropped(at state.Node, pkt state.Packet, reason string)
	PacketForwarded(at, nextHop state.Node, pkt state.Packet)
	VectorReceived(at, from state.Node)
	MessageDelivered(at, from state.Node, payload string)
}

// NopTracer discards every event.
type NopTracer struct{}

func (NopTracer) PacketDropped(state.Node, state.Packet, string)       {}
func (NopTracer) PacketForwarded(state.Node, state.Node, state.Packet) {}
func (NopTracer) VectorReceived(state.Node, state.Node)                {}
func (NopTracer) MessageDelivered(state.Node, state.Node, string)      {}

// MultiTracer fans every event out to several tracers in order.
type MultiTracer []Tracer

func (m MultiTracer) PacketDropped(at state.Node, pkt state.Packet, reason string) {
	for _, t := range m {
		t.PacketDropped(at, pkt, reason)
	}
}

func (m MultiTracer) PacketForwarded(at, nextHop state.Node, pkt state.Packet) {
	for _, t := range m {
		t.PacketForwarded(at, nextHop, pkt)
	}
}

func (m MultiTracer) VectorReceived(at, from state.Node) {
	for _, t := range m {
		t.VectorReceived(at, from)
	}
}

func (m MultiTracer) MessageDelivered(at, from state.Node, payload string) {
	for _, t := range m {
		t.MessageDelivered(at, from, payload)
	}
}

// LogTracer writes events to a slog.Logger. Repeated drops for the same
// (src, dst) pair are suppressed for DropLogDedupTTL so a looping sender
// does not flood the log; other tracers still see every event.
//
// The dedup cache runs without a janitor goroutine: Get treats expired
// items as absent, and the handful of (src, dst) pairs a simulation can
// produce is not worth evicting eagerly.
type LogTracer struct {
	Log       *slog.Logger
	dropDedup *ttlcache.Cache[state.Pair[state.Node, state.Node], struct{}]
}

func NewLogTracer(log *slog.Logger) *LogTracer {
	dedup := ttlcache.New[state.Pair[state.Node, state.Node], struct{}](
		ttlcache.WithTTL[state.Pair[state.Node, state.Node], struct{}](state.DropLogDedupTTL),
		ttlcache.WithDisableTouchOnHit[state.Pair[state.Node, state.Node], struct{}](),
	)
	return &LogTracer{Log: log, dropDedup: dedup}
}

func (t *LogTracer) PacketDropped(at state.Node, pkt state.Packet, reason string) {
	key := state.Pair[state.Node, state.Node]{V1: pkt.Src(), V2: pkt.Dst()}
	if t.dropDedup.Get(key) != nil {
		return
	}
	t.dropDedup.Set(key, struct{}{}, ttlcache.DefaultTTL)
	t.Log.Warn("dropped packet", "at", string(at), "src", string(pkt.Src()), "dst", string(pkt.Dst()), "reason", reason)
}

func (t *LogTracer) PacketForwarded(at, nextHop state.Node, pkt state.Packet) {
	t.Log.Debug("forwarding packet", "at", string(at), "nh", string(nextHop), "dst", string(pkt.Dst()))
}

func (t *LogTracer) VectorReceived(at, from state.Node) {
	t.Log.Debug("received distance vector", "at", string(at), "from", string(from))
}

func (t *LogTracer) MessageDelivered(at, from state.Node, payload string) {
	t.Log.Info("received message", "at", string(at), "from", string(from), "msg", payload)
}

// StatsTracer publishes per-event counters through the perf package.
type StatsTracer struct{}

func (StatsTracer) PacketDropped(state.Node, state.Packet, string) {
	perf.PacketsDropped.Add(1)
}

func (StatsTracer) PacketForwarded(state.Node, state.Node, state.Packet) {
	perf.PacketsForwarded.Add(1)
}

func (StatsTracer) VectorReceived(state.Node, state.Node) {
	perf.VectorsReceived.Add(1)
}

func (StatsTracer) MessageDelivered(state.Node, state.Node, string) {
	perf.MessagesDelivered.Add(1)
}

// Trace event kinds recorded by RecordingTracer.
const (
	EvDrop    = "DROP"
	EvForward = "FORWARD"
	EvVector  = "VECTOR"
	EvDeliver = "DELIVER"
)

type TraceEvent struct {
	Kind string
	Args []any
}

// RecordingTracer accumulates events in arrival order.
type RecordingTracer struct {
	Events []TraceEvent
}

func (t *RecordingTracer) record(kind string, args ...any) {
	t.Events = append(t.Events, TraceEvent{Kind: kind, Args: args})
}

func (t *RecordingTracer) PacketDropped(at state.Node, pkt state.Packet, reason string) {
	t.record(EvDrop, at, pkt.Src(), pkt.Dst(), reason)
}

func (t *RecordingTracer) PacketForwarded(at, nextHop state.Node, pkt state.Packet) {
	t.record(EvForward, at, nextHop, pkt.Dst())
}

func (t *RecordingTracer) VectorReceived(at, from state.Node) {
	t.record(EvVector, at, from)
}

func (t *RecordingTracer) MessageDelivered(at, from state.Node, payload string) {
	t.record(EvDeliver, at, from, payload)
}

// Drain returns the recorded events and clears the buffer.
func (t *RecordingTracer) Drain() []TraceEvent {
	ev := t.Events
	t.Events = nil
	return ev
}

// Contains reports whether an event of the given kind was recorded with the
// given leading arguments.
func (t *RecordingTracer) Contains(kind string, args ...any) bool {
	for _, ev := range t.Events {
		if ev.Kind != kind || len(ev.Args) < len(args) {
			continue
		}
		match := true
		for i, arg := range args {
			if ev.Args[i] != arg {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
