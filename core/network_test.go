package core

import (
	"testing"

	"github.com/encodeous/dvnet/state"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// A <-1-> B <-5-> C
var lineABC = []state.Edge{
	{From: "A", To: "B", Cost: 1},
	{From: "B", To: "A", Cost: 1},
	{From: "B", To: "C", Cost: 5},
	{From: "C", To: "B", Cost: 5},
}

// A <-1-> B <-1-> C <-1-> D
var lineABCD = []state.Edge{
	{From: "A", To: "B", Cost: 1},
	{From: "B", To: "A", Cost: 1},
	{From: "B", To: "C", Cost: 1},
	{From: "C", To: "B", Cost: 1},
	{From: "C", To: "D", Cost: 1},
	{From: "D", To: "C", Cost: 1},
}

func TestNewNetwork_InitialState(t *testing.T) {
	n := NewNetwork(lineABC, nil)
	assert.Equal(t, []state.Node{"A", "B", "C"}, n.Nodes())

	va, err := n.Vector("A")
	require.NoError(t, err)
	assert.Equal(t, state.Vector{
		"A": {Nh: "A", Cost: 0},
		"B": {Nh: "B", Cost: 1},
	}, va)

	vb, err := n.Vector("B")
	require.NoError(t, err)
	assert.Equal(t, state.Vector{
		"A": {Nh: "A", Cost: 1},
		"B": {Nh: "B", Cost: 0},
		"C": {Nh: "C", Cost: 5},
	}, vb)

	assert.False(t, n.IsStable())
}

func TestStep_PropagatesOneHopPerRound(t *testing.T) {
	n := NewNetwork(lineABC, nil)
	n.Step()
	n.Step()

	va, err := n.Vector("A")
	require.NoError(t, err)
	assert.Equal(t, state.Entry{Nh: "B", Cost: 6}, va["C"])

	vc, err := n.Vector("C")
	require.NoError(t, err)
	assert.Equal(t, state.Entry{Nh: "B", Cost: 6}, vc["A"])
}

func TestRunUntilConverged_SmallStepCount(t *testing.T) {
	n := NewNetwork(lineABC, nil)
	steps := n.RunUntilConverged()
	assert.True(t, n.IsStable())
	assert.GreaterOrEqual(t, steps, 2)
	assert.LessOrEqual(t, steps, 3)
}

func TestConvergence_SoundnessAndQuiescence(t *testing.T) {
	n := NewNetwork(lineABCD, nil)
	n.RunUntilConverged()

	snapshot := n.Vectors()
	n.Step()
	assert.Empty(t, cmp.Diff(snapshot, n.Vectors()))

	// a stable network sends nothing, so the channels stay empty
	for addr, ch := range n.Channels {
		assert.Equal(t, 0, ch.Len(), "channel %s not empty", addr)
	}
}

func TestRunUntilConverged_Liveness(t *testing.T) {
	topologies := [][]state.Edge{
		lineABC,
		lineABCD,
		{
			// triangle with an asymmetric shortcut
			{From: "A", To: "B", Cost: 1},
			{From: "B", To: "A", Cost: 1},
			{From: "B", To: "C", Cost: 1},
			{From: "C", To: "B", Cost: 1},
			{From: "A", To: "C", Cost: 10},
			{From: "C", To: "A", Cost: 10},
		},
	}
	for _, edges := range topologies {
		n := NewNetwork(edges, nil)
		assert.Positive(t, n.RunUntilConverged())
		assert.True(t, n.IsStable())
	}
}

func TestConvergence_CostsBoundedByInfinity(t *testing.T) {
	edges := []state.Edge{
		{From: "A", To: "B", Cost: 9},
		{From: "B", To: "A", Cost: 9},
		{From: "B", To: "C", Cost: 9},
		{From: "C", To: "B", Cost: 9},
		{From: "C", To: "D", Cost: 9},
		{From: "D", To: "C", Cost: 9},
	}
	n := NewNetwork(edges, nil)
	n.RunUntilConverged()

	for addr, v := range n.Vectors() {
		for dst, e := range v {
			assert.LessOrEqual(t, e.Cost, state.Infinity, "%s -> %s", addr, dst)
		}
	}
	va, err := n.Vector("A")
	require.NoError(t, err)
	assert.Equal(t, state.Infinity, va["D"].Cost)
}

func TestConvergence_PicksCheaperMultiHopPath(t *testing.T) {
	n := NewNetwork([]state.Edge{
		{From: "A", To: "B", Cost: 1},
		{From: "B", To: "A", Cost: 1},
		{From: "B", To: "C", Cost: 1},
		{From: "C", To: "B", Cost: 1},
		{From: "A", To: "C", Cost: 10},
		{From: "C", To: "A", Cost: 10},
	}, nil)
	n.RunUntilConverged()

	va, err := n.Vector("A")
	require.NoError(t, err)
	assert.Equal(t, state.Entry{Nh: "B", Cost: 2}, va["C"])
}

func TestSelfRoute_InvariantHolds(t *testing.T) {
	n := NewNetwork(lineABCD, nil)
	n.RunUntilConverged()
	require.NoError(t, n.SetLinkCost("A", "B", 0))
	n.RunUntilConverged()

	for addr, r := range n.Routers {
		assert.Equal(t, state.Entry{Nh: addr, Cost: 0}, r.Vector[addr])
	}
}

func TestSendData_ForwardsHopByHop(t *testing.T) {
	n := NewNetwork(lineABCD, nil)
	n.RunUntilConverged()

	_, err := n.SendData("A", "D", "ping")
	require.NoError(t, err)

	// drive the routers individually in path order so each hop is observable
	rec := &RecordingTracer{}
	n.Routers["A"].Route(rec)
	n.Routers["B"].Route(rec)
	n.Routers["C"].Route(rec)
	assert.False(t, rec.Contains(EvDeliver, state.Node("D")))
	n.Routers["D"].Route(rec)

	assert.True(t, rec.Contains(EvForward, state.Node("A"), state.Node("B"), state.Node("D")))
	assert.True(t, rec.Contains(EvForward, state.Node("B"), state.Node("C"), state.Node("D")))
	assert.True(t, rec.Contains(EvForward, state.Node("C"), state.Node("D"), state.Node("D")))
	assert.True(t, rec.Contains(EvDeliver, state.Node("D"), state.Node("A"), "ping"))
}

func TestSendData_UnknownDestinationDropped(t *testing.T) {
	rec := &RecordingTracer{}
	n := NewNetwork(lineABC, rec)
	n.RunUntilConverged()
	rec.Drain()

	_, err := n.SendData("A", "Z", "lost")
	require.NoError(t, err)
	n.RouteAll()

	assert.True(t, rec.Contains(EvDrop, state.Node("A"), state.Node("A"), state.Node("Z"), "destination unknown"))
	assert.False(t, rec.Contains(EvDeliver))
	for _, ch := range n.Channels {
		assert.Equal(t, 0, ch.Len())
	}
}

func TestSendData_UnknownSource(t *testing.T) {
	n := NewNetwork(lineABC, nil)
	_, err := n.SendData("Z", "A", "x")
	assert.ErrorContains(t, err, `unknown source address "Z"`)
}

func TestSetLinkCost_ImprovementRestabilizes(t *testing.T) {
	rec := &RecordingTracer{}
	n := NewNetwork(lineABC, rec)
	n.RunUntilConverged()
	rec.Drain()

	require.NoError(t, n.SetLinkCost("A", "B", 0))
	assert.Equal(t, state.NotConverged, n.Routers["A"].Converged)
	assert.False(t, n.IsStable())
	assert.Equal(t, state.Entry{Nh: "B", Cost: 0}, n.Routers["A"].Vector["B"])

	n.Step()
	n.Step()
	assert.True(t, n.IsStable())
	// only A changed, so only A re-advertised
	assert.True(t, rec.Contains(EvVector, state.Node("B"), state.Node("A")))
	assert.False(t, rec.Contains(EvVector, state.Node("A"), state.Node("B")))
}

func TestSetLinkCost_IncreaseAbsorbedSilently(t *testing.T) {
	n := NewNetwork(lineABC, nil)
	n.RunUntilConverged()

	require.NoError(t, n.SetLinkCost("A", "B", 3))
	assert.Equal(t, uint32(3), n.Routers["A"].LinkCosts["B"])
	// the vector keeps the old entry and the router stays stable
	assert.Equal(t, state.Entry{Nh: "B", Cost: 1}, n.Routers["A"].Vector["B"])
	assert.True(t, n.IsStable())
}

func TestSetLinkCost_NewNeighbourBecomesReachable(t *testing.T) {
	n := NewNetwork(lineABC, nil)
	n.RunUntilConverged()

	// A had no direct link to C before
	require.NoError(t, n.SetLinkCost("A", "C", 2))
	assert.Equal(t, state.Entry{Nh: "C", Cost: 2}, n.Routers["A"].Vector["C"])
	n.RunUntilConverged()

	_, err := n.SendData("A", "C", "direct")
	require.NoError(t, err)
	rec := &RecordingTracer{}
	n.Routers["A"].Route(rec)
	n.Routers["C"].Route(rec)
	assert.True(t, rec.Contains(EvDeliver, state.Node("C"), state.Node("A"), "direct"))
}

func TestSetLinkCost_UnknownEndpoints(t *testing.T) {
	n := NewNetwork(lineABC, nil)
	assert.ErrorContains(t, n.SetLinkCost("Z", "A", 1), `unknown source address "Z"`)
	assert.ErrorContains(t, n.SetLinkCost("A", "Z", 1), `unknown destination address "Z"`)
}

func TestReset_RestoresInitialState(t *testing.T) {
	n := NewNetwork(lineABC, nil)
	initial := n.Vectors()

	n.RunUntilConverged()
	_, err := n.SendData("A", "C", "in flight")
	require.NoError(t, err)

	n.Reset()
	assert.Empty(t, cmp.Diff(initial, n.Vectors()))
	assert.False(t, n.IsStable())
	for _, ch := range n.Channels {
		assert.Equal(t, 0, ch.Len())
	}

	// and the network converges again after the reset
	assert.Positive(t, n.RunUntilConverged())
}

func TestVector_UnknownAddress(t *testing.T) {
	n := NewNetwork(lineABC, nil)
	_, err := n.Vector("Z")
	assert.ErrorContains(t, err, `unknown address "Z"`)
}

func TestConvergence_ReportsPerRouterState(t *testing.T) {
	n := NewNetwork(lineABC, nil)
	states := n.Convergence()
	require.Len(t, states, 3)
	for _, s := range states {
		assert.Equal(t, Unstable, s)
	}
	n.RunUntilConverged()
	for _, s := range n.Convergence() {
		assert.Equal(t, Stable, s)
	}
}
