package state

import "time"

const (
	// Infinity is the cost sentinel for destinations that are unreachable
	// within the accepted number of rounds. Sixteen follows the classic
	// small-network distance-vector convention and caps count-to-infinity
	// growth.
	Infinity = uint32(16)

	// NotConverged is the convergence counter value taken whenever a
	// router's vector changes. A change at round t cannot be confirmed
	// stable until round t+1 is idle, so two idle rounds are required
	// before a router counts as converged.
	NotConverged = 2
)

var (
	DropLogDedupTTL = time.Second * 3
)
