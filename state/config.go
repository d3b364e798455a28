package state

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedTopology is wrapped by every topology parse failure.
var ErrMalformedTopology = errors.New("malformed topology")

// Edge is one directed link in the topology.
type Edge struct {
	From Node   `yaml:"from"`
	To   Node   `yaml:"to"`
	Cost uint32 `yaml:"cost"`
}

// Script step operations.
const (
	OpConverge = "converge"
	OpStep     = "step"
	OpReset    = "reset"
	OpSend     = "send"
	OpSetCost  = "set-cost"
	OpTables   = "tables"
	OpStatus   = "status"
)

// ScenarioCfg describes a full simulation run: a topology plus an optional
// script of driver commands executed in order.
type ScenarioCfg struct {
	Topology string       `yaml:"topology,omitempty"` // path to an edge-list file
	Edges    []Edge       `yaml:"edges,omitempty"`    // inline alternative to Topology
	LogPath  string       `yaml:"log_path,omitempty"` // if not empty, also log to this file
	Script   []ScriptStep `yaml:"script,omitempty"`
}

// ScriptStep is a single driver command. Which fields are required depends
// on Op; see ScenarioValidator.
type ScriptStep struct {
	Op      string  `yaml:"op"`
	From    Node    `yaml:"from,omitempty"`
	To      Node    `yaml:"to,omitempty"`
	Cost    *uint32 `yaml:"cost,omitempty"`
	Payload string  `yaml:"payload,omitempty"`
}

// ParseTopology reads whitespace-separated `src dst cost` triples, one
// directed edge per line. Blank lines are skipped; anything else that does
// not parse is fatal.
func ParseTopology(r io.Reader) ([]Edge, error) {
	edges := make([]Edge, 0)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d: expected `src dst cost`, got %d fields", ErrMalformedTopology, lineNo, len(fields))
		}
		cost, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: cost %q is not a non-negative integer", ErrMalformedTopology, lineNo, fields[2])
		}
		edges = append(edges, Edge{
			From: Node(fields[0]),
			To:   Node(fields[1]),
			Cost: uint32(cost),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}

func ReadTopologyFile(path string) ([]Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	edges, err := ParseTopology(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return edges, nil
}

func ScenarioValidator(cfg *ScenarioCfg) error {
	if cfg.Topology == "" && len(cfg.Edges) == 0 {
		return errors.New("scenario must declare a topology file or inline edges")
	}
	if cfg.Topology != "" && len(cfg.Edges) > 0 {
		return errors.New("scenario topology and edges are mutually exclusive")
	}
	for i, step := range cfg.Script {
		switch step.Op {
		case OpConverge, OpStep, OpReset, OpTables, OpStatus:
		case OpSend:
			if step.From == "" || step.To == "" {
				return fmt.Errorf("script step %d: %s requires from and to", i, step.Op)
			}
		case OpSetCost:
			if step.From == "" || step.To == "" || step.Cost == nil {
				return fmt.Errorf("script step %d: %s requires from, to and cost", i, step.Op)
			}
		default:
			return fmt.Errorf("script step %d: unknown op %q", i, step.Op)
		}
	}
	return nil
}
