package core

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path"
	"slices"

	"github.com/encodeous/dvnet/state"
	"github.com/encodeous/tint"
	"github.com/goccy/go-yaml"
	slogmulti "github.com/samber/slog-multi"
)

// NewLogger builds the simulator logger: a tinted console handler on
// stderr, fanned out to a plain text handler when logPath is set.
func NewLogger(level slog.Level, logPath string) (*slog.Logger, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        level,
			AddSource:    false,
			CustomPrefix: "dvnet",
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	if logPath != "" {
		err := os.MkdirAll(path.Dir(logPath), 0700)
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0700)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), nil
}

// ReadScenario loads and validates a scenario file.
func ReadScenario(scenarioPath string) (*state.ScenarioCfg, error) {
	file, err := os.ReadFile(scenarioPath)
	if err != nil {
		return nil, err
	}
	var cfg state.ScenarioCfg
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, err
	}
	err = state.ScenarioValidator(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BuildNetwork constructs the network a scenario describes, from either its
// inline edges or its topology file.
func BuildNetwork(cfg *state.ScenarioCfg, tr Tracer) (*Network, error) {
	edges := cfg.Edges
	if cfg.Topology != "" {
		var err error
		edges, err = state.ReadTopologyFile(cfg.Topology)
		if err != nil {
			return nil, err
		}
	}
	return NewNetwork(edges, tr), nil
}

// RunScript executes a scenario's script steps in order.
func RunScript(n *Network, script []state.ScriptStep, log *slog.Logger) error {
	for i, step := range script {
		switch step.Op {
		case state.OpConverge:
			steps := n.RunUntilConverged()
			log.Info("network converged", "steps", steps)
		case state.OpStep:
			n.Step()
		case state.OpReset:
			n.Reset()
		case state.OpSend:
			if _, err := n.SendData(step.From, step.To, step.Payload); err != nil {
				return fmt.Errorf("script step %d: %w", i, err)
			}
		case state.OpSetCost:
			if err := n.SetLinkCost(step.From, step.To, *step.Cost); err != nil {
				return fmt.Errorf("script step %d: %w", i, err)
			}
		case state.OpTables:
			for _, line := range FormatTables(n) {
				log.Info(line)
			}
		case state.OpStatus:
			log.Info(fmt.Sprintf("network is converged: %v", n.IsStable()))
			for _, line := range FormatConvergence(n) {
				log.Info(line)
			}
		default:
			return fmt.Errorf("script step %d: unknown op %q", i, step.Op)
		}
	}
	return nil
}

// FormatTables renders every distance vector, sorted for reproducibility.
func FormatTables(n *Network) []string {
	lines := make([]string, 0)
	for _, addr := range n.Nodes() {
		r := n.Routers[addr]
		dsts := slices.Collect(maps.Keys(r.Vector))
		slices.Sort(dsts)
		for _, dst := range dsts {
			e := r.Vector[dst]
			lines = append(lines, fmt.Sprintf("%s -> %s (nh=%s, cost=%d)", addr, dst, e.Nh, e.Cost))
		}
	}
	return lines
}

// FormatConvergence renders every router's convergence state, sorted.
func FormatConvergence(n *Network) []string {
	lines := make([]string, 0)
	for _, addr := range n.Nodes() {
		lines = append(lines, fmt.Sprintf("%s is %s", addr, n.Routers[addr].Convergence()))
	}
	return lines
}
