package layout

import (
	"strings"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
)

// Engine computes a layout for a graph model. Implementations are pure:
// the same model and direction always give the same result. They never
// fail; a model without nodes gives an empty result.
type Engine interface {
	Layout(m *graph.Model, dir Direction) Result
}

// Strategies returns the names accepted by New.
func Strategies() []string {
	return []string{graph.StrategyLayered, graph.StrategyLinear}
}

// ParseStrategy normalizes a strategy name. The empty string is layered.
func ParseStrategy(s string) (string, error) {
	switch name := strings.ToLower(strings.TrimSpace(s)); name {
	case "":
		return graph.StrategyLayered, nil
	case graph.StrategyLayered, graph.StrategyLinear:
		return name, nil
	}
	return "", errors.New(errors.ErrCodeMalformedInput, "unknown layout strategy %q (want layered or linear)", s)
}

// New returns the engine for a strategy name.
func New(strategy string, opts Options) (Engine, error) {
	name, err := ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	if name == graph.StrategyLinear {
		return Linear{Options: opts}, nil
	}
	return Layered{Options: opts}, nil
}

var (
	_ Engine = Layered{}
	_ Engine = Linear{}
)
