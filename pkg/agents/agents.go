// Package agents keeps worker agents of a multi-agent configuration document in line
// with the coordinator's model. Sync rewrites workers and the base template to follow
// the coordinator; Validate reports workers that don't.
package agents

import (
	"errors"
	"fmt"

	"github.com/umputun/modelsync/pkg/document"
)

// reserved agent names
const (
	BaseAgent        = "_base"       // template applied to all agents
	CoordinatorAgent = "coordinator" // authority for the model choice
)

// document keys
const (
	agentKey         = "agent"
	modelKey         = "model"
	fallbackModelKey = "fallback_model"
	optionsKey       = "options"
	thinkingKey      = "thinking"
)

// ErrNoCoordinatorModel is returned when agent.coordinator.model is missing or empty.
var ErrNoCoordinatorModel = errors.New("coordinator has no model set")

// coordinatorModel returns the coordinator's model from doc.
func coordinatorModel(doc document.Document) (string, error) {
	if _, ok := doc.Keys(agentKey); !ok {
		return "", fmt.Errorf("%w: missing %q object", document.ErrInvalid, agentKey)
	}
	v, ok := doc.Get(agentKey, CoordinatorAgent, modelKey)
	if !ok || v.Kind != document.KindString || v.Str == "" {
		return "", ErrNoCoordinatorModel
	}
	return v.Str, nil
}

// workers returns names of all agents except the base template and coordinator, in document order.
// every worker entry must be an object.
func workers(doc document.Document) ([]string, error) {
	names, ok := doc.Keys(agentKey)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q object", document.ErrInvalid, agentKey)
	}
	res := make([]string, 0, len(names))
	for _, name := range names {
		if name == BaseAgent || name == CoordinatorAgent {
			continue
		}
		if _, isObj := doc.Keys(agentKey, name); !isObj {
			return nil, fmt.Errorf("%w: agent %q is not an object", document.ErrInvalid, name)
		}
		res = append(res, name)
	}
	return res, nil
}

// modelText returns the agent's model for comparison and reporting.
// ok is false if the agent has no model key.
func modelText(doc document.Document, name string) (model string, isString, ok bool) {
	v, ok := doc.Get(agentKey, name, modelKey)
	if !ok {
		return "", false, false
	}
	return v.String(), v.Kind == document.KindString, true
}
