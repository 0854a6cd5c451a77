package agents

import (
	"fmt"

	"github.com/umputun/modelsync/pkg/document"
	"github.com/umputun/modelsync/pkg/model"
)

// Summary describes what Sync changed.
type Summary struct {
	CoordinatorModel string
	Claude           bool // coordinator model is claude family
	Thinking         bool // coordinator model supports extended thinking
	Workers          int  // number of worker agents
	Changed          int  // workers whose model value changed
	ThinkingEnabled  int  // workers with thinking switched on
	ThinkingDisabled int  // workers with thinking key removed
	FallbacksRemoved int  // workers with fallback_model removed
}

// Sync sets every worker agent and the base template to the coordinator's model.
// thinking is switched on for all of them if the model supports it and removed otherwise.
// fallback_model is removed from workers unless the coordinator uses a claude model, and never added.
// the coordinator entry is not modified. doc is left untouched if the coordinator has no model.
func Sync(doc document.Document, cls model.Classifier) (Summary, error) {
	coordModel, err := coordinatorModel(doc)
	if err != nil {
		return Summary{}, err
	}
	names, err := workers(doc)
	if err != nil {
		return Summary{}, err
	}

	class := cls.Classify(coordModel)
	sum := Summary{CoordinatorModel: coordModel, Claude: class.Claude, Thinking: class.Thinking, Workers: len(names)}

	for _, name := range names {
		if old, isString, ok := modelText(doc, name); !ok || !isString || old != coordModel {
			sum.Changed++
		}
		if err := doc.SetString(coordModel, agentKey, name, modelKey); err != nil {
			return Summary{}, fmt.Errorf("set model for %s: %w", name, err)
		}

		if !class.Claude {
			if _, ok := doc.Get(agentKey, name, fallbackModelKey); ok {
				if err := doc.Delete(agentKey, name, fallbackModelKey); err != nil {
					return Summary{}, fmt.Errorf("remove fallback model for %s: %w", name, err)
				}
				sum.FallbacksRemoved++
			}
		}

		enabled, disabled, err := applyThinking(doc, name, class.Thinking, false)
		if err != nil {
			return Summary{}, err
		}
		if enabled {
			sum.ThinkingEnabled++
		}
		if disabled {
			sum.ThinkingDisabled++
		}
	}

	// base template follows the same model and thinking rules, without fallback handling.
	// its thinking flag must end up as boolean true, other truthy values are replaced
	if err := doc.SetString(coordModel, agentKey, BaseAgent, modelKey); err != nil {
		return Summary{}, fmt.Errorf("set model for %s: %w", BaseAgent, err)
	}
	if _, _, err := applyThinking(doc, BaseAgent, class.Thinking, true); err != nil {
		return Summary{}, err
	}

	return sum, nil
}

// applyThinking sets options.thinking to true when supported and not already enabled,
// or removes it when not supported. with strict set, only boolean true counts as enabled.
// reports which of the two happened.
func applyThinking(doc document.Document, name string, supported, strict bool) (enabled, disabled bool, err error) {
	cur, exists := doc.Get(agentKey, name, optionsKey, thinkingKey)

	if supported {
		on := cur.Truthy()
		if strict {
			on = cur.Kind == document.KindBool && cur.Bool
		}
		if exists && on {
			return false, false, nil
		}
		if err := doc.SetBool(true, agentKey, name, optionsKey, thinkingKey); err != nil {
			return false, false, fmt.Errorf("enable thinking for %s: %w", name, err)
		}
		return true, false, nil
	}

	if !exists {
		return false, false, nil
	}
	if err := doc.Delete(agentKey, name, optionsKey, thinkingKey); err != nil {
		return false, false, fmt.Errorf("disable thinking for %s: %w", name, err)
	}
	return false, true, nil
}
