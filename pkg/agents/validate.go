package agents

import "github.com/umputun/modelsync/pkg/document"

// Mismatch is a worker whose model differs from the coordinator's.
type Mismatch struct {
	Agent    string
	Actual   string // model text, raw json/yaml text for non-string values
	Missing  bool   // the agent has no model key
	Expected string
}

// Fallback is a worker with a fallback model configured.
type Fallback struct {
	Agent string
	Model string
}

// Report holds validation findings in document order.
type Report struct {
	CoordinatorModel string
	Workers          int
	Mismatches       []Mismatch // critical
	Fallbacks        []Fallback // advisory
}

// OK reports whether no worker model differs from the coordinator's. fallback models are allowed.
func (r Report) OK() bool { return len(r.Mismatches) == 0 }

// Validate compares every worker's model with the coordinator's and collects fallback models.
// doc is never modified.
func Validate(doc document.Document) (Report, error) {
	coordModel, err := coordinatorModel(doc)
	if err != nil {
		return Report{}, err
	}
	names, err := workers(doc)
	if err != nil {
		return Report{}, err
	}

	rep := Report{CoordinatorModel: coordModel, Workers: len(names)}
	for _, name := range names {
		actual, isString, ok := modelText(doc, name)
		if !ok || !isString || actual != coordModel {
			rep.Mismatches = append(rep.Mismatches, Mismatch{Agent: name, Actual: actual, Missing: !ok, Expected: coordModel})
		}
		if fb, ok := doc.Get(agentKey, name, fallbackModelKey); ok {
			rep.Fallbacks = append(rep.Fallbacks, Fallback{Agent: name, Model: fb.String()})
		}
	}
	return rep, nil
}
