package agents

// Printer is the text output sink for reports.
type Printer interface {
	Header(format string, args ...any)
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// PrintClassification prints the coordinator model and its classification, before changes are made.
func PrintClassification(p Printer, s Summary) {
	p.Info("coordinator model: %s", s.CoordinatorModel)
	if s.Claude {
		p.Info("model type: claude")
	} else {
		p.Info("model type: non-claude")
	}
	p.Info("extended thinking: %s", enabledStr(s.Thinking))
}

// PrintSummary prints the outcome of Sync.
func PrintSummary(p Printer, s Summary) {
	p.Success("updated %d agents to use: %s", s.Changed, s.CoordinatorModel)
	if s.ThinkingEnabled > 0 {
		p.Success("enabled extended thinking for %d agents", s.ThinkingEnabled)
	}
	if s.ThinkingDisabled > 0 {
		p.Success("disabled extended thinking for %d agents", s.ThinkingDisabled)
	}
	if s.FallbacksRemoved > 0 {
		p.Success("removed fallback model from %d agents", s.FallbacksRemoved)
	}

	p.Header("summary")
	p.Info("  total agents: %d", s.Workers)
	p.Info("  all using: %s", s.CoordinatorModel)
	p.Info("  extended thinking: %s", enabledStr(s.Thinking))
}

// PrintReport prints validation findings. mismatches are listed first; if there are any,
// fallback warnings are not printed since sync resolves the mismatch first.
func PrintReport(p Printer, r Report) {
	p.Info("coordinator model: %s", r.CoordinatorModel)
	p.Info("validating %d worker agents", r.Workers)

	if len(r.Mismatches) > 0 {
		p.Header("critical issues found")
		for _, m := range r.Mismatches {
			if m.Missing {
				p.Error("%s: has no model, expected %q", m.Agent, m.Expected)
				continue
			}
			p.Error("%s: uses %q instead of %q", m.Agent, m.Actual, m.Expected)
		}
		p.Error("total mismatches: %d", len(r.Mismatches))
		p.Warn("agents will not use the coordinator's model, run sync-models to fix")
		return
	}

	if len(r.Fallbacks) > 0 {
		p.Header("warnings")
		for _, f := range r.Fallbacks {
			p.Warn("%s: has fallback_model %q", f.Agent, f.Model)
		}
		p.Warn("total fallback models: %d", len(r.Fallbacks))
		p.Warn("fallback models can route calls to a different model")
		return
	}

	p.Success("perfect configuration: all %d agents use %s", r.Workers, r.CoordinatorModel)
	p.Success("no fallback models configured, no model mismatches found")
}

func enabledStr(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}
