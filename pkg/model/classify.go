// Package model classifies language model identifiers by family and capabilities.
package model

import "strings"

// DefaultThinkingMarkers lists model family markers known to support extended thinking.
// a model is thinking-capable if its identifier contains any of them (case-insensitive).
var DefaultThinkingMarkers = []string{
	"claude-opus-4",
	"claude-sonnet-4",
	"claude-3-7-sonnet",
	"claude-3-5-sonnet",
}

// Class holds classification flags for a single model identifier.
type Class struct {
	Claude   bool // model belongs to the claude family
	Thinking bool // model supports extended thinking
}

// Classifier decides model family and thinking support.
// ThinkingMarkers is a maintained allow-list, not derived from the model name.
type Classifier struct {
	ThinkingMarkers []string
}

// Default returns a classifier with DefaultThinkingMarkers.
func Default() Classifier {
	markers := make([]string, len(DefaultThinkingMarkers))
	copy(markers, DefaultThinkingMarkers)
	return Classifier{ThinkingMarkers: markers}
}

// New returns a classifier for the given markers, falling back to defaults if none are set.
// markers are trimmed and lowercased, empty ones are skipped.
func New(markers []string) Classifier {
	var res []string
	for _, m := range markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			res = append(res, m)
		}
	}
	if len(res) == 0 {
		return Default()
	}
	return Classifier{ThinkingMarkers: res}
}

// IsClaudeFamily reports whether model is a non-empty claude model identifier.
func (c Classifier) IsClaudeFamily(model string) bool {
	return model != "" && strings.Contains(strings.ToLower(model), "claude")
}

// IsThinkingCapable reports whether model matches any thinking marker.
func (c Classifier) IsThinkingCapable(model string) bool {
	if model == "" {
		return false
	}
	lower := strings.ToLower(model)
	for _, marker := range c.ThinkingMarkers {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// Classify returns both classification flags for model.
func (c Classifier) Classify(model string) Class {
	return Class{Claude: c.IsClaudeFamily(model), Thinking: c.IsThinkingCapable(model)}
}

// IsClaudeFamily reports whether model is a claude model, using the default classifier.
func IsClaudeFamily(model string) bool { return Default().IsClaudeFamily(model) }

// IsThinkingCapable reports whether model supports extended thinking, using the default classifier.
func IsThinkingCapable(model string) bool { return Default().IsThinkingCapable(model) }
