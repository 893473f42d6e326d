package model

import "strings"

// Focus is a review-topic tag restricting which issue categories a reviewer reports.
type Focus string

const (
	FocusSecurity        Focus = "security"
	FocusReadability     Focus = "readability"
	FocusPerformance     Focus = "performance"
	FocusBugRisk         Focus = "bug-risk"
	FocusMaintainability Focus = "maintainability"
	FocusTestCoverage    Focus = "test-coverage"
	FocusDocumentation   Focus = "documentation"
	FocusBestPractices   Focus = "best-practices"
)

// AllFocus returns the fixed focus vocabulary in presentation order.
func AllFocus() []Focus {
	return []Focus{
		FocusSecurity,
		FocusReadability,
		FocusPerformance,
		FocusBugRisk,
		FocusMaintainability,
		FocusTestCoverage,
		FocusDocumentation,
		FocusBestPractices,
	}
}

// ParseFocus matches s case-insensitively against the focus vocabulary.
func ParseFocus(s string) (Focus, bool) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, f := range AllFocus() {
		if string(f) == needle {
			return f, true
		}
	}
	return "", false
}

// Strictness is the ordinal review threshold.
type Strictness string

const (
	StrictnessLow    Strictness = "low"    // Only major issues.
	StrictnessMedium Strictness = "medium" // Balanced review.
	StrictnessHigh   Strictness = "high"   // Includes nits and style tips.
)

// AllStrictness returns the strictness levels from lowest to highest.
func AllStrictness() []Strictness {
	return []Strictness{StrictnessLow, StrictnessMedium, StrictnessHigh}
}

// ParseStrictness matches s case-insensitively against the strictness levels.
func ParseStrictness(s string) (Strictness, bool) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, st := range AllStrictness() {
		if string(st) == needle {
			return st, true
		}
	}
	return "", false
}

// Description returns the participant-facing meaning of the level.
func (s Strictness) Description() string {
	switch s {
	case StrictnessLow:
		return "only major issues"
	case StrictnessMedium:
		return "balanced review"
	case StrictnessHigh:
		return "includes nits and style tips"
	default:
		return ""
	}
}

// Model selects a single review provider. The zero value means "run both".
type Model string

const (
	ModelBoth     Model = ""
	ModelGPT4o    Model = "gpt-4o"
	ModelDeepSeek Model = "deepseek"
)

// SelectableModels returns the values accepted for preferred_model.
func SelectableModels() []Model {
	return []Model{ModelGPT4o, ModelDeepSeek}
}

// ParseModel matches s case-insensitively against the selectable models.
func ParseModel(s string) (Model, bool) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, m := range SelectableModels() {
		if string(m) == needle {
			return m, true
		}
	}
	return "", false
}

// Provider is an LLM review backend. Its value doubles as the comment label.
type Provider string

const (
	ProviderOpenAI   Provider = "OpenAI"
	ProviderDeepSeek Provider = "DeepSeek"
)

// AllProviders returns every provider in posting order.
func AllProviders() []Provider {
	return []Provider{ProviderOpenAI, ProviderDeepSeek}
}

// Providers resolves the model selector to the providers that must run.
// ok is false for a value outside the selectable models.
func (m Model) Providers() (providers []Provider, ok bool) {
	switch m {
	case ModelBoth:
		return AllProviders(), true
	case ModelGPT4o:
		return []Provider{ProviderOpenAI}, true
	case ModelDeepSeek:
		return []Provider{ProviderDeepSeek}, true
	default:
		return nil, false
	}
}
