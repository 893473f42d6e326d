package model

import "strings"

// ConfigErrorKind classifies a single problem found in a configuration comment.
type ConfigErrorKind string

const (
	ConfigErrMalformedPayload  ConfigErrorKind = "malformed_payload"
	ConfigErrInvalidStrictness ConfigErrorKind = "invalid_strictness"
	ConfigErrInvalidFocus      ConfigErrorKind = "invalid_focus"
	ConfigErrMissingFocus      ConfigErrorKind = "missing_focus"
	ConfigErrInvalidModel      ConfigErrorKind = "invalid_model"
)

// ConfigProblem is one validation failure.
type ConfigProblem struct {
	Kind    ConfigErrorKind
	Detail  string // Offending value(s) or decoder message; may be empty.
	Message string // Participant-facing sentence.
}

// ConfigError aggregates every problem found while parsing one comment.
type ConfigError struct {
	Problems []ConfigProblem
}

func (e *ConfigError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Message)
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Has reports whether a problem of the given kind was recorded.
func (e *ConfigError) Has(kind ConfigErrorKind) bool {
	for _, p := range e.Problems {
		if p.Kind == kind {
			return true
		}
	}
	return false
}

// Kinds returns the recorded problem kinds in order.
func (e *ConfigError) Kinds() []ConfigErrorKind {
	kinds := make([]ConfigErrorKind, 0, len(e.Problems))
	for _, p := range e.Problems {
		kinds = append(kinds, p.Kind)
	}
	return kinds
}
