package model

import (
	"slices"
	"strings"
)

// PullRequestPreference is the review configuration held for one pull request.
// A record with no focus and no strictness is onboarded but unconfigured.
type PullRequestPreference struct {
	Focus          []Focus // Sorted, de-duplicated.
	Strictness     Strictness
	PreferredModel Model // ModelBoth when absent.
	Onboarded      bool
}

// Configured reports whether both mandatory settings are present.
func (p PullRequestPreference) Configured() bool {
	return len(p.Focus) > 0 && p.Strictness != ""
}

// NormalizeFocus returns a sorted copy of focus with duplicates removed, so
// equal sets compare equal regardless of input order.
func NormalizeFocus(focus []Focus) []Focus {
	out := slices.Clone(focus)
	slices.Sort(out)
	return slices.Compact(out)
}

// FocusStrings returns the focus tags as plain strings.
func FocusStrings(focus []Focus) []string {
	out := make([]string, 0, len(focus))
	for _, f := range focus {
		out = append(out, string(f))
	}
	return out
}

// JoinFocus renders focus tags as a comma-separated list.
func JoinFocus(focus []Focus) string {
	return strings.Join(FocusStrings(focus), ", ")
}
