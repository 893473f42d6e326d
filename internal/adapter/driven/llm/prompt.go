package llm

import (
	"fmt"
	"strings"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
)

const systemPreamble = `You are a senior software engineer reviewing a pull request.
- Analyze the diff line by line
- Mention specific file names and line numbers
- Give concrete suggestions as markdown bullet points
- Do not comment on unchanged code`

// systemPrompt restricts the review to the focus tags and applies the
// strictness threshold.
func systemPrompt(focus []model.Focus, strictness model.Strictness, maxTokens int) string {
	var b strings.Builder

	b.WriteString(systemPreamble)
	b.WriteString("\n")

	if len(focus) > 0 {
		fmt.Fprintf(&b, "- Only report issues in these areas: %s\n", model.JoinFocus(focus))
	}
	if line := strictnessInstruction(strictness); line != "" {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	if maxTokens > 0 {
		fmt.Fprintf(&b, "- Keep the review under %d tokens\n", maxTokens)
	}

	b.WriteString("\nIf there is nothing to report within these areas, reply with exactly \"LGTM\".")

	return b.String()
}

func strictnessInstruction(s model.Strictness) string {
	switch s {
	case model.StrictnessLow:
		return "Strictness low: report only major issues such as bugs, vulnerabilities and serious design flaws"
	case model.StrictnessMedium:
		return "Strictness medium: report significant issues and worthwhile improvements, skip cosmetic remarks"
	case model.StrictnessHigh:
		return "Strictness high: report everything you notice, including nits and style tips"
	default:
		return ""
	}
}

func userPrompt(d diffDigest) string {
	if strings.TrimSpace(d.Body) == "" {
		return "The diff for this pull request is empty or could not be retrieved. Reply with exactly \"LGTM\" unless you have a general remark."
	}

	var b strings.Builder

	b.WriteString("Please review this code diff.\n\n")
	if d.Summary != "" {
		b.WriteString("Changed files:\n")
		b.WriteString(d.Summary)
		b.WriteString("\n")
	}
	b.WriteString("```diff\n")
	b.WriteString(d.Body)
	if !strings.HasSuffix(d.Body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n")
	if d.Note != "" {
		b.WriteString("\n")
		b.WriteString(d.Note)
		b.WriteString("\n")
	}

	return b.String()
}
