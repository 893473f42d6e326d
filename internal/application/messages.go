package application

import (
	"fmt"
	"strings"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
)

// onboardingMessage explains the configure command and its vocabulary.
func onboardingMessage(botName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "👋 **Hi! I'm %s — your automated AI code reviewer.**\n\n", botName)
	b.WriteString("I analyze pull requests using **GPT-4o** and **DeepSeek**.\n\n")
	b.WriteString("You can customize your review preferences by commenting:\n\n")
	b.WriteString("```\n")
	fmt.Fprintf(&b, "@%s configure\n", botName)
	b.WriteString("{\n")
	b.WriteString("  \"preferred_model\": \"gpt-4o\",\n")
	b.WriteString("  \"focus\": [\"security\", \"performance\"],\n")
	b.WriteString("  \"strictness\": \"high\"\n")
	b.WriteString("}\n")
	b.WriteString("```\n\n---\n\n")

	b.WriteString("🤖 `preferred_model` options:\n")
	b.WriteString("- \"gpt-4o\" — use OpenAI's GPT-4o\n")
	b.WriteString("- \"deepseek\" — use DeepSeek's model\n")
	b.WriteString("*(if omitted, both are used)*\n\n")

	b.WriteString("🎯 `focus` options (required, at least one):\n")
	quoted := make([]string, 0, len(model.AllFocus()))
	for _, f := range model.AllFocus() {
		quoted = append(quoted, fmt.Sprintf("%q", f))
	}
	fmt.Fprintf(&b, "- %s\n\n", strings.Join(quoted, ", "))

	b.WriteString("⚙️ `strictness` (required):\n")
	for _, st := range model.AllStrictness() {
		fmt.Fprintf(&b, "- %q – %s\n", st, st.Description())
	}

	b.WriteString("\n---\n\n")
	b.WriteString("You can update these anytime by re-commenting.\n\n")
	fmt.Fprintf(&b, "Happy reviewing with **%s**! 🚀\n", botName)

	return b.String()
}

// configSavedMessage acknowledges a stored preference.
func configSavedMessage(pref model.PullRequestPreference) string {
	modelText := "both (default)"
	if pref.PreferredModel != model.ModelBoth {
		modelText = string(pref.PreferredModel)
	}

	return fmt.Sprintf(
		"✅ Configuration saved for this PR!\n\n- **Focus**: %s\n- **Strictness**: `%s`\n- **Model**: `%s`\n\nYou can reconfigure anytime by commenting again.",
		model.JoinFocus(pref.Focus), pref.Strictness, modelText,
	)
}

// configErrorMessage lists every problem in a rejected configuration.
func configErrorMessage(cfgErr *model.ConfigError) string {
	lines := make([]string, 0, len(cfgErr.Problems)+1)
	lines = append(lines, "❗ Configuration not saved.")
	for _, p := range cfgErr.Problems {
		lines = append(lines, "❌ "+p.Message)
	}
	return strings.Join(lines, "\n")
}

// unknownModelMessage warns about a stored model selector no provider matches.
func unknownModelMessage(m model.Model) string {
	return "⚠️ " + unknownModelText(string(m))
}
