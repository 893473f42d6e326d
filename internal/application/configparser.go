package application

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
)

// configureVerb is the command word that follows the bot mention.
const configureVerb = "configure"

// commandTokens is the lexed form of a configuration comment:
//
//	@<mention> <verb> [stray text] {payload...}
type commandTokens struct {
	mention string // Without the leading "@".
	verb    string
	payload string // From the first "{" to the end; empty if there is none.
}

// lexCommand splits a comment body into command tokens. ok is false when the
// trimmed body does not start with an @mention followed by a word.
func lexCommand(body string) (tokens commandTokens, ok bool) {
	s := strings.TrimSpace(body)
	if !strings.HasPrefix(s, "@") {
		return commandTokens{}, false
	}
	s = s[1:]

	mention, rest := readWord(s)
	if mention == "" {
		return commandTokens{}, false
	}

	// The verb must be separated from the mention by whitespace.
	if rest == "" || !unicode.IsSpace(rune(rest[0])) {
		return commandTokens{}, false
	}
	verb, rest := readWord(strings.TrimLeftFunc(rest, unicode.IsSpace))
	if verb == "" {
		return commandTokens{}, false
	}

	tokens = commandTokens{mention: mention, verb: verb}
	if i := strings.IndexByte(rest, '{'); i >= 0 {
		tokens.payload = rest[i:]
	}
	return tokens, true
}

// readWord consumes characters up to whitespace or an opening brace.
func readWord(s string) (word, rest string) {
	end := strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '{'
	})
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}

// ConfigParser turns "@<bot> configure {...}" comments into preferences.
// Mention and verb match case-insensitively.
type ConfigParser struct {
	botName string
}

// NewConfigParser creates a parser that answers to the given bot name.
func NewConfigParser(botName string) *ConfigParser {
	return &ConfigParser{botName: botName}
}

// CommandPrefix returns the command line participants type, e.g. "@DualReview configure".
func (p *ConfigParser) CommandPrefix() string {
	return "@" + p.botName + " " + configureVerb
}

// IsCommand reports whether body starts with the configure command.
func (p *ConfigParser) IsCommand(body string) bool {
	tokens, ok := lexCommand(body)
	return ok && p.matches(tokens)
}

func (p *ConfigParser) matches(tokens commandTokens) bool {
	return strings.EqualFold(tokens.mention, p.botName) && strings.EqualFold(tokens.verb, configureVerb)
}

// Parse extracts and validates the preference embedded in a configure comment.
// Every problem found is reported in a single *model.ConfigError. The returned
// preference never has Onboarded set.
func (p *ConfigParser) Parse(body string) (model.PullRequestPreference, error) {
	tokens, ok := lexCommand(body)
	if !ok || !p.matches(tokens) {
		return model.PullRequestPreference{}, malformed(fmt.Sprintf("comment must start with %s", p.CommandPrefix()))
	}
	if tokens.payload == "" {
		return model.PullRequestPreference{}, malformed("no configuration object found after the command")
	}

	fields, err := decodePayload(tokens.payload)
	if err != nil {
		return model.PullRequestPreference{}, malformed(err.Error())
	}

	var (
		pref     model.PullRequestPreference
		problems []model.ConfigProblem
	)

	if st, problem := validateStrictness(fields["strictness"]); problem != nil {
		problems = append(problems, *problem)
	} else {
		pref.Strictness = st
	}

	if focus, problem := validateFocus(fields["focus"]); problem != nil {
		problems = append(problems, *problem)
	} else {
		pref.Focus = focus
	}

	if m, problem := validateModel(fields["preferred_model"]); problem != nil {
		problems = append(problems, *problem)
	} else {
		pref.PreferredModel = m
	}

	if len(problems) > 0 {
		return model.PullRequestPreference{}, &model.ConfigError{Problems: problems}
	}
	return pref, nil
}

// decodePayload decodes the JSON object at the start of payload. Whitespace
// and closing code fences may follow the object; anything else is rejected.
func decodePayload(payload string) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(payload))

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}

	trailing := strings.TrimSpace(payload[dec.InputOffset():])
	trailing = strings.TrimSpace(strings.ReplaceAll(trailing, "```", ""))
	if trailing != "" {
		return nil, fmt.Errorf("unexpected text after configuration object: %q", truncate(trailing, 40))
	}
	return fields, nil
}

func validateStrictness(raw json.RawMessage) (model.Strictness, *model.ConfigProblem) {
	allowed := joinStrictness()
	if isAbsent(raw) {
		return "", &model.ConfigProblem{
			Kind:    model.ConfigErrInvalidStrictness,
			Message: fmt.Sprintf("Missing `strictness`. Use one of: %s.", allowed),
		}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &model.ConfigProblem{
			Kind:    model.ConfigErrInvalidStrictness,
			Detail:  string(raw),
			Message: fmt.Sprintf("Invalid `strictness`: `%s` is not a string. Use one of: %s.", raw, allowed),
		}
	}

	st, ok := model.ParseStrictness(s)
	if !ok {
		return "", &model.ConfigProblem{
			Kind:    model.ConfigErrInvalidStrictness,
			Detail:  s,
			Message: fmt.Sprintf("Invalid `strictness`: `%s`. Use one of: %s.", s, allowed),
		}
	}
	return st, nil
}

func validateFocus(raw json.RawMessage) ([]model.Focus, *model.ConfigProblem) {
	allowed := model.JoinFocus(model.AllFocus())
	missing := &model.ConfigProblem{
		Kind:    model.ConfigErrMissingFocus,
		Message: fmt.Sprintf("Missing `focus`. Provide a non-empty list from: %s.", allowed),
	}
	if isAbsent(raw) {
		return nil, missing
	}

	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, &model.ConfigProblem{
			Kind:    model.ConfigErrInvalidFocus,
			Detail:  string(raw),
			Message: fmt.Sprintf("Invalid `focus`: expected a list of strings. Allowed: %s.", allowed),
		}
	}
	if len(tags) == 0 {
		return nil, missing
	}

	focus := make([]model.Focus, 0, len(tags))
	var invalid []string
	for _, tag := range tags {
		f, ok := model.ParseFocus(tag)
		if !ok {
			invalid = append(invalid, tag)
			continue
		}
		focus = append(focus, f)
	}
	if len(invalid) > 0 {
		detail := strings.Join(invalid, ", ")
		return nil, &model.ConfigProblem{
			Kind:    model.ConfigErrInvalidFocus,
			Detail:  detail,
			Message: fmt.Sprintf("Invalid `focus` keys: %s. Allowed: %s.", detail, allowed),
		}
	}
	return model.NormalizeFocus(focus), nil
}

func validateModel(raw json.RawMessage) (model.Model, *model.ConfigProblem) {
	if isAbsent(raw) {
		return model.ModelBoth, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	} else if m, ok := model.ParseModel(s); ok {
		return m, nil
	}
	return "", &model.ConfigProblem{
		Kind:    model.ConfigErrInvalidModel,
		Detail:  s,
		Message: unknownModelText(s),
	}
}

// unknownModelText names the rejected value and the valid options.
func unknownModelText(value string) string {
	options := make([]string, 0, 2)
	for _, m := range model.SelectableModels() {
		options = append(options, string(m))
	}
	return fmt.Sprintf("Unknown model '%s'. Valid options: %s", value, strings.Join(options, ", "))
}

func joinStrictness() string {
	levels := make([]string, 0, 3)
	for _, st := range model.AllStrictness() {
		levels = append(levels, string(st))
	}
	return strings.Join(levels, ", ")
}

// isAbsent treats a missing key and an explicit null the same way.
func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func malformed(detail string) *model.ConfigError {
	return &model.ConfigError{Problems: []model.ConfigProblem{{
		Kind:    model.ConfigErrMalformedPayload,
		Detail:  detail,
		Message: fmt.Sprintf("Failed to parse config. Make sure it's valid JSON. Error: `%s`", detail),
	}}}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
