package internal

import (
	"regexp"
	"strings"
)

// Generators routinely echo the speaker's name back at the start of a
// reply ("Alice: hey!") or repeat the texting-mode marker they were
// prompted with. stripStrategies is the ordered list of known echo
// shapes; the first one that matches is stripped and the rest are
// skipped. This is heuristic by nature: an unanticipated echo format
// (trailing punctuation, nested quotes) passes through untouched.
type stripStrategy struct {
	name    string
	pattern func(name string) *regexp.Regexp
}

var stripStrategies = []stripStrategy{
	{
		name: "plain prefix",
		pattern: func(name string) *regexp.Regexp {
			return regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(name) + `\s*:\s*`)
		},
	},
	{
		name: "decorated prefix",
		pattern: func(name string) *regexp.Regexp {
			// Leading emoji, punctuation or whitespace before the name.
			return regexp.MustCompile(`(?i)^[^\pL\pN]*` + regexp.QuoteMeta(name) + `\s*:\s*`)
		},
	},
	{
		name: "bracketed",
		pattern: func(name string) *regexp.Regexp {
			return regexp.MustCompile(`(?i)^\[\s*` + regexp.QuoteMeta(name) + `\s*\]\s*:?\s*`)
		},
	},
	{
		name: "parenthesized",
		pattern: func(name string) *regexp.Regexp {
			return regexp.MustCompile(`(?i)^\(\s*` + regexp.QuoteMeta(name) + `\s*\)\s*:?\s*`)
		},
	},
}

// StripReplyArtifacts cleans generator output: the mode marker prefix
// goes first if present, then the first matching name-echo pattern.
// Returns the trimmed remainder, which may be empty.
func StripReplyArtifacts(raw, displayName, modeMarker string) string {
	text := strings.TrimSpace(raw)

	if modeMarker != "" {
		lower := strings.ToLower(text)
		if strings.HasPrefix(lower, strings.ToLower(modeMarker)) {
			text = strings.TrimSpace(text[len(modeMarker):])
		}
	}

	if displayName == "" {
		return text
	}

	for _, strat := range stripStrategies {
		re := strat.pattern(displayName)
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			LogDebug("Stripped %s name echo from reply for %s", strat.name, displayName)
			text = strings.TrimSpace(text[loc[1]:])
			break
		}
	}

	return text
}
