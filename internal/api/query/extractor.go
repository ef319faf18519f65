package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

// The extractor pulls a place name out of an unstructured sentence through a
// priority-ordered cascade of pattern rules. The first rule whose regexp
// matches AND whose semantic filter accepts the sentence wins; there is no
// backtracking into later rules once a rule has accepted, and no "best match"
// scoring. Rules are tried strictly in slice order.

const (
	// Place text may include letters, spaces, commas, periods, apostrophes
	// and hyphens so that "St. Louis", "Winston-Salem" and "Portland, Oregon"
	// are all admissible.
	placeExpr = `[A-Za-z][A-Za-z\s.,'-]*?`

	keywordExpr = `(?:weather|forecast|temperature|temp)`

	// A trailer ends the place span: a time/day word, a comma, terminal
	// punctuation, or end of string. The bare period only terminates at the
	// end of the sentence so "St. Louis" keeps its dot.
	trailerExpr = `(?:\s+(?:on|at|today|tomorrow|this|next)\b|[,?!]|\.?\s*$)`
)

type rule struct {
	name string
	re   *regexp.Regexp
	// filter decides whether a syntactic match is semantically acceptable.
	// Returning false falls through to the next rule.
	filter func(query, captured string) bool
}

var rules = []rule{
	{
		// Prepositional form: "... in <place> [trailer]" / "... for <place>".
		name:   "prepositional",
		re:     regexp.MustCompile(`(?i)\b(?:in|for)\s+(` + placeExpr + `)` + trailerExpr),
		filter: acceptAll,
	},
	{
		// Place-then-keyword form: "<place> weather" at the start.
		name:   "place-keyword",
		re:     regexp.MustCompile(`(?i)^\s*(` + placeExpr + `)\s+` + keywordExpr + `\b`),
		filter: notInterrogativeShortSpan,
	},
	{
		// Keyword-then-place form: "weather [in|for|at] <place> [trailer]".
		// Note the deliberate consequence: "Weather tomorrow" matches here
		// with "tomorrow" captured as the place text. That behavior is pinned
		// by tests; do not special-case it away.
		name:   "keyword-place",
		re:     regexp.MustCompile(`(?i)\b` + keywordExpr + `\s+(?:(?:in|for|at)\s+)?(` + placeExpr + `)` + trailerExpr),
		filter: notInterrogative,
	},
	{
		// Bare leading place: "<place> tomorrow", "<place> weather ...".
		name:   "bare-place",
		re:     regexp.MustCompile(`(?i)^\s*(` + placeExpr + `)\s+(?:` + keywordExpr + `|on|at|today|tomorrow|this|next)\b`),
		filter: notInterrogative,
	},
}

// questionWords reject keyword-adjacent patterns on interrogative sentences;
// the prepositional form is exempt because "What's the weather in London?"
// still names a place explicitly.
var questionWords = map[string]bool{
	"what": true, "how": true, "when": true, "where": true, "why": true,
	"which": true, "is": true, "are": true, "do": true, "does": true,
	"will": true, "can": true, "should": true, "would": true, "could": true,
}

func acceptAll(string, string) bool { return true }

func isInterrogative(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if strings.HasSuffix(q, "like?") {
		return true
	}
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return false
	}
	first := strings.TrimSuffix(fields[0], "'s")
	return questionWords[first]
}

func notInterrogative(query, _ string) bool {
	return !isInterrogative(query)
}

// notInterrogativeShortSpan additionally rejects captures longer than three
// words, a heuristic against swallowing the subject of a long question.
func notInterrogativeShortSpan(query, captured string) bool {
	if isInterrogative(query) {
		return false
	}
	return len(strings.Fields(captured)) <= 3
}

// normalize collapses repeated internal whitespace and trims the span.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Extract pulls a candidate place name from a natural-language sentence.
// It fails with types.ErrNoMatch when no pattern applies; callers must treat
// that as "ask the user to clarify", never as "assume no location".
func Extract(q string) (string, error) {
	for _, r := range rules {
		m := r.re.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		if !r.filter(q, m[1]) {
			continue
		}
		place := normalize(m[1])
		if place == "" {
			continue
		}
		return place, nil
	}
	return "", fmt.Errorf("%w: %q", types.ErrNoMatch, q)
}
