// Package restriction is the Cartesian/matrix configuration adapter (§6):
// an opaque collaborator that turns a restriction expression into an
// iterable of flat parameter dictionaries. The core (object, node, graph)
// never inspects restriction syntax itself; it only consumes the Dicts this
// package produces. Per spec.md's Non-goals, this is intentionally a small,
// line-oriented "only/no" interpreter and not a new configuration language.
package restriction

import (
	"sort"
	"strings"

	"github.com/cartgraph/cartgraph/internal/errors"
)

// Dict is a flat parameter dictionary, the unit the rest of cartgraph
// operates on.
type Dict map[string]string

// Clone returns a deep copy of d.
func (d Dict) Clone() Dict {
	out := make(Dict, len(d))
	for k, v := range d {
		out[k] = v
	}

	return out
}

// Candidate is one entry in the pool a restriction is evaluated against: a
// dictionary plus the set of tags (variant tokens) a restriction line can
// match against.
type Candidate struct {
	Dict Dict
	Tags []string
}

// EmptyProductError is returned when a restriction yields no dictionaries
// (§7 EmptyProduct).
type EmptyProductError struct {
	Restriction string
}

func (e EmptyProductError) Error() string {
	return "restriction produced an empty set of parameter dictionaries: " + e.Restriction
}

// Adapter parses a restriction string against a pool of candidates.
type Adapter interface {
	// Parse evaluates restriction against candidates and returns the
	// surviving dictionaries, each overlaid with params.
	Parse(restrictionText string, candidates []Candidate, overlay Dict) ([]Dict, error)

	// Reparse applies an additional restriction line on top of an
	// already-produced set of dictionaries (§6: "ability to re-parse with
	// an additional restriction").
	Reparse(base []Dict, baseTags [][]string, additional string) ([]Dict, error)
}

// LineAdapter is the default Adapter: each non-blank line is either
// "only <token>" or "no <token>", lines are ANDed together, and a line
// matches a candidate when one of its Tags equals, or dot-contains, the
// token (so "only CentOS" matches a tag "CentOS.8").
type LineAdapter struct{}

// NewLineAdapter constructs the default restriction adapter.
func NewLineAdapter() *LineAdapter {
	return &LineAdapter{}
}

func (a *LineAdapter) Parse(restrictionText string, candidates []Candidate, overlay Dict) ([]Dict, error) {
	lines := splitLines(restrictionText)

	survivors := candidates
	for _, line := range lines {
		filtered, err := applyLine(survivors, line)
		if err != nil {
			return nil, err
		}

		survivors = filtered
	}

	out := make([]Dict, 0, len(survivors))
	for _, c := range survivors {
		d := c.Dict.Clone()
		for k, v := range overlay {
			d[k] = v
		}

		out = append(out, d)
	}

	if len(out) == 0 {
		return nil, errors.WithStackTrace(EmptyProductError{Restriction: restrictionText})
	}

	return out, nil
}

func (a *LineAdapter) Reparse(base []Dict, baseTags [][]string, additional string) ([]Dict, error) {
	candidates := make([]Candidate, len(base))
	for i, d := range base {
		candidates[i] = Candidate{Dict: d, Tags: baseTags[i]}
	}

	return a.Parse(additional, candidates, nil)
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")

	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}

		lines = append(lines, l)
	}

	sort.Strings(lines) // deterministic evaluation order regardless of input whitespace quirks

	return lines
}

func applyLine(candidates []Candidate, line string) ([]Candidate, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, errors.Errorf("malformed restriction line %q: expected \"only|no <token>\"", line)
	}

	verb, token := fields[0], strings.Join(fields[1:], " ")

	var negate bool

	switch verb {
	case "only":
		negate = false
	case "no":
		negate = true
	default:
		return nil, errors.Errorf("malformed restriction line %q: unknown verb %q", line, verb)
	}

	out := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		matched := tagsMatch(c.Tags, token)
		if matched != negate {
			out = append(out, c)
		}
	}

	return out, nil
}

func tagsMatch(tags []string, token string) bool {
	for _, t := range tags {
		if t == token {
			return true
		}

		for _, part := range strings.Split(t, ".") {
			if part == token {
				return true
			}
		}
	}

	return false
}
