package rules

import (
	"fmt"
	"strings"
)

// Rule rewrites text, reporting whether anything changed.
type Rule interface {
	Apply(input string) (output string, changed bool)
}

// Parser turns one rules-file line into a Rule.
type Parser interface {
	CanParse(line string) bool
	Parse(line string) (Rule, error)
}

// DefaultParsers recognizes sed-style regex rules and "from => to" literals.
// Regex is tried first so "s/a=>b/c/" is not read as a literal.
func DefaultParsers() []Parser {
	return []Parser{regexParser{}, literalParser{}}
}

// Parse compiles a rules file. Blank lines and lines starting with # are
// skipped; any other unrecognized line is an error.
func Parse(contents string, parsers []Parser) ([]Rule, error) {
	lines := strings.Split(contents, "\n")
	rules := make([]Rule, 0, len(lines))

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, err := parseLine(line, parsers)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseLine(line string, parsers []Parser) (Rule, error) {
	for _, p := range parsers {
		if p.CanParse(line) {
			return p.Parse(line)
		}
	}
	return nil, fmt.Errorf("unsupported rule format %q", line)
}
