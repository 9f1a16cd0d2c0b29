package rules

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRules(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "substitutions.rules")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	return path
}

func TestEngineLiteralAndRegexRules(t *testing.T) {
	t.Parallel()

	path := writeRules(t, `
# literal
pull request => PR
# regex, case-insensitive by default
s/\bhot\s*mic\b/hotmic/g
`)

	engine, err := NewEngine(path, 30)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if engine.Len() != 2 {
		t.Fatalf("expected 2 rules, got %d", engine.Len())
	}

	output, err := engine.Apply("Hot Mic opened a pull request")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if output != "hotmic opened a PR" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestEngineIteratesUntilStable(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(writeRules(t, "b => c\na => b\n"), 5)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	output, err := engine.Apply("a")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if output != "c" {
		t.Fatalf("expected c, got %q", output)
	}
}

func TestEngineReportsCyclicRules(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(writeRules(t, "yes => no\nno => yes\n"), 4)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	if _, err := engine.Apply("yes"); !errors.Is(err, ErrNotConverged) {
		t.Fatalf("expected ErrNotConverged, got %v", err)
	}
}

func TestLiteralRulesRespectWordBoundaries(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(writeRules(t, "cat => dog\nsolid complaint => SOLID-compliant\n"), 30)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	output, err := engine.Apply("Cat category, solid complaint plan")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if output != "dog category, SOLID-compliant plan" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestLiteralReplacementIsNotExpanded(t *testing.T) {
	t.Parallel()

	rule, err := parseLiteral("dollar => $1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	output, _ := rule.Apply("one dollar")
	if output != "one $1" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestEngineMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(filepath.Join(t.TempDir(), "missing.rules"), 0)
	if err != nil {
		t.Fatalf("expected missing file to be tolerated: %v", err)
	}
	output, err := engine.Apply("unchanged")
	if err != nil || output != "unchanged" {
		t.Fatalf("unexpected result: %q, %v", output, err)
	}
}

func TestEngineReloadKeepsRulesOnError(t *testing.T) {
	t.Parallel()

	path := writeRules(t, "teh => the\n")
	engine, err := NewEngine(path, 30)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	if err := os.WriteFile(path, []byte("not-a-rule\n"), 0o600); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	if err := engine.Reload(); err == nil {
		t.Fatalf("expected reload error")
	}
	if output, _ := engine.Apply("teh end"); output != "the end" {
		t.Fatalf("expected previous rules to stay active, got %q", output)
	}

	if err := os.WriteFile(path, []byte("end => finish\n"), 0o600); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	if err := engine.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if output, _ := engine.Apply("teh end"); output != "teh finish" {
		t.Fatalf("expected reloaded rules, got %q", output)
	}
}

func TestEngineSupportsParserExtension(t *testing.T) {
	t.Parallel()

	parsers := append([]Parser{prefixParser{}}, DefaultParsers()...)
	engine, err := NewEngineWithParsers(writeRules(t, "prefix:Hello=>Howdy\n"), 5, parsers)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	output, err := engine.Apply("hello world")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if output != "Howdy world" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestRegexRuleWithoutGlobalReplacesFirstMatchOnly(t *testing.T) {
	t.Parallel()

	rule, err := parseRegex(`s/(foo)/[$1]/`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	output, changed := rule.Apply("foo foo")
	if !changed {
		t.Fatalf("expected changed=true")
	}
	if output != "[foo] foo" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestRegexRuleAlternateDelimiter(t *testing.T) {
	t.Parallel()

	rule, err := parseRegex(`s|and/or|or|g`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if output, _ := rule.Apply("this and/or that"); output != "this or that" {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestParseRegexErrors(t *testing.T) {
	t.Parallel()

	for _, line := range []string{`s/foo/bar/x`, `s/foo/bar`, `s/(/x/`} {
		if _, err := parseRegex(line); err == nil {
			t.Fatalf("expected error for %q", line)
		}
	}
}

func TestParseUnsupportedLine(t *testing.T) {
	t.Parallel()

	_, err := Parse("# comment\n\nnot-a-rule", DefaultParsers())
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected line 3 error, got %v", err)
	}
}

type prefixParser struct{}

func (prefixParser) CanParse(line string) bool {
	return strings.HasPrefix(line, "prefix:")
}

func (prefixParser) Parse(line string) (Rule, error) {
	from, to, _ := strings.Cut(strings.TrimPrefix(line, "prefix:"), "=>")
	return parseLiteral(from + " => " + to)
}
