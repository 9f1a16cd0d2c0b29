// Package rules post-processes transcripts with deterministic substitutions
// read from a user rules file.
package rules

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

const defaultPassLimit = 30

// ErrNotConverged is returned when rules keep rewriting each other's output
// past the pass limit.
var ErrNotConverged = errors.New("rules did not converge")

// Engine applies substitution rules until the text stops changing.
type Engine struct {
	path      string
	passLimit int
	parsers   []Parser

	mu    sync.RWMutex
	rules []Rule
}

// NewEngine loads rules from path with the built-in parsers. An empty path or
// a missing file yields an engine that returns text unchanged.
func NewEngine(path string, passLimit int) (*Engine, error) {
	return NewEngineWithParsers(path, passLimit, DefaultParsers())
}

// NewEngineWithParsers consults parsers in order for each line.
func NewEngineWithParsers(path string, passLimit int, parsers []Parser) (*Engine, error) {
	if passLimit <= 0 {
		passLimit = defaultPassLimit
	}
	if len(parsers) == 0 {
		parsers = DefaultParsers()
	}
	e := &Engine{path: strings.TrimSpace(path), passLimit: passLimit, parsers: parsers}
	if err := e.Reload(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload re-reads the rules file. On error the current rules stay in place.
func (e *Engine) Reload() error {
	rules, err := e.load()
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.rules = rules
	e.mu.Unlock()
	return nil
}

func (e *Engine) load() ([]Rule, error) {
	if e.path == "" {
		return nil, nil
	}
	contents, err := os.ReadFile(e.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read rules file %q: %w", e.path, err)
	}
	rules, err := Parse(string(contents), e.parsers)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", e.path, err)
	}
	return rules, nil
}

// Path is the rules file the engine reads.
func (e *Engine) Path() string { return e.path }

// Len reports how many rules are loaded.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// Apply runs every rule in file order, repeating whole passes until a pass
// changes nothing. When the pass limit is hit the last output is returned
// together with ErrNotConverged.
func (e *Engine) Apply(text string) (string, error) {
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	if len(rules) == 0 {
		return text, nil
	}

	result := text
	for pass := 0; pass < e.passLimit; pass++ {
		changed := false
		for _, rule := range rules {
			if next, ok := rule.Apply(result); ok {
				result = next
				changed = true
			}
		}
		if !changed {
			return result, nil
		}
	}
	return result, fmt.Errorf("%w after %d passes", ErrNotConverged, e.passLimit)
}
