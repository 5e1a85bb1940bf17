// Package taxonomy holds the statement categories, their seed phrases, and
// the keyword rules used to label financial statement pages. The default
// taxonomy is embedded; a TOML file can replace it at start-up.
package taxonomy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed default.toml
var defaultTOML []byte

// Taxonomy is immutable once loaded.
type Taxonomy struct {
	Threshold     float64       `toml:"threshold"`
	Categories    []Category    `toml:"category"`
	Fallback      Fallback      `toml:"fallback"`
	Consolidation Consolidation `toml:"consolidation"`
}

// Category is a statement type and the phrases that represent it.
type Category struct {
	Name    string   `toml:"name"`
	Phrases []string `toml:"phrases"`
}

// Fallback decides the statement type by keyword when similarity is not
// confident enough.
type Fallback struct {
	Default string `toml:"default"`
	Rules   []Rule `toml:"rule"`
}

// Consolidation decides whether a page is consolidated or standalone.
// Labels fixes the report order.
type Consolidation struct {
	Labels  []string `toml:"labels"`
	Default string   `toml:"default"`
	Rules   []Rule   `toml:"rule"`
}

// Rule assigns Label when any keyword occurs in the lower-cased text.
type Rule struct {
	Label    string   `toml:"label"`
	Keywords []string `toml:"keywords"`

	matcher *Matcher
}

// Default returns the embedded taxonomy.
func Default() (*Taxonomy, error) {
	return Parse(defaultTOML)
}

// Load reads a taxonomy file, or the embedded default when path is empty.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("taxonomy %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes, validates and compiles a TOML taxonomy.
func Parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	t.compile()
	return &t, nil
}

// StatementLabels returns category names in declaration order.
func (t *Taxonomy) StatementLabels() []string {
	out := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		out[i] = c.Name
	}
	return out
}

// ConsolidationLabels returns consolidation labels in report order.
func (t *Taxonomy) ConsolidationLabels() []string {
	return append([]string(nil), t.Consolidation.Labels...)
}

// ResolveConsolidation applies the consolidation rules in order.
func (t *Taxonomy) ResolveConsolidation(text string) string {
	return resolve(strings.ToLower(text), t.Consolidation.Rules, t.Consolidation.Default)
}

// ResolveFallback applies the fallback keyword rules in order.
func (t *Taxonomy) ResolveFallback(text string) string {
	return resolve(strings.ToLower(text), t.Fallback.Rules, t.Fallback.Default)
}

func resolve(lower string, rules []Rule, def string) string {
	for i := range rules {
		if rules[i].matcher.MatchAny(lower) {
			return rules[i].Label
		}
	}
	return def
}

func (t *Taxonomy) validate() error {
	if len(t.Categories) == 0 {
		return errors.New("at least one category is required")
	}
	if t.Threshold < -1 || t.Threshold > 1 {
		return fmt.Errorf("threshold %v out of range [-1, 1]", t.Threshold)
	}

	statements := make(map[string]bool, len(t.Categories))
	for i, c := range t.Categories {
		if c.Name == "" {
			return fmt.Errorf("category %d: name is required", i)
		}
		if statements[c.Name] {
			return fmt.Errorf("category %q: duplicate name", c.Name)
		}
		statements[c.Name] = true
		if len(c.Phrases) == 0 {
			return fmt.Errorf("category %q: at least one phrase is required", c.Name)
		}
		for _, p := range c.Phrases {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("category %q: empty phrase", c.Name)
			}
		}
	}
	if err := validateRules("fallback", t.Fallback.Default, t.Fallback.Rules, statements); err != nil {
		return err
	}

	if len(t.Consolidation.Labels) == 0 {
		return errors.New("consolidation: at least one label is required")
	}
	consolidation := make(map[string]bool, len(t.Consolidation.Labels))
	for _, l := range t.Consolidation.Labels {
		if l == "" || consolidation[l] {
			return fmt.Errorf("consolidation: invalid or duplicate label %q", l)
		}
		consolidation[l] = true
	}
	return validateRules("consolidation", t.Consolidation.Default, t.Consolidation.Rules, consolidation)
}

func validateRules(section, def string, rules []Rule, known map[string]bool) error {
	if !known[def] {
		return fmt.Errorf("%s: unknown default label %q", section, def)
	}
	for i, r := range rules {
		if !known[r.Label] {
			return fmt.Errorf("%s rule %d: unknown label %q", section, i, r.Label)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("%s rule %d: at least one keyword is required", section, i)
		}
		for _, k := range r.Keywords {
			if k == "" {
				return fmt.Errorf("%s rule %d: empty keyword", section, i)
			}
		}
	}
	return nil
}

func (t *Taxonomy) compile() {
	for _, rules := range [][]Rule{t.Fallback.Rules, t.Consolidation.Rules} {
		for i := range rules {
			for j, k := range rules[i].Keywords {
				rules[i].Keywords[j] = strings.ToLower(k)
			}
			rules[i].matcher = NewMatcher(rules[i].Keywords)
		}
	}
}
