package rule

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "embed"

	"github.com/macropower/xlclean/pkg/column"
	"github.com/macropower/xlclean/pkg/match"
	"github.com/macropower/xlclean/pkg/table"
	"github.com/macropower/xlclean/pkg/yaml"
)

//go:embed rules.yaml
var rulesYAML []byte

// ErrEmptyTable indicates that a rule document contains no rules.
var ErrEmptyTable = errors.New("rule table is empty")

// Rule removes a row when the cell in Column contains any of Patterns.
type Rule struct {
	set   match.Set
	label string
	index int

	// Name is a human-readable name for the column, e.g. "ShipmentID".
	Name string `json:"name,omitempty" jsonschema:"title=Name"`
	// Column is the spreadsheet column label, e.g. "BV".
	Column string `json:"column" jsonschema:"required,title=Column,pattern=^[A-Za-z]+$"`
	// Patterns are literal substrings compared case-insensitively.
	Patterns []string `json:"patterns" jsonschema:"required,title=Patterns,minItems=1"`
}

// New creates and compiles a rule.
func New(name, col string, patterns ...string) (*Rule, error) {
	r := &Rule{
		Name:     name,
		Column:   col,
		Patterns: patterns,
	}
	if err := r.Compile(); err != nil {
		return nil, err
	}

	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(name, col string, patterns ...string) *Rule {
	r, err := New(name, col, patterns...)
	if err != nil {
		panic(err)
	}

	return r
}

// Compile resolves the column label and prepares the pattern set.
func (r *Rule) Compile() error {
	idx, err := column.Resolve(r.Column)
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.Name, err)
	}

	for i, p := range r.Patterns {
		if p == "" {
			return fmt.Errorf("rule %q: pattern %d is empty", r.Name, i)
		}
	}
	if len(r.Patterns) == 0 {
		return fmt.Errorf("rule %q: no patterns", r.Name)
	}

	label, err := column.Label(idx)
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.Name, err)
	}

	r.index = idx
	r.label = label
	r.set = match.NewSet(r.Patterns...)

	return nil
}

// Index returns the zero-based column index resolved by [Rule.Compile].
func (r *Rule) Index() int {
	return r.index
}

// Label returns the canonical column label resolved by [Rule.Compile], or the
// upper-cased [Rule.Column] before compilation.
func (r *Rule) Label() string {
	if r.label == "" {
		return column.Normalize(r.Column)
	}

	return r.label
}

// Match reports whether the rule's cell in row contains any pattern. Rows
// narrower than the rule's column never match.
func (r *Rule) Match(row table.Row) bool {
	_, ok := r.MatchedPattern(row)
	return ok
}

// MatchedPattern returns the first pattern contained in the rule's cell.
func (r *Rule) MatchedPattern(row table.Row) (string, bool) {
	if r.index >= len(row) {
		return "", false
	}

	return r.set.First(row[r.index])
}

// DisplayName returns the name, or the column label if the rule is unnamed.
func (r *Rule) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}

	return "Column " + r.Label()
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s (%s): %s", r.DisplayName(), r.Label(), strings.Join(r.Patterns, ", "))
}

// Table is an ordered list of compiled rules.
type Table []*Rule

// Document is the serialized form of a [Table].
type Document struct {
	Rules []*Rule `json:"rules" jsonschema:"required,title=Rules,minItems=1"`
}

// MarshalYAML returns the YAML form of the table.
func (t Table) MarshalYAML() ([]byte, error) {
	return yaml.Marshal(Document{Rules: t})
}

// Parse decodes, validates and compiles a rule document.
func Parse(data []byte) (Table, error) {
	validator, err := yaml.NewValidatorFor("/rules.json", &Document{})
	if err != nil {
		return nil, fmt.Errorf("create rule validator: %w", err)
	}

	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("decode rules: %w", yaml.Wrap(err, yaml.WithSource(data)))
	}

	if err := validator.Validate(generic); err != nil {
		return nil, fmt.Errorf("validate rules: %w", yaml.Wrap(err, yaml.WithSource(data)))
	}

	doc := &Document{}
	if err := yaml.NewDecoder(bytes.NewReader(data), yaml.WithStrict()).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode rules: %w", yaml.Wrap(err, yaml.WithSource(data)))
	}

	if len(doc.Rules) == 0 {
		return nil, ErrEmptyTable
	}

	for _, r := range doc.Rules {
		if err := r.Compile(); err != nil {
			return nil, err
		}
	}

	return Table(doc.Rules), nil
}

var loadDefault = sync.OnceValues(func() (Table, error) {
	return Parse(rulesYAML)
})

// Default returns the compiled-in rule table. The table is parsed once per
// process; callers must not modify it.
func Default() (Table, error) {
	return loadDefault()
}

// MustDefault is like [Default] but panics on error.
func MustDefault() Table {
	t, err := Default()
	if err != nil {
		panic(err)
	}

	return t
}
