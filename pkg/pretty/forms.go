package pretty

import (
	"fmt"
	"sort"
	"strings"

	errs "github.com/matzehuels/sexpfmt/pkg/errors"
)

// Strategy selects how the list headed by a special form is broken before
// any width check.
type Strategy int

const (
	// StrategyNone disables special handling for a name.
	StrategyNone Strategy = iota

	// StrategyTypeDeclaration breaks after the first list following the
	// head: (deftype name (parent)\n ...).
	StrategyTypeDeclaration

	// StrategyBlock puts every element of the form on its own line.
	StrategyBlock

	// StrategyDefinition keeps the head, name and argument list together
	// and puts each body element on its own line.
	StrategyDefinition

	// StrategyBindingList is StrategyDefinition that also puts each
	// binding on its own line when there is more than one.
	StrategyBindingList

	// StrategyControlFlow keeps the head and its condition together and
	// puts each body element on its own line.
	StrategyControlFlow

	// StrategyMultiClause puts every clause on its own line and breaks
	// every clause into its elements.
	StrategyMultiClause
)

var strategyNames = map[Strategy]string{
	StrategyNone:            "none",
	StrategyTypeDeclaration: "type_declaration",
	StrategyBlock:           "block",
	StrategyDefinition:      "definition",
	StrategyBindingList:     "binding_list",
	StrategyControlFlow:     "control_flow",
	StrategyMultiClause:     "multi_clause",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy returns the Strategy with the given name, as printed by
// Strategy.String.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return StrategyNone, errs.New(errs.ErrCodeInvalidConfig, "unknown form strategy %q", name)
}

// FormRule is the layout rule for one special-form name.
type FormRule struct {
	Strategy Strategy

	// IndentDelta is added to the indentation of every line break the
	// rule inserts.
	IndentDelta int
}

// FormTable maps special-form names to their layout rules. A rule only
// applies when the name is the first element of a list.
//
// The zero value is an empty table. A FormTable is not safe for concurrent
// mutation, but any number of layouts may read it concurrently.
type FormTable struct {
	rules map[string]FormRule
}

// NewFormTable returns an empty table.
func NewFormTable() *FormTable {
	return &FormTable{rules: make(map[string]FormRule)}
}

// DefaultForms returns a fresh copy of the built-in table.
func DefaultForms() *FormTable {
	t := NewFormTable()
	t.Set("deftype", FormRule{Strategy: StrategyTypeDeclaration})
	t.Set("begin", FormRule{Strategy: StrategyBlock})
	for _, name := range []string{"defun", "defmethod", "defun-debug"} {
		t.Set(name, FormRule{Strategy: StrategyDefinition})
	}
	for _, name := range []string{"let", "let*", "rlet"} {
		t.Set(name, FormRule{Strategy: StrategyBindingList})
	}
	for _, name := range []string{"while", "dotimes", "until", "if", "when"} {
		t.Set(name, FormRule{Strategy: StrategyControlFlow})
	}
	t.Set("cond", FormRule{Strategy: StrategyMultiClause})
	return t
}

// defaultForms backs layouts that do not supply a table. It is never
// mutated.
var defaultForms = DefaultForms()

// Set adds or replaces the rule for name. Setting StrategyNone removes
// special handling.
func (t *FormTable) Set(name string, rule FormRule) {
	if t.rules == nil {
		t.rules = make(map[string]FormRule)
	}
	if rule.Strategy == StrategyNone {
		delete(t.rules, name)
		return
	}
	t.rules[name] = rule
}

// Delete removes the rule for name.
func (t *FormTable) Delete(name string) {
	delete(t.rules, name)
}

// Lookup returns the rule for name.
func (t *FormTable) Lookup(name string) (FormRule, bool) {
	if t == nil {
		return FormRule{}, false
	}
	r, ok := t.rules[name]
	return r, ok
}

// Len returns the number of names with a rule.
func (t *FormTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Names returns the names with a rule, sorted.
func (t *FormTable) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.rules))
	for name := range t.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of t.
func (t *FormTable) Clone() *FormTable {
	c := NewFormTable()
	if t == nil {
		return c
	}
	for name, r := range t.rules {
		c.rules[name] = r
	}
	return c
}

// Fingerprint returns a stable textual summary of the table, suitable for
// cache keys. Equal tables have equal fingerprints.
func (t *FormTable) Fingerprint() string {
	var b strings.Builder
	for i, name := range t.Names() {
		if i > 0 {
			b.WriteByte(';')
		}
		r := t.rules[name]
		fmt.Fprintf(&b, "%s=%s:%d", name, r.Strategy, r.IndentDelta)
	}
	return b.String()
}
