package model

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// RuleSchema declares, per binding name (crop, bed, crop1, ...), the
// record fields a rule is allowed to reference.
type RuleSchema map[string]map[string]bool

// Rule is a user-supplied boolean predicate over named records,
// compiled once at build time. Evaluation is pure: rules never mutate
// the bound records.
type Rule struct {
	text    string
	program *vm.Program
}

// CompileRule parses the predicate text, validates every field
// reference against the schema, and compiles it. Referencing an
// unknown binding or an attribute absent from the bound record's
// schema fails with ErrUndefinedAttribute at compile time, never
// silently at evaluation time.
func CompileRule(text string, schema RuleSchema) (*Rule, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if text == "" {
		return nil, fmt.Errorf("%w: empty rule", ErrMissingParameter)
	}

	tree, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid rule %q: %w", text, err)
	}
	checker := &schemaChecker{schema: schema}
	ast.Walk(&tree.Node, checker)
	if checker.err != nil {
		return nil, checker.err
	}

	program, err := expr.Compile(text, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid rule %q: %w", text, err)
	}
	return &Rule{text: text, program: program}, nil
}

// Eval evaluates the rule against the given named records.
func (r *Rule) Eval(binding map[string]any) (bool, error) {
	out, err := expr.Run(r.program, binding)
	if err != nil {
		return false, fmt.Errorf("evaluating rule %q: %w", r.text, err)
	}
	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("rule %q did not evaluate to a boolean", r.text)
	}
	return result, nil
}

func (r *Rule) String() string { return r.text }

// schemaChecker walks the parsed expression and validates binding and
// field references. Only statically-named member accesses can be
// checked; computed accesses are left to runtime.
type schemaChecker struct {
	schema RuleSchema
	err    error
}

func (c *schemaChecker) Visit(node *ast.Node) {
	if c.err != nil {
		return
	}
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		if _, ok := c.schema[n.Value]; !ok {
			c.err = fmt.Errorf("%w: unknown binding %q (expected one of %s)",
				ErrUndefinedAttribute, n.Value, bindingNames(c.schema))
		}
	case *ast.MemberNode:
		identifier, ok := n.Node.(*ast.IdentifierNode)
		if !ok {
			return
		}
		property, ok := n.Property.(*ast.StringNode)
		if !ok {
			return
		}
		fields, ok := c.schema[identifier.Value]
		if !ok {
			c.err = fmt.Errorf("%w: unknown binding %q (expected one of %s)",
				ErrUndefinedAttribute, identifier.Value, bindingNames(c.schema))
			return
		}
		if !fields[property.Value] {
			c.err = fmt.Errorf("%w: %s.%s", ErrUndefinedAttribute, identifier.Value, property.Value)
		}
	}
}

func bindingNames(schema RuleSchema) string {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}
