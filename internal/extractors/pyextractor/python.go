// Package pyextractor extracts structural facts from Python source code
// using tree-sitter.
package pyextractor

import (
	"path/filepath"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"psymcp/internal/facts"
)

// guardWindow is how many leading statements of a function body are
// examined for guard clauses.
const guardWindow = 3

// bodyWindow is how many leading statements contribute to the
// structural signature.
const bodyWindow = 5

// nestingKinds are the statement kinds that add a level of nesting.
var nestingKinds = map[string]bool{
	"if_statement":        true,
	"elif_clause":         true,
	"for_statement":       true,
	"while_statement":     true,
	"with_statement":      true,
	"try_statement":       true,
	"match_statement":     true,
	"function_definition": true,
	"class_definition":    true,
}

// logAttributes are attribute names that mark a call as a logging call.
var logAttributes = map[string]bool{
	"error": true, "warning": true, "exception": true, "info": true, "debug": true,
}

// PyExtractor extracts structural facts from Python files.
type PyExtractor struct{}

// New creates a new PyExtractor.
func New() *PyExtractor {
	return &PyExtractor{}
}

func (e *PyExtractor) Name() string {
	return "python"
}

// Matches returns true for .py files.
func (e *PyExtractor) Matches(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".py"
}

// ExtractFile parses one Python file. Files tree-sitter cannot parse
// cleanly return (nil, nil) and are skipped by the caller.
func (e *PyExtractor) ExtractFile(src []byte, path string) (*facts.FileFacts, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(sitter.NewLanguage(python.Language()))

	tree := parser.Parse(src, nil)
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, nil
	}

	ff := &facts.FileFacts{}
	w := &walker{src: src, path: path, ff: ff}
	w.walk(root, facts.ModuleScope)
	return ff, nil
}

// walker carries the per-file extraction state through one traversal.
type walker struct {
	src  []byte
	path string
	ff   *facts.FileFacts
}

// walk visits every node, recording facts for definitions, handlers, and
// defensive patterns. scope is the name of the innermost enclosing
// function, or the module scope marker.
func (w *walker) walk(node *sitter.Node, scope string) {
	switch node.Kind() {
	case "function_definition":
		name := w.text(node.ChildByFieldName("name"))
		w.ff.FunctionCount++
		w.recordName(name, facts.CategoryFunction, node)
		w.ff.NestingDepths = append(w.ff.NestingDepths, functionNesting(node))
		w.ff.Signatures = append(w.ff.Signatures, w.signature(node))
		w.extractGuards(node, name)
		scope = name

	case "class_definition":
		w.ff.ClassCount++
		w.recordName(w.text(node.ChildByFieldName("name")), facts.CategoryClass, node)

	case "except_clause":
		w.extractHandler(node, scope)

	case "if_statement", "elif_clause":
		w.checkNullCondition(node)

	case "call":
		if w.text(node.ChildByFieldName("function")) == "isinstance" {
			if args := node.ChildByFieldName("arguments"); args != nil && namedChildCount(args) == 2 {
				w.recordDefense(facts.DefenseTypeCheck, node, w.text(node))
			}
		}

	case "assert_statement":
		context := "assertion"
		if cond := firstNamedChild(node); cond != nil {
			context = w.text(cond)
		}
		w.recordDefense(facts.DefenseAssertion, node, context)

	case "assignment":
		// Uppercase assignment targets at any scope are constants.
		if left := node.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
			if name := w.text(left); facts.IsConstantName(name) {
				w.recordName(name, facts.CategoryConstant, node)
			}
		}
	}

	for i := range node.ChildCount() {
		w.walk(node.Child(i), scope)
	}
}

// checkNullCondition records a null check when a conditional tests an
// identity comparison against None. Equality comparisons do not count.
func (w *walker) checkNullCondition(node *sitter.Node) {
	cond := node.ChildByFieldName("condition")
	if cond == nil || cond.Kind() != "comparison_operator" {
		return
	}
	if !hasChildOfKind(cond, "none") {
		return
	}
	if hasChildOfKind(cond, "is") || hasChildOfKind(cond, "is not") {
		w.recordDefense(facts.DefenseNullCheck, node, w.text(cond))
	}
}

// extractGuards scans the first statements of a function body for guard
// clauses: an if whose first nested statement is a return or a raise.
func (w *walker) extractGuards(fn *sitter.Node, fnName string) {
	stmts := namedStatements(fn.ChildByFieldName("body"))
	if len(stmts) > guardWindow {
		stmts = stmts[:guardWindow]
	}
	for _, stmt := range stmts {
		if stmt.Kind() != "if_statement" {
			continue
		}
		consequence := namedStatements(stmt.ChildByFieldName("consequence"))
		if len(consequence) == 0 {
			continue
		}
		var action facts.GuardAction
		switch consequence[0].Kind() {
		case "return_statement":
			action = facts.GuardReturn
		case "raise_statement":
			action = facts.GuardRaise
		default:
			continue
		}
		w.ff.GuardClauses = append(w.ff.GuardClauses, facts.GuardClause{
			File:      w.path,
			Line:      line(stmt),
			Condition: w.text(stmt.ChildByFieldName("condition")),
			Action:    action,
			Function:  fnName,
		})
	}
}

// extractHandler records one except clause with its exception types and
// the action its body takes.
func (w *walker) extractHandler(clause *sitter.Node, scope string) {
	handler := facts.ErrorHandler{
		File:     w.path,
		Line:     line(clause),
		Function: scope,
	}

	// The expression between "except" and ":" names the caught types.
	// A bare except catches everything.
	var expr *sitter.Node
	var body *sitter.Node
	for i := range clause.ChildCount() {
		c := clause.Child(i)
		if c.Kind() == "block" {
			body = c
			continue
		}
		if c.IsNamed() && expr == nil {
			expr = c
		}
	}
	handler.ExceptionTypes = w.exceptionTypes(expr)
	handler.Action = w.classifyAction(body)
	w.ff.ErrorHandlers = append(w.ff.ErrorHandlers, handler)
}

func (w *walker) exceptionTypes(expr *sitter.Node) []string {
	if expr == nil {
		return []string{facts.CatchAllType}
	}
	switch expr.Kind() {
	case "as_pattern":
		// "except ValueError as e": the first child is the type expression.
		return w.exceptionTypes(expr.Child(0))
	case "tuple":
		var types []string
		for i := range expr.ChildCount() {
			c := expr.Child(i)
			if c.IsNamed() {
				types = append(types, w.text(c))
			}
		}
		return types
	default:
		return []string{w.text(expr)}
	}
}

// classifyAction decides what an except body does with the error. The
// top-level statements are scanned in order: the first raise (bare is a
// reraise, with an expression a transform) or direct logging call wins.
// A body that is a lone pass or ellipsis suppresses. Anything else
// handles.
func (w *walker) classifyAction(body *sitter.Node) facts.HandlerAction {
	stmts := namedStatements(body)
	if len(stmts) == 0 {
		return facts.ActionSuppress
	}

	for _, stmt := range stmts {
		switch stmt.Kind() {
		case "raise_statement":
			if firstNamedChild(stmt) != nil {
				return facts.ActionTransform
			}
			return facts.ActionReraise
		case "expression_statement":
			if w.isLogCall(firstNamedChild(stmt)) {
				return facts.ActionLog
			}
		}
	}

	if len(stmts) == 1 {
		if stmts[0].Kind() == "pass_statement" {
			return facts.ActionSuppress
		}
		if inner := firstNamedChild(stmts[0]); inner != nil && inner.Kind() == "ellipsis" {
			return facts.ActionSuppress
		}
	}
	return facts.ActionHandle
}

// isLogCall reports whether an expression is a call on a logging
// attribute, like logger.error(...).
func (w *walker) isLogCall(expr *sitter.Node) bool {
	if expr == nil || expr.Kind() != "call" {
		return false
	}
	fn := expr.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "attribute" {
		return false
	}
	attr := fn.ChildByFieldName("attribute")
	return attr != nil && logAttributes[w.text(attr)]
}

// signature summarizes a function's shape as a repetition key: parameter
// count, decorator count when present, the kinds of the leading body
// statements, and whether the function ever returns.
func (w *walker) signature(fn *sitter.Node) string {
	parts := []string{"args:0"}
	if params := fn.ChildByFieldName("parameters"); params != nil {
		parts[0] = "args:" + strconv.Itoa(namedChildCount(params))
	}

	if n := decoratorCount(fn); n > 0 {
		parts = append(parts, "deco:"+strconv.Itoa(n))
	}

	stmts := namedStatements(fn.ChildByFieldName("body"))
	if len(stmts) > bodyWindow {
		stmts = stmts[:bodyWindow]
	}
	tokens := make([]string, 0, len(stmts))
	for _, stmt := range stmts {
		tokens = append(tokens, statementToken(stmt))
	}
	parts = append(parts, "body:"+strings.Join(tokens, "-"))

	parts = append(parts, "ret:"+strconv.FormatBool(containsKind(fn, "return_statement")))
	return strings.Join(parts, "|")
}

// decoratorCount counts the decorators attached to a definition, which
// tree-sitter places on a wrapping decorated_definition node.
func decoratorCount(fn *sitter.Node) int {
	parent := fn.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return 0
	}
	n := 0
	for i := range parent.ChildCount() {
		if parent.Child(i).Kind() == "decorator" {
			n++
		}
	}
	return n
}

// statementToken names one statement for the structural signature.
func statementToken(stmt *sitter.Node) string {
	kind := stmt.Kind()
	if kind == "expression_statement" {
		if inner := firstNamedChild(stmt); inner != nil {
			switch inner.Kind() {
			case "assignment", "augmented_assignment":
				return "assign"
			case "call":
				return "call"
			}
		}
		return "expr"
	}
	return strings.TrimSuffix(kind, "_statement")
}

// functionNesting reports a function's maximum nesting depth, counting
// the function boundary itself as one level. A function containing no
// qualifying construct reports zero.
func functionNesting(fn *sitter.Node) int {
	if d := maxNesting(fn, 1); d > 1 {
		return d
	}
	return 0
}

// maxNesting returns the deepest nesting level under node, where the
// node itself occupies the given depth.
func maxNesting(node *sitter.Node, depth int) int {
	deepest := depth
	for i := range node.ChildCount() {
		child := node.Child(i)
		next := depth
		if nestingKinds[child.Kind()] {
			next++
		}
		if d := maxNesting(child, next); d > deepest {
			deepest = d
		}
	}
	return deepest
}

func (w *walker) recordName(name string, category facts.NameCategory, node *sitter.Node) {
	if name == "" {
		return
	}
	prefix, suffix := facts.SplitAffixes(name)
	w.ff.NamingPatterns = append(w.ff.NamingPatterns, facts.NamingPattern{
		Name:     name,
		Category: category,
		File:     w.path,
		Line:     line(node),
		Prefix:   prefix,
		Suffix:   suffix,
	})
}

func (w *walker) recordDefense(kind facts.DefenseKind, node *sitter.Node, context string) {
	w.ff.DefensivePatterns = append(w.ff.DefensivePatterns, facts.DefensivePattern{
		File:    w.path,
		Line:    line(node),
		Kind:    kind,
		Context: context,
	})
}

func (w *walker) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(w.src[node.StartByte():node.EndByte()])
}

func line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// namedStatements returns the named statements of a block, skipping
// comments, which tree-sitter surfaces as named nodes.
func namedStatements(block *sitter.Node) []*sitter.Node {
	if block == nil {
		return nil
	}
	var stmts []*sitter.Node
	for i := range block.ChildCount() {
		c := block.Child(i)
		if c.IsNamed() && c.Kind() != "comment" {
			stmts = append(stmts, c)
		}
	}
	return stmts
}

func firstNamedChild(node *sitter.Node) *sitter.Node {
	for i := range node.ChildCount() {
		if c := node.Child(i); c.IsNamed() {
			return c
		}
	}
	return nil
}

func containsKind(node *sitter.Node, kind string) bool {
	if node.Kind() == kind {
		return true
	}
	for i := range node.ChildCount() {
		if containsKind(node.Child(i), kind) {
			return true
		}
	}
	return false
}

func hasChildOfKind(node *sitter.Node, kind string) bool {
	for i := range node.ChildCount() {
		if node.Child(i).Kind() == kind {
			return true
		}
	}
	return false
}

func namedChildCount(node *sitter.Node) int {
	n := 0
	for i := range node.ChildCount() {
		if node.Child(i).IsNamed() {
			n++
		}
	}
	return n
}
