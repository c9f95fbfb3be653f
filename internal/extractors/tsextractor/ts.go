// Package tsextractor extracts structural facts from TypeScript/TSX
// source code using tree-sitter.
package tsextractor

import (
	"path/filepath"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"psymcp/internal/facts"
)

const guardWindow = 3

// bodyWindow is how many leading statements contribute to the
// structural signature.
const bodyWindow = 5

var nestingKinds = map[string]bool{
	"if_statement":         true,
	"for_statement":        true,
	"for_in_statement":     true,
	"while_statement":      true,
	"do_statement":         true,
	"try_statement":        true,
	"switch_statement":     true,
	"function_declaration": true,
	"method_definition":    true,
	"arrow_function":       true,
	"function_expression":  true,
	"class_declaration":    true,
}

// TSExtractor extracts structural facts from TypeScript/TSX files.
type TSExtractor struct{}

// New creates a new TSExtractor.
func New() *TSExtractor {
	return &TSExtractor{}
}

func (e *TSExtractor) Name() string {
	return "typescript"
}

// Matches returns true for .ts and .tsx files.
func (e *TSExtractor) Matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".ts" || ext == ".tsx"
}

// ExtractFile parses one TypeScript file. Files tree-sitter cannot parse
// cleanly return (nil, nil) and are skipped by the caller.
func (e *TSExtractor) ExtractFile(src []byte, path string) (*facts.FileFacts, error) {
	lang := typescript.LanguageTypescript()
	if strings.HasSuffix(strings.ToLower(path), ".tsx") {
		lang = typescript.LanguageTSX()
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(sitter.NewLanguage(lang))

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

type walker struct {
	src  []byte
	path string
	ff   *facts.FileFacts
}

func (w *walker) walk(node *sitter.Node, scope string) {
	switch node.Kind() {
	case "function_declaration":
		name := w.text(findChildByKind(node, "identifier"))
		w.recordFunction(node, name, node.ChildByFieldName("body"))
		if name != "" {
			scope = name
		}

	case "method_definition":
		name := w.text(node.ChildByFieldName("name"))
		if name != "" && name != "constructor" {
			w.recordFunction(node, name, node.ChildByFieldName("body"))
			scope = name
		}

	case "variable_declarator":
		// const handler = (x) => { ... } counts as a function.
		if value := node.ChildByFieldName("value"); value != nil &&
			(value.Kind() == "arrow_function" || value.Kind() == "function_expression") {
			name := w.text(node.ChildByFieldName("name"))
			w.recordFunction(value, name, value.ChildByFieldName("body"))
			if name != "" {
				scope = name
			}
		}

	case "class_declaration":
		w.ff.ClassCount++
		w.recordName(w.text(findChildByKind(node, "type_identifier")), facts.CategoryClass, node)

	case "lexical_declaration":
		w.constDeclarations(node)

	case "catch_clause":
		w.extractHandler(node, scope)

	case "binary_expression":
		w.classifyComparison(node)

	case "call_expression":
		if w.text(node.ChildByFieldName("function")) == "console.assert" {
			w.recordDefense(facts.DefenseAssertion, node, w.text(node))
		}
	}

	for i := range node.ChildCount() {
		w.walk(node.Child(i), scope)
	}
}

// recordFunction registers one function-like node: its name fact, its
// nesting depth, its structural signature, and any guard clauses.
func (w *walker) recordFunction(fn *sitter.Node, name string, body *sitter.Node) {
	w.ff.FunctionCount++
	if name != "" {
		w.recordName(name, facts.CategoryFunction, fn)
	}
	w.ff.NestingDepths = append(w.ff.NestingDepths, functionNesting(fn))
	w.ff.Signatures = append(w.ff.Signatures, w.signature(fn, body))
	if body != nil && body.Kind() == "statement_block" {
		w.extractGuards(body, name)
	}
}

// constDeclarations records uppercase names bound by const declarations
// at any scope. let and var bindings are not constants.
func (w *walker) constDeclarations(decl *sitter.Node) {
	if first := decl.Child(0); first == nil || w.text(first) != "const" {
		return
	}
	for i := range decl.ChildCount() {
		d := decl.Child(i)
		if d.Kind() != "variable_declarator" {
			continue
		}
		name := w.text(d.ChildByFieldName("name"))
		if facts.IsConstantName(name) {
			w.recordName(name, facts.CategoryConstant, d)
		}
	}
}

func (w *walker) extractGuards(body *sitter.Node, fnName string) {
	if fnName == "" {
		fnName = facts.ModuleScope
	}
	stmts := namedStatements(body)
	if len(stmts) > guardWindow {
		stmts = stmts[:guardWindow]
	}
	for _, stmt := range stmts {
		if stmt.Kind() != "if_statement" {
			continue
		}
		consequence := stmt.ChildByFieldName("consequence")
		if consequence == nil {
			continue
		}
		first := consequence
		if consequence.Kind() == "statement_block" {
			nested := namedStatements(consequence)
			if len(nested) == 0 {
				continue
			}
			first = nested[0]
		}
		var action facts.GuardAction
		switch first.Kind() {
		case "return_statement":
			action = facts.GuardReturn
		case "throw_statement":
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

// extractHandler records one catch clause. TypeScript catch clauses are
// untyped, so every handler is a catch-all.
func (w *walker) extractHandler(clause *sitter.Node, scope string) {
	body := clause.ChildByFieldName("body")
	w.ff.ErrorHandlers = append(w.ff.ErrorHandlers, facts.ErrorHandler{
		File:           w.path,
		Line:           line(clause),
		ExceptionTypes: []string{facts.CatchAllType},
		Action:         w.classifyAction(clause, body),
		Function:       scope,
	})
}

// classifyAction decides what a catch body does with the error. A throw
// of the bare caught identifier is a reraise, a throw of anything
// constructed is a transform. An empty body suppresses. A console call
// logs.
func (w *walker) classifyAction(clause, body *sitter.Node) facts.HandlerAction {
	if len(namedStatements(body)) == 0 {
		return facts.ActionSuppress
	}

	if throw := findDescendant(body, "throw_statement"); throw != nil {
		arg := firstNamedChild(throw)
		if arg != nil && arg.Kind() == "identifier" && w.text(arg) == w.caughtName(clause) {
			return facts.ActionReraise
		}
		return facts.ActionTransform
	}

	if w.containsConsoleCall(body) {
		return facts.ActionLog
	}
	return facts.ActionHandle
}

// caughtName returns the catch parameter name, or "".
func (w *walker) caughtName(clause *sitter.Node) string {
	if param := clause.ChildByFieldName("parameter"); param != nil {
		if param.Kind() == "identifier" {
			return w.text(param)
		}
		return w.text(findChildByKind(param, "identifier"))
	}
	return ""
}

func (w *walker) containsConsoleCall(node *sitter.Node) bool {
	if node.Kind() == "call_expression" {
		fn := w.text(node.ChildByFieldName("function"))
		if strings.HasPrefix(fn, "console.") || strings.Contains(strings.ToLower(fn), "log") {
			return true
		}
	}
	for i := range node.ChildCount() {
		if w.containsConsoleCall(node.Child(i)) {
			return true
		}
	}
	return false
}

// classifyComparison records null checks and typeof/instanceof checks.
func (w *walker) classifyComparison(node *sitter.Node) {
	op := w.text(node.ChildByFieldName("operator"))
	switch op {
	case "===", "!==", "==", "!=":
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if isNullish(right) || isNullish(left) {
			w.recordDefense(facts.DefenseNullCheck, node, w.text(node))
		} else if (left != nil && left.Kind() == "unary_expression" && strings.HasPrefix(w.text(left), "typeof")) ||
			(right != nil && right.Kind() == "unary_expression" && strings.HasPrefix(w.text(right), "typeof")) {
			w.recordDefense(facts.DefenseTypeCheck, node, w.text(node))
		}
	case "instanceof":
		w.recordDefense(facts.DefenseTypeCheck, node, w.text(node))
	}
}

func isNullish(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	return node.Kind() == "null" || node.Kind() == "undefined"
}

// signature summarizes a function's shape as a repetition key: parameter
// count, decorator count when present, the kinds of the leading body
// statements, and whether the function ever returns.
func (w *walker) signature(fn, body *sitter.Node) string {
	parts := []string{"args:0"}
	if params := fn.ChildByFieldName("parameters"); params != nil {
		parts[0] = "args:" + strconv.Itoa(namedChildCount(params))
	}

	if n := decoratorCount(fn); n > 0 {
		parts = append(parts, "deco:"+strconv.Itoa(n))
	}

	var tokens []string
	if body != nil && body.Kind() == "statement_block" {
		stmts := namedStatements(body)
		if len(stmts) > bodyWindow {
			stmts = stmts[:bodyWindow]
		}
		for _, stmt := range stmts {
			tokens = append(tokens, statementToken(stmt))
		}
	}
	parts = append(parts, "body:"+strings.Join(tokens, "-"))

	parts = append(parts, "ret:"+strconv.FormatBool(findDescendant(fn, "return_statement") != nil))
	return strings.Join(parts, "|")
}

// decoratorCount counts decorators attached to a function-like node,
// whether the grammar nests them as children or as preceding siblings
// inside a class body.
func decoratorCount(fn *sitter.Node) int {
	n := 0
	for i := range fn.ChildCount() {
		if fn.Child(i).Kind() == "decorator" {
			n++
		}
	}
	for sib := fn.PrevSibling(); sib != nil && sib.Kind() == "decorator"; sib = sib.PrevSibling() {
		n++
	}
	return n
}

func statementToken(stmt *sitter.Node) string {
	kind := stmt.Kind()
	switch kind {
	case "expression_statement":
		if inner := firstNamedChild(stmt); inner != nil {
			switch inner.Kind() {
			case "assignment_expression", "augmented_assignment_expression":
				return "assign"
			case "call_expression", "await_expression":
				return "call"
			}
		}
		return "expr"
	case "lexical_declaration", "variable_declaration":
		return "assign"
	case "throw_statement":
		return "raise"
	case "for_in_statement":
		return "for"
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

func findChildByKind(node *sitter.Node, kind string) *sitter.Node {
	for i := range node.ChildCount() {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

func findDescendant(node *sitter.Node, kind string) *sitter.Node {
	if node.Kind() == kind {
		return node
	}
	for i := range node.ChildCount() {
		if found := findDescendant(node.Child(i), kind); found != nil {
			return found
		}
	}
	return nil
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

func namedChildCount(node *sitter.Node) int {
	n := 0
	for i := range node.ChildCount() {
		if node.Child(i).IsNamed() {
			n++
		}
	}
	return n
}
