// Package facts defines the typed structural facts extracted from source
// files and the aggregate structure the classification passes consume.
package facts

// NameCategory classifies the declaration a naming pattern was taken from.
type NameCategory string

const (
	CategoryFunction NameCategory = "function"
	CategoryClass    NameCategory = "class"
	CategoryConstant NameCategory = "constant"
)

// GuardAction is the early-exit action taken inside a guard clause.
type GuardAction string

const (
	GuardReturn GuardAction = "return"
	GuardRaise  GuardAction = "raise"
)

// HandlerAction classifies what a catch block does with the error it caught.
type HandlerAction string

const (
	ActionSuppress  HandlerAction = "suppress"
	ActionReraise   HandlerAction = "reraise"
	ActionTransform HandlerAction = "transform"
	ActionLog       HandlerAction = "log"
	ActionHandle    HandlerAction = "handle"
)

// HandlerActions lists every handler action in a fixed order, used wherever
// a deterministic iteration over actions is needed.
var HandlerActions = []HandlerAction{
	ActionSuppress, ActionReraise, ActionTransform, ActionLog, ActionHandle,
}

// DefenseKind classifies a defensive-programming pattern.
type DefenseKind string

const (
	DefenseNullCheck DefenseKind = "null_check"
	DefenseTypeCheck DefenseKind = "type_check"
	DefenseAssertion DefenseKind = "assertion"
)

// DefenseKinds lists every defensive pattern kind in a fixed order.
var DefenseKinds = []DefenseKind{
	DefenseNullCheck, DefenseTypeCheck, DefenseAssertion,
}

// CatchAllType is the sentinel exception type recorded for a handler with
// no explicit type expression.
const CatchAllType = "BaseException"

// ModuleScope is the sentinel function name for facts found outside any
// function body.
const ModuleScope = "<module>"

// Location is a (file, line) reference back into the analyzed tree.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// NamingPattern records one declared or referenced identifier together with
// the affixes it matched.
type NamingPattern struct {
	Name     string       `json:"name"`
	Category NameCategory `json:"category"`
	File     string       `json:"file"`
	Line     int          `json:"line"`
	Prefix   string       `json:"prefix,omitempty"`
	Suffix   string       `json:"suffix,omitempty"`
}

// GuardClause records an early-exit conditional at the top of a function.
type GuardClause struct {
	File      string      `json:"file"`
	Line      int         `json:"line"`
	Condition string      `json:"condition"`
	Action    GuardAction `json:"action"`
	Function  string      `json:"function"`
}

// ErrorHandler records one catch block and the strategy it applies.
type ErrorHandler struct {
	File           string        `json:"file"`
	Line           int           `json:"line"`
	ExceptionTypes []string      `json:"exception_types"`
	Action         HandlerAction `json:"handler_action"`
	Function       string        `json:"function"`
}

// IsCatchAll reports whether the handler catches broadly: either untyped
// (the sentinel) or an explicit catch of a root exception type.
func (h ErrorHandler) IsCatchAll() bool {
	for _, t := range h.ExceptionTypes {
		if t == CatchAllType || t == "Exception" {
			return true
		}
	}
	return false
}

// DefensivePattern records a null check, type check, or assertion.
type DefensivePattern struct {
	File    string      `json:"file"`
	Line    int         `json:"line"`
	Kind    DefenseKind `json:"pattern_type"`
	Context string      `json:"context"`
}

// FileFacts holds everything one extractor pass pulled out of a single file.
type FileFacts struct {
	NamingPatterns    []NamingPattern
	GuardClauses      []GuardClause
	ErrorHandlers     []ErrorHandler
	DefensivePatterns []DefensivePattern
	FunctionCount     int
	ClassCount        int
	NestingDepths     []int    // one entry per function: its max depth
	Signatures        []string // one structural signature per function
}
