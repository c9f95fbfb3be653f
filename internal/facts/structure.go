package facts

// CodeStructure is the aggregate fact set for one analysis run. It is
// populated by a single traversal pass and handed to the classification
// passes read-only; nothing mutates it afterwards.
type CodeStructure struct {
	NamingPatterns    []NamingPattern    `json:"naming_patterns"`
	GuardClauses      []GuardClause      `json:"guard_clauses"`
	ErrorHandlers     []ErrorHandler     `json:"error_handlers"`
	DefensivePatterns []DefensivePattern `json:"defensive_patterns"`
	FunctionCount     int                `json:"function_count"`
	ClassCount        int                `json:"class_count"`
	FileCount         int                `json:"file_count"`
	TotalLines        int                `json:"total_lines"`
	NestingDepths     []int              `json:"nesting_depths"`
	RepetitionMotifs  map[string]int     `json:"repetition_motifs"`
}

// NewCodeStructure returns an empty accumulator.
func NewCodeStructure() *CodeStructure {
	return &CodeStructure{RepetitionMotifs: make(map[string]int)}
}

// Merge folds one file's facts into the aggregate. Merging is pure list
// concatenation and counter addition, so any merge order over the same set
// of files yields the same multiset contents.
func (s *CodeStructure) Merge(ff *FileFacts) {
	if ff == nil {
		return
	}
	s.NamingPatterns = append(s.NamingPatterns, ff.NamingPatterns...)
	s.GuardClauses = append(s.GuardClauses, ff.GuardClauses...)
	s.ErrorHandlers = append(s.ErrorHandlers, ff.ErrorHandlers...)
	s.DefensivePatterns = append(s.DefensivePatterns, ff.DefensivePatterns...)
	s.FunctionCount += ff.FunctionCount
	s.ClassCount += ff.ClassCount
	s.NestingDepths = append(s.NestingDepths, ff.NestingDepths...)
	for _, sig := range ff.Signatures {
		s.RepetitionMotifs[sig]++
	}
}

// GuardRatio returns guard clauses per function, or 0 with no functions.
func (s *CodeStructure) GuardRatio() float64 {
	if s.FunctionCount == 0 {
		return 0
	}
	return float64(len(s.GuardClauses)) / float64(s.FunctionCount)
}

// HandlerRatio returns error handlers per function, or 0 with no functions.
func (s *CodeStructure) HandlerRatio() float64 {
	if s.FunctionCount == 0 {
		return 0
	}
	return float64(len(s.ErrorHandlers)) / float64(s.FunctionCount)
}

// DefensiveRatio returns defensive patterns per function, or 0 with no
// functions.
func (s *CodeStructure) DefensiveRatio() float64 {
	if s.FunctionCount == 0 {
		return 0
	}
	return float64(len(s.DefensivePatterns)) / float64(s.FunctionCount)
}

// AverageNesting returns the mean of the per-function max nesting depths,
// or 0 when no depths were recorded.
func (s *CodeStructure) AverageNesting() float64 {
	if len(s.NestingDepths) == 0 {
		return 0
	}
	sum := 0
	for _, d := range s.NestingDepths {
		sum += d
	}
	return float64(sum) / float64(len(s.NestingDepths))
}

// MaxNesting returns the deepest per-function nesting depth recorded.
func (s *CodeStructure) MaxNesting() int {
	max := 0
	for _, d := range s.NestingDepths {
		if d > max {
			max = d
		}
	}
	return max
}

// HandlerActionCounts tallies error handlers by action.
func (s *CodeStructure) HandlerActionCounts() map[HandlerAction]int {
	counts := make(map[HandlerAction]int)
	for _, h := range s.ErrorHandlers {
		counts[h.Action]++
	}
	return counts
}

// CatchAllCount returns the number of broad (catch-all) handlers.
func (s *CodeStructure) CatchAllCount() int {
	n := 0
	for _, h := range s.ErrorHandlers {
		if h.IsCatchAll() {
			n++
		}
	}
	return n
}

// DefenseKindCounts tallies defensive patterns by kind.
func (s *CodeStructure) DefenseKindCounts() map[DefenseKind]int {
	counts := make(map[DefenseKind]int)
	for _, p := range s.DefensivePatterns {
		counts[p.Kind]++
	}
	return counts
}
