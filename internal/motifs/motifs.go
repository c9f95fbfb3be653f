// Package motifs detects recurring naming, structural, behavioral, and
// rhythmic patterns in an aggregate fact set. Recurring patterns carry
// amplified meaning: they reveal the habits of the codebase's authors.
package motifs

import (
	"fmt"
	"sort"
	"strings"

	"psymcp/internal/facts"
)

// PatternType classifies a motif.
type PatternType string

const (
	PatternNaming     PatternType = "naming"
	PatternStructural PatternType = "structural"
	PatternBehavioral PatternType = "behavioral"
	PatternRhythmic   PatternType = "rhythmic"
)

// patternTypeCount is the number of possible pattern types, the divisor
// for pattern diversity.
const patternTypeCount = 4

// maxExamples caps the example locations attached to one motif.
const maxExamples = 5

// Motif is one detected recurring pattern.
type Motif struct {
	Name            string           `json:"name"`
	PatternType     PatternType      `json:"pattern_type"`
	Occurrences     int              `json:"occurrences"`
	SymbolicMeaning string           `json:"symbolic_meaning"`
	Examples        []facts.Location `json:"examples,omitempty"`
	Intensity       float64          `json:"intensity"` // 0.0 to 1.0
}

// Analysis is the complete motif detection result.
type Analysis struct {
	Motifs           []Motif `json:"motifs"`
	RhythmSignature  string  `json:"rhythm_signature"`
	DominantPattern  string  `json:"dominant_pattern,omitempty"`
	PatternDiversity float64 `json:"pattern_diversity"`
}

// symbolism is a motif's display name and symbolic meaning.
type symbolism struct {
	name    string
	meaning string
}

// namingSymbolism maps affix tokens to their symbolic reading.
var namingSymbolism = map[string]symbolism{
	// Prefixes.
	"get_":      {"Retrieval", "A reaching out to acquire, to bring back what is needed. The code seeks external resources."},
	"set_":      {"Assignment", "An act of establishment, placing value with intention. The code asserts state."},
	"is_":       {"Inquiry", "A question about identity, seeking truth about nature. The code probes existence."},
	"has_":      {"Possession", "A check for ownership, for containing multitudes. The code asks about abundance."},
	"can_":      {"Capability", "A question of potential, of what might be. The code explores possibility."},
	"do_":       {"Action", "A call to motion, to making things happen. The code commands change."},
	"make_":     {"Creation", "The primal act of bringing forth. The code generates new existence."},
	"create_":   {"Genesis", "Deliberate creation, the beginning of something new. The code initiates."},
	"build_":    {"Construction", "Piece by piece assembly with purpose. The code erects structures."},
	"init_":     {"Awakening", "The first breath, the initialization of being. The code brings to consciousness."},
	"validate_": {"Judgment", "The testing of worth, the examination of validity. The code pronounces verdict."},
	"check_":    {"Vigilance", "The watchful eye, ever-scanning for truth. The code maintains awareness."},
	"process_":  {"Transformation", "The journey through change. The code shepherds data through metamorphosis."},
	"handle_":   {"Stewardship", "The careful management of responsibility. The code accepts duty."},
	"_":         {"Privacy", "The hidden, the internal, the protected from outside gaze. The code guards secrets."},

	// Suffixes.
	"_handler":    {"Responsibility", "One who handles, who takes charge. This pattern accepts the burden of action."},
	"_manager":    {"Authority", "One who manages, who directs. This pattern claims control."},
	"_factory":    {"Production", "A place of making, of systematic creation. This pattern produces."},
	"_builder":    {"Craftsmanship", "One who builds with care and intention. This pattern constructs."},
	"_validator":  {"Judgment", "One who validates, who determines worth. This pattern evaluates."},
	"_processor":  {"Alchemy", "One who transforms through process. This pattern transmutes."},
	"_helper":     {"Service", "One who assists, who supports. This pattern aids."},
	"_util":       {"Utility", "The practical, the useful. This pattern serves function."},
	"_service":    {"Devotion", "One who serves, who provides. This pattern fulfills requests."},
	"_controller": {"Direction", "One who controls, who guides. This pattern steers."},
	"_impl":       {"Manifestation", "The implementation, the concrete reality. This pattern realizes."},
	"_base":       {"Foundation", "The base upon which others stand. This pattern supports."},
	"_mixin":      {"Blending", "That which blends into others. This pattern shares essence."},
	"_error":      {"Failure", "The acknowledgment of what went wrong. This pattern names problems."},
	"_exception":  {"Interruption", "The breaking of normal flow. This pattern signals disruption."},
}

// structuralSymbolism maps structural pattern keys to their reading.
var structuralSymbolism = map[string]symbolism{
	"guard_heavy": {"Fortress", "The code has built walls, checking repeatedly before allowing passage."},
	"try_heavy":   {"Anxiety", "The code wraps itself in try blocks, anticipating failure at every turn."},
	"nested_deep": {"Labyrinth", "The code burrows deep, creating passages within passages."},
	"flat_simple": {"Prairie", "The code spreads flat and open, simple to traverse."},
}

// actionSymbolism maps the dominant error-handler action to its reading.
var actionSymbolism = map[facts.HandlerAction]symbolism{
	facts.ActionSuppress:  {"The Silencing", "Errors are caught and silenced, their voices muffled. The code prefers peace to truth."},
	facts.ActionReraise:   {"The Amplification", "Errors are caught and thrown again, their message preserved. The code believes in transparency."},
	facts.ActionTransform: {"The Translation", "Errors are caught and transformed, their meaning reinterpreted. The code shapes the narrative."},
	facts.ActionLog:       {"The Recording", "Errors are caught and documented, their occurrence noted. The code maintains the record."},
	facts.ActionHandle:    {"The Resolution", "Errors are caught and addressed, their challenge met. The code takes responsibility."},
}

// defenseSymbolism maps defensive pattern kinds to their reading.
var defenseSymbolism = map[facts.DefenseKind]symbolism{
	facts.DefenseNullCheck: {"The Void Watch", "The code vigilantly guards against nothingness, checking for None at every turn."},
	facts.DefenseTypeCheck: {"The Identity Verification", "The code demands proof of type, questioning the nature of all that enters."},
	facts.DefenseAssertion: {"The Truth Demand", "The code asserts what must be true, crashing if reality disagrees."},
}

// rhythmMeanings maps composite rhythm signatures to canned descriptions.
var rhythmMeanings = map[string]string{
	"function-heavy-short-form": "The code moves in quick, staccato bursts: many small functions, each a brief note in a rapid melody.",
	"function-heavy-long-form":  "The code flows in long procedural movements, each function a complete movement unto itself.",
	"class-heavy-short-form":    "The code organizes into many small classes with brief methods, a society of specialists.",
	"class-heavy-long-form":     "The code builds large, comprehensive classes, each a world unto itself.",
	"balanced-medium-form":      "The code strikes a balance, mixing classes and functions in measured proportion.",
	"procedural-short-form":     "The code tells its story through many brief functions, eschewing class structure entirely.",
	"procedural-long-form":      "The code moves in long procedural waves, each function a substantial narrative.",
}

// Detect runs the full motif detection over an aggregate fact set.
func Detect(structure *facts.CodeStructure) *Analysis {
	all := detectNamingMotifs(structure)
	all = append(all, detectStructuralMotifs(structure)...)
	all = append(all, detectBehavioralMotifs(structure)...)

	rhythmic, signature := detectRhythm(structure)
	all = append(all, rhythmic...)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Intensity > all[j].Intensity
	})

	analysis := &Analysis{
		Motifs:          all,
		RhythmSignature: signature,
	}
	if len(all) > 0 {
		analysis.DominantPattern = all[0].Name
	}

	types := make(map[PatternType]bool)
	for _, m := range all {
		types[m.PatternType] = true
	}
	analysis.PatternDiversity = float64(len(types)) / patternTypeCount

	return analysis
}

// detectNamingMotifs groups naming facts by prefix and by suffix; a group
// of 3 or more becomes one motif. Group order follows the first appearance
// of each token so the result does not depend on map iteration.
func detectNamingMotifs(s *facts.CodeStructure) []Motif {
	var motifs []Motif

	prefixGroups, prefixOrder := groupByAffix(s.NamingPatterns, func(p facts.NamingPattern) string { return p.Prefix })
	suffixGroups, suffixOrder := groupByAffix(s.NamingPatterns, func(p facts.NamingPattern) string { return p.Suffix })

	emit := func(token string, group []facts.NamingPattern) {
		if len(group) < 3 {
			return
		}
		sym, ok := namingSymbolism[token]
		if !ok {
			sym = symbolism{
				name:    capitalizeToken(token),
				meaning: fmt.Sprintf("A recurring invocation of '%s'", token),
			}
		}
		motifs = append(motifs, Motif{
			Name:            fmt.Sprintf("The %s Pattern", sym.name),
			PatternType:     PatternNaming,
			Occurrences:     len(group),
			SymbolicMeaning: sym.meaning,
			Examples:        patternLocations(group, maxExamples),
			Intensity:       clamp(float64(len(group)) / 20.0),
		})
	}

	for _, token := range prefixOrder {
		emit(token, prefixGroups[token])
	}
	for _, token := range suffixOrder {
		emit(token, suffixGroups[token])
	}
	return motifs
}

func detectStructuralMotifs(s *facts.CodeStructure) []Motif {
	var motifs []Motif

	// Repeated structural signatures.
	qualifying, totalRepetitions := 0, 0
	for _, count := range s.RepetitionMotifs {
		if count >= 3 {
			qualifying++
			totalRepetitions += count
		}
	}
	if qualifying > 0 {
		motifs = append(motifs, Motif{
			Name:            "The Ritual of Repetition",
			PatternType:     PatternStructural,
			Occurrences:     totalRepetitions,
			SymbolicMeaning: "The code returns to familiar forms, finding comfort in known structures. Like a dreamer revisiting the same landscape, these patterns reveal unconscious preferences.",
			Intensity:       clamp(float64(qualifying) / 10.0),
		})
	}

	if s.FunctionCount > 0 {
		if ratio := s.GuardRatio(); ratio > 0.3 {
			sym := structuralSymbolism["guard_heavy"]
			motifs = append(motifs, Motif{
				Name:            fmt.Sprintf("The %s", sym.name),
				PatternType:     PatternStructural,
				Occurrences:     len(s.GuardClauses),
				SymbolicMeaning: sym.meaning,
				Examples:        guardLocations(s.GuardClauses, maxExamples),
				Intensity:       clamp(ratio * 2),
			})
		}

		if ratio := s.HandlerRatio(); ratio > 0.3 {
			sym := structuralSymbolism["try_heavy"]
			motifs = append(motifs, Motif{
				Name:            fmt.Sprintf("The %s", sym.name),
				PatternType:     PatternStructural,
				Occurrences:     len(s.ErrorHandlers),
				SymbolicMeaning: sym.meaning,
				Examples:        handlerLocations(s.ErrorHandlers, maxExamples),
				Intensity:       clamp(ratio * 2),
			})
		}
	}

	// Deep and flat are mutually exclusive, evaluated in this order.
	if len(s.NestingDepths) > 0 {
		avg := s.AverageNesting()
		if avg > 3 {
			deep := 0
			for _, d := range s.NestingDepths {
				if d > 3 {
					deep++
				}
			}
			sym := structuralSymbolism["nested_deep"]
			motifs = append(motifs, Motif{
				Name:            fmt.Sprintf("The %s", sym.name),
				PatternType:     PatternStructural,
				Occurrences:     deep,
				SymbolicMeaning: sym.meaning,
				Intensity:       clamp(avg / 5),
			})
		} else if avg < 2 && s.FunctionCount > 5 {
			sym := structuralSymbolism["flat_simple"]
			motifs = append(motifs, Motif{
				Name:            fmt.Sprintf("The %s", sym.name),
				PatternType:     PatternStructural,
				Occurrences:     s.FunctionCount,
				SymbolicMeaning: sym.meaning,
				Intensity:       0.5,
			})
		}
	}

	return motifs
}

func detectBehavioralMotifs(s *facts.CodeStructure) []Motif {
	var motifs []Motif

	// The single most common handler action, if it occurs at least 3 times.
	if len(s.ErrorHandlers) > 0 {
		counts := s.HandlerActionCounts()
		var dominant facts.HandlerAction
		best := 0
		for _, action := range facts.HandlerActions {
			if counts[action] > best {
				dominant, best = action, counts[action]
			}
		}
		if best >= 3 {
			sym, ok := actionSymbolism[dominant]
			if !ok {
				sym = symbolism{
					name:    capitalizeToken(string(dominant)),
					meaning: fmt.Sprintf("A pattern of %s", dominant),
				}
			}
			var examples []facts.Location
			for _, h := range s.ErrorHandlers {
				if h.Action == dominant && len(examples) < maxExamples {
					examples = append(examples, facts.Location{File: h.File, Line: h.Line})
				}
			}
			motifs = append(motifs, Motif{
				Name:            sym.name,
				PatternType:     PatternBehavioral,
				Occurrences:     best,
				SymbolicMeaning: sym.meaning,
				Examples:        examples,
				Intensity:       clamp(float64(best) / 10),
			})
		}
	}

	// One motif per defensive pattern kind with at least 3 occurrences.
	if len(s.DefensivePatterns) > 0 {
		counts := s.DefenseKindCounts()
		for _, kind := range facts.DefenseKinds {
			count := counts[kind]
			if count < 3 {
				continue
			}
			sym := defenseSymbolism[kind]
			var examples []facts.Location
			for _, p := range s.DefensivePatterns {
				if p.Kind == kind && len(examples) < maxExamples {
					examples = append(examples, facts.Location{File: p.File, Line: p.Line})
				}
			}
			motifs = append(motifs, Motif{
				Name:            sym.name,
				PatternType:     PatternBehavioral,
				Occurrences:     count,
				SymbolicMeaning: sym.meaning,
				Examples:        examples,
				Intensity:       clamp(float64(count) / 15),
			})
		}
	}

	return motifs
}

// detectRhythm builds the composite rhythm signature from the
// function/class ratio and the average function length, and emits the
// rhythmic motif when any functions exist.
func detectRhythm(s *facts.CodeStructure) ([]Motif, string) {
	var parts []string

	if s.ClassCount > 0 {
		ratio := float64(s.FunctionCount) / float64(s.ClassCount)
		switch {
		case ratio > 10:
			parts = append(parts, "function-heavy")
		case ratio < 3:
			parts = append(parts, "class-heavy")
		default:
			parts = append(parts, "balanced")
		}
	} else {
		parts = append(parts, "procedural")
	}

	if s.FunctionCount > 0 {
		avgSize := float64(s.TotalLines) / float64(s.FunctionCount)
		switch {
		case avgSize > 50:
			parts = append(parts, "long-form")
		case avgSize < 15:
			parts = append(parts, "short-form")
		default:
			parts = append(parts, "medium-form")
		}
	}

	signature := strings.Join(parts, "-")

	meaning, ok := rhythmMeanings[signature]
	if !ok {
		meaning = fmt.Sprintf("The code follows a %s rhythm, its own unique meter.", signature)
	}

	if s.FunctionCount == 0 {
		return nil, signature
	}

	return []Motif{{
		Name:            "The Rhythm of Structure",
		PatternType:     PatternRhythmic,
		Occurrences:     s.FunctionCount + s.ClassCount,
		SymbolicMeaning: meaning,
		Intensity:       0.6,
	}}, signature
}

// groupByAffix buckets naming patterns by an affix key, remembering the
// order each key was first seen.
func groupByAffix(patterns []facts.NamingPattern, key func(facts.NamingPattern) string) (map[string][]facts.NamingPattern, []string) {
	groups := make(map[string][]facts.NamingPattern)
	var order []string
	for _, p := range patterns {
		k := key(p)
		if k == "" {
			continue
		}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], p)
	}
	return groups, order
}

func patternLocations(patterns []facts.NamingPattern, limit int) []facts.Location {
	var locs []facts.Location
	for _, p := range patterns {
		if len(locs) == limit {
			break
		}
		locs = append(locs, facts.Location{File: p.File, Line: p.Line})
	}
	return locs
}

func guardLocations(guards []facts.GuardClause, limit int) []facts.Location {
	var locs []facts.Location
	for _, g := range guards {
		if len(locs) == limit {
			break
		}
		locs = append(locs, facts.Location{File: g.File, Line: g.Line})
	}
	return locs
}

func handlerLocations(handlers []facts.ErrorHandler, limit int) []facts.Location {
	var locs []facts.Location
	for _, h := range handlers {
		if len(locs) == limit {
			break
		}
		locs = append(locs, facts.Location{File: h.File, Line: h.Line})
	}
	return locs
}

// capitalizeToken turns an affix token like "_guard" into "Guard".
func capitalizeToken(token string) string {
	t := strings.Trim(token, "_")
	if t == "" {
		return token
	}
	return strings.ToUpper(t[:1]) + t[1:]
}

func clamp(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
