package ontology

import (
	"fmt"
	"sort"

	"psymcp/internal/facts"
)

// Threshold constants for classification.
const (
	guardAnxietyThreshold      = 0.3 // guard clauses per function
	defensiveParanoiaThreshold = 0.5 // defensive patterns per function
	suppressionDenialThreshold = 0.4 // suppressed errors per handler
	nestingLabyrinthThreshold  = 4.0 // average nesting depth
)

// maxLocations caps the locations reported per archetype match.
const maxLocations = 10

// ArchetypeMatch is a detected archetype with supporting evidence.
type ArchetypeMatch struct {
	Archetype Archetype        `json:"archetype"`
	Strength  float64          `json:"strength"` // 0.0 to 1.0
	Evidence  []string         `json:"evidence"`
	Locations []facts.Location `json:"locations,omitempty"`
}

// ThemeCount is one naming-theme token with its occurrence count.
type ThemeCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// SymbolicProfile is the complete symbolic reading of a codebase.
type SymbolicProfile struct {
	DominantArchetypes  []ArchetypeMatch `json:"dominant_archetypes"`
	SecondaryArchetypes []ArchetypeMatch `json:"secondary_archetypes"`
	NamingThemes        []ThemeCount     `json:"naming_themes"`
	BehavioralTraits    []string         `json:"behavioral_traits"`
}

// scoreboard accumulates archetype scores with evidence and locations.
// Every rule only ever adds; no rule reads or decrements another's score,
// which keeps classification order-independent over the fact multiset.
type scoreboard struct {
	entries map[Archetype]*scoreEntry
}

type scoreEntry struct {
	score     float64
	evidence  []string
	locations []facts.Location
}

func newScoreboard() *scoreboard {
	return &scoreboard{entries: make(map[Archetype]*scoreEntry)}
}

// add increments an archetype's score. Evidence strings are deduplicated by
// text; locations accumulate per call.
func (b *scoreboard) add(a Archetype, delta float64, evidence string, locs ...facts.Location) {
	e := b.entries[a]
	if e == nil {
		e = &scoreEntry{}
		b.entries[a] = e
	}
	e.score += delta
	seen := false
	for _, ev := range e.evidence {
		if ev == evidence {
			seen = true
			break
		}
	}
	if !seen {
		e.evidence = append(e.evidence, evidence)
	}
	e.locations = append(e.locations, locs...)
}

// Classify produces the symbolic profile for an aggregate fact set.
func Classify(structure *facts.CodeStructure) *SymbolicProfile {
	board := newScoreboard()

	scoreNamingPatterns(structure, board)
	scoreGuardClauses(structure, board)
	scoreErrorHandlers(structure, board)
	scoreDefensivePatterns(structure, board)
	scoreStructuralComplexity(structure, board)

	profile := &SymbolicProfile{}

	var matches []ArchetypeMatch
	for archetype, e := range board.entries {
		if e.score <= 0 {
			continue
		}
		strength := e.score
		if strength > 1.0 {
			strength = 1.0
		}
		locs := e.locations
		if len(locs) > maxLocations {
			locs = locs[:maxLocations]
		}
		matches = append(matches, ArchetypeMatch{
			Archetype: archetype,
			Strength:  strength,
			Evidence:  e.evidence,
			Locations: locs,
		})
	}

	// Strength descending; archetype name breaks ties so two runs over the
	// same facts emit identical profiles.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Strength != matches[j].Strength {
			return matches[i].Strength > matches[j].Strength
		}
		return matches[i].Archetype < matches[j].Archetype
	})

	if len(matches) > 3 {
		profile.DominantArchetypes = matches[:3]
		rest := matches[3:]
		if len(rest) > 5 {
			rest = rest[:5]
		}
		profile.SecondaryArchetypes = rest
	} else {
		profile.DominantArchetypes = matches
	}

	profile.NamingThemes = namingThemes(structure)
	profile.BehavioralTraits = behavioralTraits(structure)
	return profile
}

func scoreNamingPatterns(s *facts.CodeStructure, board *scoreboard) {
	for _, p := range s.NamingPatterns {
		if p.Prefix != "" {
			if archetype, ok := namingArchetypes[p.Prefix]; ok {
				board.add(archetype, 0.1,
					fmt.Sprintf("Naming pattern with prefix '%s'", p.Prefix),
					facts.Location{File: p.File, Line: p.Line})
			}
		}
		if p.Suffix != "" {
			if archetype, ok := namingArchetypes[p.Suffix]; ok {
				board.add(archetype, 0.1,
					fmt.Sprintf("Naming pattern with suffix '%s'", p.Suffix),
					facts.Location{File: p.File, Line: p.Line})
			}
		}
	}
}

func scoreGuardClauses(s *facts.CodeStructure, board *scoreboard) {
	if s.FunctionCount == 0 {
		return
	}

	guardRatio := s.GuardRatio()
	if guardRatio > guardAnxietyThreshold {
		board.add(AnxiousCaretaker, 0.3,
			fmt.Sprintf("High guard clause ratio (%.2f)", guardRatio))
		board.add(Gatekeeper, 0.2, "Extensive boundary checking")
	}

	raiseGuards, returnGuards := 0, 0
	for _, g := range s.GuardClauses {
		switch g.Action {
		case facts.GuardRaise:
			raiseGuards++
		case facts.GuardReturn:
			returnGuards++
		}
	}
	if raiseGuards > returnGuards {
		board.add(AuthoritarianGatekeeper, 0.2,
			"Prefers raising exceptions over silent returns")
	} else if returnGuards > raiseGuards {
		board.add(Helper, 0.2, "Prefers graceful degradation")
	}

	for _, g := range s.GuardClauses {
		board.add(Guardian, 0.05,
			fmt.Sprintf("Guard clause in %s", g.Function),
			facts.Location{File: g.File, Line: g.Line})
	}
}

func scoreErrorHandlers(s *facts.CodeStructure, board *scoreboard) {
	total := len(s.ErrorHandlers)
	if total == 0 {
		return
	}

	actionCounts := s.HandlerActionCounts()

	suppressRatio := float64(actionCounts[facts.ActionSuppress]) / float64(total)
	if suppressRatio > suppressionDenialThreshold {
		board.add(Suppressor, 0.4,
			fmt.Sprintf("High error suppression ratio (%.2f)", suppressRatio))
		board.add(Denier, 0.3, "Pattern of ignoring errors")
	}

	if s.CatchAllCount() > total/2 {
		board.add(OverprotectiveParent, 0.3, "Frequent broad exception catching")
	}

	for _, action := range facts.HandlerActions {
		count := actionCounts[action]
		if count == 0 {
			continue
		}
		if archetype, ok := errorArchetypes[string(action)]; ok {
			board.add(archetype, float64(count)*0.05,
				fmt.Sprintf("Error handling pattern: %s", action))
		}
	}
}

func scoreDefensivePatterns(s *facts.CodeStructure, board *scoreboard) {
	if s.FunctionCount == 0 {
		return
	}

	defensiveRatio := s.DefensiveRatio()
	if defensiveRatio > defensiveParanoiaThreshold {
		board.add(AnxiousCaretaker, 0.3,
			fmt.Sprintf("High defensive pattern density (%.2f)", defensiveRatio))
		board.add(Perfectionist, 0.2, "Extensive input validation")
	}

	kindCounts := s.DefenseKindCounts()
	if kindCounts[facts.DefenseAssertion] > 5 {
		board.add(AuthoritarianGatekeeper, 0.2, "Heavy use of assertions")
	}
	if kindCounts[facts.DefenseNullCheck] > 10 {
		board.add(Sentinel, 0.2, "Vigilant null checking")
	}
}

func scoreStructuralComplexity(s *facts.CodeStructure, board *scoreboard) {
	if len(s.NestingDepths) > 0 {
		avg := s.AverageNesting()
		max := s.MaxNesting()

		if avg > nestingLabyrinthThreshold {
			board.add(LabyrinthDweller, 0.4,
				fmt.Sprintf("High average nesting depth (%.2f)", avg))
		}
		if max > 6 {
			board.add(LabyrinthDweller, 0.2,
				fmt.Sprintf("Very deep nesting detected (depth %d)", max))
		}
		if avg < 2 && s.FunctionCount > 10 {
			board.add(Minimalist, 0.3, "Flat, simple structure")
		}
	}

	repeated := 0
	for _, count := range s.RepetitionMotifs {
		if count > 3 {
			repeated++
		}
	}
	if repeated > 5 {
		board.add(Ritualist, 0.3,
			fmt.Sprintf("Many repeated structural patterns (%d)", repeated))
	}
}

// namingThemes returns the top 10 affix tokens by occurrence count, ties
// broken by token so the output is stable.
func namingThemes(s *facts.CodeStructure) []ThemeCount {
	counts := make(map[string]int)
	for _, p := range s.NamingPatterns {
		if p.Prefix != "" {
			counts[p.Prefix]++
		}
		if p.Suffix != "" {
			counts[p.Suffix]++
		}
	}

	themes := make([]ThemeCount, 0, len(counts))
	for token, count := range counts {
		themes = append(themes, ThemeCount{Token: token, Count: count})
	}
	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Count != themes[j].Count {
			return themes[i].Count > themes[j].Count
		}
		return themes[i].Token < themes[j].Token
	})
	if len(themes) > 10 {
		themes = themes[:10]
	}
	return themes
}

// behavioralTraits derives independent qualitative labels from the same
// ratios the scoring rules use. Traits are non-exclusive.
func behavioralTraits(s *facts.CodeStructure) []string {
	var traits []string

	if total := len(s.ErrorHandlers); total > 0 {
		suppress := s.HandlerActionCounts()[facts.ActionSuppress]
		if float64(suppress) > float64(total)*0.3 {
			traits = append(traits, "Error-avoidant")
		} else if float64(suppress) < float64(total)*0.1 {
			traits = append(traits, "Error-confronting")
		}
	}

	if s.FunctionCount > 0 {
		if r := s.DefensiveRatio(); r > 0.5 {
			traits = append(traits, "Hyper-vigilant")
		} else if r < 0.1 {
			traits = append(traits, "Trusting")
		}

		if r := s.GuardRatio(); r > 0.4 {
			traits = append(traits, "Boundary-focused")
		} else if r < 0.1 {
			traits = append(traits, "Permissive")
		}
	}

	if len(s.NestingDepths) > 0 {
		if avg := s.AverageNesting(); avg > 3 {
			traits = append(traits, "Complexity-embracing")
		} else if avg < 1.5 {
			traits = append(traits, "Simplicity-seeking")
		}
	}

	return traits
}
