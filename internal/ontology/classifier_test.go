package ontology

import (
	"reflect"
	"testing"

	"psymcp/internal/facts"
)

func TestClassifyValidationHeavyNaming(t *testing.T) {
	s := facts.NewCodeStructure()
	s.FunctionCount = 3
	for i := range 3 {
		s.NamingPatterns = append(s.NamingPatterns, facts.NamingPattern{
			Name:     "validate_thing",
			Category: facts.CategoryFunction,
			File:     "a.py",
			Line:     i + 1,
			Prefix:   "validate_",
		})
	}

	profile := Classify(s)

	if len(profile.DominantArchetypes) == 0 {
		t.Fatal("expected at least one dominant archetype")
	}
	if profile.DominantArchetypes[0].Archetype != Guardian {
		t.Errorf("dominant archetype = %s, want %s", profile.DominantArchetypes[0].Archetype, Guardian)
	}
	// Three matches of 0.1 each.
	if got := profile.DominantArchetypes[0].Strength; got < 0.29 || got > 0.31 {
		t.Errorf("Guardian strength = %v, want ~0.3", got)
	}
}

func TestClassifyStrengthClamped(t *testing.T) {
	s := facts.NewCodeStructure()
	s.FunctionCount = 1
	for i := range 1000 {
		s.GuardClauses = append(s.GuardClauses, facts.GuardClause{
			File: "a.py", Line: i + 1, Action: facts.GuardReturn, Function: "f",
		})
	}

	profile := Classify(s)

	for _, m := range append(profile.DominantArchetypes, profile.SecondaryArchetypes...) {
		if m.Strength > 1.0 {
			t.Errorf("archetype %s strength %v exceeds 1.0", m.Archetype, m.Strength)
		}
		if len(m.Locations) > maxLocations {
			t.Errorf("archetype %s has %d locations, cap is %d", m.Archetype, len(m.Locations), maxLocations)
		}
	}
}

func TestClassifySuppressionScoresSuppressor(t *testing.T) {
	s := facts.NewCodeStructure()
	s.FunctionCount = 4
	for range 3 {
		s.ErrorHandlers = append(s.ErrorHandlers, facts.ErrorHandler{
			ExceptionTypes: []string{"Exception"},
			Action:         facts.ActionSuppress,
		})
	}
	s.ErrorHandlers = append(s.ErrorHandlers, facts.ErrorHandler{
		ExceptionTypes: []string{"ValueError"},
		Action:         facts.ActionHandle,
	})

	profile := Classify(s)

	found := func(target Archetype) bool {
		for _, m := range append(profile.DominantArchetypes, profile.SecondaryArchetypes...) {
			if m.Archetype == target {
				return true
			}
		}
		return false
	}
	// 3 of 4 suppressed (0.75 > 0.4) and 3 of 4 catch-all (> half).
	if !found(Suppressor) {
		t.Error("expected Suppressor to score")
	}
	if !found(Denier) {
		t.Error("expected Denier to score")
	}
	if !found(OverprotectiveParent) {
		t.Error("expected OverprotectiveParent to score")
	}
}

func TestClassifyDeterministic(t *testing.T) {
	build := func() *facts.CodeStructure {
		s := facts.NewCodeStructure()
		s.FunctionCount = 12
		s.NestingDepths = []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
		for i := range 5 {
			s.NamingPatterns = append(s.NamingPatterns,
				facts.NamingPattern{Name: "check_a", Prefix: "check_", File: "a.py", Line: i},
				facts.NamingPattern{Name: "get_b", Prefix: "get_", File: "b.py", Line: i},
			)
		}
		return s
	}

	first := Classify(build())
	for range 20 {
		again := Classify(build())
		if !reflect.DeepEqual(first, again) {
			t.Fatal("classification is not deterministic across runs")
		}
	}
}

func TestClassifyDominantSecondarySplit(t *testing.T) {
	s := facts.NewCodeStructure()
	s.FunctionCount = 100
	// One pattern for each of ten distinct archetype tokens.
	tokens := []string{"validate_", "check_", "create_", "build_", "make_",
		"get_", "handle_", "process_", "transform_", "convert_"}
	for i, tok := range tokens {
		s.NamingPatterns = append(s.NamingPatterns, facts.NamingPattern{
			Name: tok + "x", Prefix: tok, File: "a.py", Line: i,
		})
	}

	profile := Classify(s)

	if len(profile.DominantArchetypes) != 3 {
		t.Errorf("dominant count = %d, want 3", len(profile.DominantArchetypes))
	}
	if len(profile.SecondaryArchetypes) > 5 {
		t.Errorf("secondary count = %d, cap is 5", len(profile.SecondaryArchetypes))
	}
	// Equal strengths: ties must fall back to name order.
	for i := 1; i < len(profile.DominantArchetypes); i++ {
		prev, cur := profile.DominantArchetypes[i-1], profile.DominantArchetypes[i]
		if prev.Strength == cur.Strength && prev.Archetype > cur.Archetype {
			t.Errorf("tie not broken by name: %s before %s", prev.Archetype, cur.Archetype)
		}
	}
}

func TestNamingThemes(t *testing.T) {
	s := facts.NewCodeStructure()
	for range 3 {
		s.NamingPatterns = append(s.NamingPatterns, facts.NamingPattern{Name: "get_x", Prefix: "get_"})
	}
	s.NamingPatterns = append(s.NamingPatterns, facts.NamingPattern{Name: "x_handler", Suffix: "_handler"})

	profile := Classify(s)

	if len(profile.NamingThemes) != 2 {
		t.Fatalf("theme count = %d, want 2", len(profile.NamingThemes))
	}
	if profile.NamingThemes[0].Token != "get_" || profile.NamingThemes[0].Count != 3 {
		t.Errorf("top theme = %+v, want get_ x3", profile.NamingThemes[0])
	}
}

func TestBehavioralTraits(t *testing.T) {
	s := facts.NewCodeStructure()
	s.FunctionCount = 10
	s.NestingDepths = []int{1, 1, 1}
	for range 5 {
		s.ErrorHandlers = append(s.ErrorHandlers, facts.ErrorHandler{Action: facts.ActionSuppress})
	}
	for range 6 {
		s.DefensivePatterns = append(s.DefensivePatterns, facts.DefensivePattern{Kind: facts.DefenseNullCheck})
	}
	for range 5 {
		s.GuardClauses = append(s.GuardClauses, facts.GuardClause{Action: facts.GuardReturn})
	}

	profile := Classify(s)

	want := map[string]bool{
		"Error-avoidant":     true, // all handlers suppress
		"Hyper-vigilant":     true, // 0.6 defensive ratio
		"Boundary-focused":   true, // 0.5 guard ratio
		"Simplicity-seeking": true, // average nesting 1.0
	}
	for _, trait := range profile.BehavioralTraits {
		if !want[trait] {
			t.Errorf("unexpected trait %q", trait)
		}
		delete(want, trait)
	}
	for trait := range want {
		t.Errorf("missing trait %q", trait)
	}
}

func TestDescribeUnknownArchetype(t *testing.T) {
	if Describe(Archetype("nonexistent")) == "" {
		t.Error("Describe must fall back to a default description")
	}
}
