// Package ontology maps aggregate structural facts to symbolic archetypes
// using deterministic, weighted rules. Naming patterns reveal
// role-definition, guard clauses indicate boundary-setting, error handling
// exposes anxiety management, and defensive patterns show the relationship
// with uncertainty.
package ontology

// Archetype is a fixed symbolic role a scoring rule can assign strength to.
type Archetype string

const (
	// Guardian archetypes: protective patterns.
	Guardian   Archetype = "guardian"
	Sentinel   Archetype = "sentinel"
	Gatekeeper Archetype = "gatekeeper"

	// Control archetypes: authority patterns.
	AuthoritarianGatekeeper Archetype = "authoritarian_gatekeeper"
	Controller              Archetype = "controller"
	Orchestrator            Archetype = "orchestrator"

	// Caretaker archetypes: nurturing and anxiety patterns.
	AnxiousCaretaker     Archetype = "anxious_caretaker"
	Perfectionist        Archetype = "perfectionist"
	OverprotectiveParent Archetype = "overprotective_parent"

	// Creator archetypes: generative patterns.
	Builder   Archetype = "builder"
	Factory   Archetype = "factory"
	Architect Archetype = "architect"

	// Servant archetypes: utility patterns.
	Helper    Archetype = "helper"
	Servant   Archetype = "servant"
	Messenger Archetype = "messenger"

	// Shadow archetypes: problematic patterns.
	Suppressor Archetype = "suppressor"
	Denier     Archetype = "denier"
	Abandoner  Archetype = "abandoner"

	// Transformation archetypes.
	Transformer Archetype = "transformer"
	Alchemist   Archetype = "alchemist"

	// Structural archetypes.
	LabyrinthDweller Archetype = "labyrinth_dweller"
	Minimalist       Archetype = "minimalist"
	Ritualist        Archetype = "ritualist"
)

// namingArchetypes maps affix tokens to the archetype they evoke. Some
// tokens (guard_, ensure_, verify_, assert_, fetch_, transform_, convert_,
// _guard) are outside the extractor's candidate lists; the table keeps them
// so the mapping stays complete if the candidate lists grow.
var namingArchetypes = map[string]Archetype{
	// Prefixes.
	"validate_":  Guardian,
	"check_":     Sentinel,
	"guard_":     Gatekeeper,
	"ensure_":    AnxiousCaretaker,
	"verify_":    Perfectionist,
	"assert_":    AuthoritarianGatekeeper,
	"create_":    Builder,
	"build_":     Architect,
	"make_":      Factory,
	"get_":       Servant,
	"fetch_":     Messenger,
	"handle_":    Helper,
	"process_":   Transformer,
	"transform_": Alchemist,
	"convert_":   Alchemist,

	// Suffixes.
	"_handler":    Helper,
	"_manager":    Controller,
	"_controller": Orchestrator,
	"_factory":    Factory,
	"_builder":    Builder,
	"_validator":  Guardian,
	"_guard":      Gatekeeper,
	"_service":    Servant,
	"_helper":     Helper,
	"_util":       Helper,
	"_processor":  Transformer,
}

// errorArchetypes maps error-handling behavior to the archetype it evokes.
var errorArchetypes = map[string]Archetype{
	"suppress":  Suppressor,
	"reraise":   Messenger,
	"transform": Transformer,
	"log":       Sentinel,
	"handle":    Helper,
}

// All returns every archetype with a description, in no particular order.
func All() []Archetype {
	all := make([]Archetype, 0, len(descriptions))
	for a := range descriptions {
		all = append(all, a)
	}
	return all
}

// Describe returns the symbolic description of an archetype.
func Describe(a Archetype) string {
	if d, ok := descriptions[a]; ok {
		return d
	}
	return "An undefined archetype awaiting interpretation."
}

var descriptions = map[Archetype]string{
	Guardian:                "The Guardian stands at the threshold, ensuring only the worthy may pass. This code expresses a protective instinct, validating and verifying before proceeding.",
	Sentinel:                "The Sentinel watches ever-vigilant, logging and monitoring all that transpires. This code maintains awareness, recording the flow of data and events.",
	Gatekeeper:              "The Gatekeeper controls access with strict conditions. This code establishes clear boundaries, turning away that which does not meet its criteria.",
	AuthoritarianGatekeeper: "The Authoritarian Gatekeeper rules with an iron fist, raising exceptions without mercy. This code tolerates no deviation from its expectations.",
	Controller:              "The Controller seeks to manage and direct all aspects of the system. This code expresses a need for order and coordination.",
	Orchestrator:            "The Orchestrator conducts the symphony of components, ensuring harmony. This code coordinates complex interactions with careful timing.",
	AnxiousCaretaker:        "The Anxious Caretaker worries endlessly, checking and rechecking. This code reveals deep concern about what might go wrong.",
	Perfectionist:           "The Perfectionist accepts nothing less than flawless input. This code strives for correctness through exhaustive validation.",
	OverprotectiveParent:    "The Overprotective Parent shields from all harm, catching every exception. This code wraps everything in safety, perhaps too much.",
	Builder:                 "The Builder creates new structures with purpose. This code is generative, bringing new entities into existence.",
	Factory:                 "The Factory produces instances according to established patterns. This code embodies creation through standardized processes.",
	Architect:               "The Architect designs grand structures with vision. This code establishes foundations and frameworks for others to build upon.",
	Helper:                  "The Helper serves without ego, providing utility to others. This code exists to support and assist, asking nothing in return.",
	Servant:                 "The Servant responds to requests with diligence. This code fetches and retrieves, mediating between systems.",
	Messenger:               "The Messenger carries information between realms. This code transmits and propagates, ensuring signals reach their destination.",
	Suppressor:              "The Suppressor silences errors, burying them in darkness. This code hides problems rather than confronting them.",
	Denier:                  "The Denier refuses to acknowledge what has occurred. This code pretends exceptions never happened.",
	Abandoner:               "The Abandoner leaves tasks unfinished, paths unexplored. This code starts journeys it does not complete.",
	Transformer:             "The Transformer changes one form into another. This code is alchemical, transmuting data through its processes.",
	Alchemist:               "The Alchemist works mysterious conversions. This code transforms the base into something precious.",
	LabyrinthDweller:        "The Labyrinth Dweller thrives in complexity, creating nested passages. This code embraces deep structures that challenge navigation.",
	Minimalist:              "The Minimalist achieves with economy, using only what is needed. This code expresses elegance through simplicity.",
	Ritualist:               "The Ritualist repeats patterns with devotion. This code follows established ceremonies, finding meaning in repetition.",
}
