package facts

import "testing"

func TestSplitAffixes(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantPrefix string
		wantSuffix string
	}{
		{"prefix only", "get_user", "get_", ""},
		{"suffix only", "request_handler", "", "_handler"},
		{"both", "validate_input_validator", "validate_", "_validator"},
		{"neither", "run", "", ""},
		{"private marker is last resort", "_internal", "_", ""},
		{"named prefix beats private marker", "get_thing", "get_", ""},
		{"first suffix match wins", "config_manager", "", "_manager"},
		{"empty name", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, suffix := SplitAffixes(tt.input)
			if prefix != tt.wantPrefix {
				t.Errorf("SplitAffixes(%q) prefix = %q, want %q", tt.input, prefix, tt.wantPrefix)
			}
			if suffix != tt.wantSuffix {
				t.Errorf("SplitAffixes(%q) suffix = %q, want %q", tt.input, suffix, tt.wantSuffix)
			}
		})
	}
}

func TestPrivateMarkerOrdering(t *testing.T) {
	// "_" must stay at the end of the prefix list or it shadows every
	// private name that also carries a real prefix.
	if Prefixes[len(Prefixes)-1] != "_" {
		t.Fatalf("expected \"_\" to be the last prefix candidate, got %q", Prefixes[len(Prefixes)-1])
	}
}

func TestIsConstantName(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"MAX_RETRIES", true},
		{"TIMEOUT", true},
		{"X", false},
		{"maxRetries", false},
		{"Max_Retries", false},
		{"__ALL__", true},
		{"", false},
		{"_", false},
	}

	for _, tt := range tests {
		if got := IsConstantName(tt.input); got != tt.want {
			t.Errorf("IsConstantName(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
