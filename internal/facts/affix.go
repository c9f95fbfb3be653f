package facts

import (
	"strings"
	"unicode"
)

// Affix candidate lists. Order is significant: the first match wins, so the
// generic "_" privacy marker must stay last among the prefixes.
var (
	Prefixes = []string{
		"get_", "set_", "is_", "has_", "can_", "do_", "make_",
		"create_", "build_", "init_", "validate_", "check_",
		"process_", "handle_", "_",
	}

	Suffixes = []string{
		"_handler", "_manager", "_factory", "_builder", "_validator",
		"_processor", "_helper", "_util", "_service", "_controller",
		"_impl", "_base", "_mixin", "_error", "_exception",
	}
)

// SplitAffixes returns the first matching prefix and suffix for a name.
// Either result may be empty; at most one of each is ever attached.
func SplitAffixes(name string) (prefix, suffix string) {
	for _, p := range Prefixes {
		if strings.HasPrefix(name, p) {
			prefix = p
			break
		}
	}
	for _, s := range Suffixes {
		if strings.HasSuffix(name, s) {
			suffix = s
			break
		}
	}
	return prefix, suffix
}

// IsConstantName reports whether an identifier looks like a constant:
// longer than one character, at least one uppercase letter, and no
// lowercase letters.
func IsConstantName(name string) bool {
	if len(name) <= 1 {
		return false
	}
	hasUpper := false
	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}
