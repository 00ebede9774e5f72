package inliner

import (
	"maps"
	"slices"
	"strings"
)

// ReplaceVariables substitutes every {{key}} token with its value. Tokens for
// unknown keys are left intact. Substitution is done in a single pass so
// values are never expanded again.
func ReplaceVariables(markup string, vars map[string]string) string {
	if len(vars) == 0 {
		return markup
	}
	pairs := make([]string, 0, len(vars)*2)
	for _, key := range slices.Sorted(maps.Keys(vars)) {
		pairs = append(pairs, "{{"+key+"}}", vars[key])
	}
	return strings.NewReplacer(pairs...).Replace(markup)
}
