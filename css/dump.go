package css

import "mailsmith/utils/debug"

// Dump describes rules in readable form for debug report.
func Dump(rules []StyleRule) string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "rules: %d", len(rules))
	for i, r := range rules {
		tw.Line(1, "rule #%d", i+1)
		for _, s := range r.Selectors() {
			tw.Field(2, "selector", s)
		}
		for _, k := range r.Properties.Keys() {
			v, _ := r.Properties.Get(k)
			tw.Field(2, k, v)
		}
	}
	return tw.String()
}
