package synthesis

// baseFormProvision is one standard provision a known ISO base form is
// presumed to carry, used to seed EffectiveCoverage/Exclusion without an
// LLM call when extracting the full base form text would be wasted effort
// (spec.md §4.11 "Base-form knowledge base").
type baseFormProvision struct {
	name string
	kind string // "coverage" | "exclusion"
}

// baseFormKB is a static table of standard ISO form provisions keyed by
// form number. It is intentionally small: only the handful of base forms
// this deployment's products actually see need an entry, and an unknown
// form id degrades gracefully to "no seeded provisions" rather than an error.
var baseFormKB = map[string][]baseFormProvision{
	"CA 00 01": {
		{"Liability Coverage", "coverage"},
		{"Medical Payments Coverage", "coverage"},
		{"Uninsured Motorist Coverage", "coverage"},
		{"Physical Damage Coverage", "coverage"},
		{"Nuclear Energy Liability Exclusion", "exclusion"},
		{"War Exclusion", "exclusion"},
	},
	"CG 00 01": {
		{"Bodily Injury and Property Damage Liability", "coverage"},
		{"Personal and Advertising Injury Liability", "coverage"},
		{"Medical Payments", "coverage"},
		{"Pollution Exclusion", "exclusion"},
		{"Expected or Intended Injury Exclusion", "exclusion"},
		{"Professional Services Exclusion", "exclusion"},
	},
	"BP 00 03": {
		{"Building and Personal Property Coverage", "coverage"},
		{"Business Income Coverage", "coverage"},
		{"Flood Exclusion", "exclusion"},
		{"Earth Movement Exclusion", "exclusion"},
	},
}

// KnownBaseForm reports whether formRef matches a base form in the
// knowledge base, normalizing spaces and hyphens so "CA0001" and "CA 00 01"
// match. A reference that carries an edition date after the form number
// ("CA 00 01 03 10") matches its form too.
func KnownBaseForm(formRef string) ([]baseFormProvision, bool) {
	key := normalizeFormRef(formRef)
	for k, v := range baseFormKB {
		nk := normalizeFormRef(k)
		if len(key) >= len(nk) && key[:len(nk)] == nk {
			return v, true
		}
	}
	return nil, false
}

func normalizeFormRef(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == ' ' || r == '-' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
