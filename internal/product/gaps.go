package product

// Gaps lists the fields still missing from an Info, per tier.
type Gaps struct {
	Critical   []string `json:"critical"`
	Important  []string `json:"important"`
	NiceToHave []string `json:"nice_to_have"`
}

// AnalyzeGaps reports which fields of info are absent or empty. Lists keep
// the declaration order of the schema and are never nil.
func AnalyzeGaps(info Info) Gaps {
	g := Gaps{
		Critical:   []string{},
		Important:  []string{},
		NiceToHave: []string{},
	}
	for _, f := range schema {
		if info.Has(f.name) {
			continue
		}
		switch f.tier {
		case TierCritical:
			g.Critical = append(g.Critical, f.name)
		case TierImportant:
			g.Important = append(g.Important, f.name)
		case TierNiceToHave:
			g.NiceToHave = append(g.NiceToHave, f.name)
		}
	}
	return g
}

// Missing reports whether field appears in any tier of g.
func (g Gaps) Missing(field string) bool {
	for _, list := range [][]string{g.Critical, g.Important, g.NiceToHave} {
		for _, f := range list {
			if f == field {
				return true
			}
		}
	}
	return false
}

// All returns every missing field, critical first.
func (g Gaps) All() []string {
	out := make([]string, 0, len(g.Critical)+len(g.Important)+len(g.NiceToHave))
	out = append(out, g.Critical...)
	out = append(out, g.Important...)
	out = append(out, g.NiceToHave...)
	return out
}
