package product

import "math"

// OverallKey is the ConfidenceMap entry holding the aggregate score.
const OverallKey = "overall"

// ConfidenceMap maps each field name, plus OverallKey, to a score in [0,1].
type ConfidenceMap map[string]float64

// Score returns the clamped score of field, 0 when unset.
func (c ConfidenceMap) Score(field string) float64 {
	if c == nil {
		return 0
	}
	return Clamp01(c[field])
}

// Overall returns the aggregate score, falling back to the field mean.
func (c ConfidenceMap) Overall() float64 {
	if v, ok := c[OverallKey]; ok {
		return Clamp01(v)
	}
	return MeanScore(c)
}

func (c ConfidenceMap) Clone() ConfidenceMap {
	if c == nil {
		return nil
	}
	out := make(ConfidenceMap, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Clamp01 limits v to [0,1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// MeanScore averages the scores of all twelve fields; unset fields count as 0.
func MeanScore(c ConfidenceMap) float64 {
	fields := Fields()
	var sum float64
	for _, f := range fields {
		sum += c.Score(f)
	}
	return Clamp01(sum / float64(len(fields)))
}

// NewConfidenceMap returns a map with every field present at 0.
func NewConfidenceMap() ConfidenceMap {
	out := make(ConfidenceMap, len(schema)+1)
	for _, f := range schema {
		out[f.name] = 0
	}
	return out
}

// MergeConfidence keeps, per field, the higher of the prior and next score.
// The overall score is taken from next when present, otherwise recomputed.
func MergeConfidence(prior, next ConfidenceMap) ConfidenceMap {
	out := NewConfidenceMap()
	for _, f := range schema {
		out[f.name] = math.Max(prior.Score(f.name), next.Score(f.name))
	}
	if v, ok := next[OverallKey]; ok {
		out[OverallKey] = Clamp01(v)
	} else {
		out[OverallKey] = MeanScore(out)
	}
	return out
}

// MissingFields lists fields scoring below threshold, in declaration order.
func MissingFields(c ConfidenceMap, threshold float64) []string {
	out := []string{}
	for _, f := range schema {
		if c.Score(f.name) < threshold {
			out = append(out, f.name)
		}
	}
	return out
}

// RequiredComplete reports whether every critical field both has a
// meaningful value and scores at least threshold.
func RequiredComplete(info Info, c ConfidenceMap, threshold float64) bool {
	for _, f := range Critical() {
		if !info.Has(f) || c.Score(f) < threshold {
			return false
		}
	}
	return true
}

// WeakestCritical returns the critical field holding RequiredComplete back:
// the one with the lowest score among those without a value or scoring
// below threshold. Ties keep declaration order.
func WeakestCritical(info Info, c ConfidenceMap, threshold float64) (string, bool) {
	weakest, found := "", false
	lowest := math.Inf(1)
	for _, f := range Critical() {
		score := c.Score(f)
		if !info.Has(f) {
			score = 0
		}
		if score >= threshold {
			continue
		}
		if score < lowest {
			weakest, lowest, found = f, score, true
		}
	}
	return weakest, found
}
