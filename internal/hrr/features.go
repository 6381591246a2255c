package hrr

// Same returns the normalized superposition of the words that are present in
// both weighted vectors: every word whose similarity to w1*v1 + w2*v2 exceeds
// threshold is bundled into the result.
func Same(v1, v2 Vector, words []Vector, threshold, w1, w2 float64) Vector {
	probe := Bundle(Scale(v1, w1), Scale(v2, w2))
	return Normalize(collect(probe, words, func(sim float64) bool {
		return sim > threshold
	}))
}

// Diff returns the normalized superposition of the words that distinguish the
// two weighted vectors, i.e. words strongly aligned either way with
// w1*v1 - w2*v2.
func Diff(v1, v2 Vector, words []Vector, threshold, w1, w2 float64) Vector {
	probe := Sub(Scale(v1, w1), Scale(v2, w2))
	return Normalize(collect(probe, words, func(sim float64) bool {
		return sim > threshold || sim < -threshold
	}))
}

func collect(probe Vector, words []Vector, keep func(float64) bool) Vector {
	out := Zero(len(probe))
	for _, word := range words {
		if keep(Dot(probe, word)) {
			out = Bundle(out, word)
		}
	}
	return out
}
