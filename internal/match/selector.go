package match

// SelectBest picks the authoritative candidate: highest similarity,
// then highest stage priority. Ties keep the first-discovered candidate.
// Returns -1 for an empty slice.
func SelectBest(candidates []Candidate) int {
	if len(candidates) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(candidates); i++ {
		if better(candidates[i], candidates[best]) {
			best = i
		}
	}
	return best
}

func better(a, b Candidate) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	return a.Stage.Priority() > b.Stage.Priority()
}
