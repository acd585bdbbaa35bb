package wfc

// Random is the injected source of uniform integers. *math/rand.Rand
// satisfies it.
type Random interface {
	// Intn returns a uniform value in [0, n). n is always positive.
	Intn(n int) int
}

// WeightedIndex draws an index into weights with probability
// weights[i] / sum(weights). Negative weights count as zero.
func WeightedIndex(r Random, weights []int) (int, error) {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1, ErrDegenerateDistribution
	}

	n := r.Intn(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		n -= w
		if n < 0 {
			return i, nil
		}
	}

	// Unreachable while Intn honours its contract.
	return -1, ErrDegenerateDistribution
}

// entropy is the total weight of the variants still in set.
func (s *Solver) entropy(set CandidateSet) int {
	total := 0
	for i := range set.All() {
		total += s.weights[i]
	}
	return total
}

// sample draws one variant index from set, weighted by shape weight.
func (s *Solver) sample(set CandidateSet, r Random) (int, error) {
	indices := make([]int, 0, set.Len())
	weights := make([]int, 0, cap(indices))
	for i := range set.All() {
		indices = append(indices, i)
		weights = append(weights, s.weights[i])
	}

	k, err := WeightedIndex(r, weights)
	if err != nil {
		return -1, err
	}
	return indices[k], nil
}
