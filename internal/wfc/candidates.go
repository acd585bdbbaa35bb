package wfc

import (
	"iter"
	"math/bits"
)

// MaxVariants is the largest number of oriented tiles a solver can track.
const MaxVariants = 256

// CandidateSet is a bitset over a solver's variant indices. It is a value
// type: assigning or filling a grid with it copies the bits.
type CandidateSet [MaxVariants / 64]uint64

// FullSet returns a set containing indices 0..n-1.
func FullSet(n int) CandidateSet {
	var s CandidateSet
	for i := 0; i < n; i++ {
		s.Add(i)
	}
	return s
}

// Add inserts index i.
func (s *CandidateSet) Add(i int) {
	s[i>>6] |= 1 << uint(i&63)
}

// Remove deletes index i.
func (s *CandidateSet) Remove(i int) {
	s[i>>6] &^= 1 << uint(i&63)
}

// Has reports whether index i is present.
func (s CandidateSet) Has(i int) bool {
	return s[i>>6]&(1<<uint(i&63)) != 0
}

// Len returns the number of indices in the set.
func (s CandidateSet) Len() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

// Empty reports whether the set has no indices.
func (s CandidateSet) Empty() bool {
	for _, w := range s {
		if w != 0 {
			return false
		}
	}
	return true
}

// SubsetOf reports whether every index of s is also in other.
func (s CandidateSet) SubsetOf(other CandidateSet) bool {
	for i := range s {
		if s[i]&^other[i] != 0 {
			return false
		}
	}
	return true
}

// All yields the indices in ascending order.
func (s CandidateSet) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		for word, w := range s {
			for w != 0 {
				b := bits.TrailingZeros64(w)
				w &^= 1 << uint(b)
				if !yield(word*64 + b) {
					return
				}
			}
		}
	}
}
