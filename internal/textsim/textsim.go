// Package textsim measures how alike two texts are.
//
// Ratios follow Ratcliff/Obershelp: 2*M/T where M is the number of elements
// in matching blocks and T the total number of elements on both sides.
// Operands are put in a canonical order first so every ratio is symmetric.
package textsim

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

// popularMinLen is the sequence length from which very frequent elements
// stop seeding matches (they can still extend one).
const popularMinLen = 200

// Normalize lower-cases s, trims it and collapses inner whitespace
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Ratio compares two strings character by character after normalization.
// Two empty strings score 0.
func Ratio(a, b string) float64 {
	return ratio([]rune(Normalize(a)), []rune(Normalize(b)))
}

// TokenRatio compares two token sequences element by element.
// Two empty sequences score 0.
func TokenRatio(a, b []string) float64 {
	return ratio(a, b)
}

// Round3 rounds to three decimal places
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

func ratio[T cmp.Ordered](a, b []T) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	if slices.Compare(a, b) > 0 {
		a, b = b, a
	}
	m := newMatcher(a, b)
	return 2 * float64(m.matchingCount()) / float64(total)
}

type matcher[T comparable] struct {
	a, b []T
	b2j  map[T][]int
}

func newMatcher[T comparable](a, b []T) *matcher[T] {
	m := &matcher[T]{a: a, b: b, b2j: make(map[T][]int)}
	for j, elt := range b {
		m.b2j[elt] = append(m.b2j[elt], j)
	}

	if n := len(b); n >= popularMinLen {
		limit := n/100 + 1
		for elt, idxs := range m.b2j {
			if len(idxs) > limit {
				delete(m.b2j, elt)
			}
		}
	}
	return m
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] inside the
// given bounds. Among equal lengths the one starting earliest in a wins,
// then earliest in b.
func (m *matcher[T]) longestMatch(alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestk := alo, blo, 0
	j2len := make(map[int]int)

	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}

	// Popular elements never seed a match; let them extend one.
	for besti > alo && bestj > blo && m.a[besti-1] == m.b[bestj-1] {
		besti, bestj, bestk = besti-1, bestj-1, bestk+1
	}
	for besti+bestk < ahi && bestj+bestk < bhi && m.a[besti+bestk] == m.b[bestj+bestk] {
		bestk++
	}

	return besti, bestj, bestk
}

// matchingCount sums the sizes of all matching blocks
func (m *matcher[T]) matchingCount() int {
	type span struct{ alo, ahi, blo, bhi int }

	queue := []span{{0, len(m.a), 0, len(m.b)}}
	total := 0

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := m.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		total += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}

	return total
}
