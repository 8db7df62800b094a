// Package batch enumerates entity combinations for batch simulations and
// rolls child results up into a batch status.
package batch

import (
	"fmt"
	"math"
	"math/big"

	"github.com/agenthands/personapanel/internal/core/model"
)

// Binomial returns C(n, k), saturating at math.MaxUint64.
func Binomial(n, k int) uint64 {
	if k < 0 || n < 0 || k > n {
		return 0
	}
	b := new(big.Int).Binomial(int64(n), int64(k))
	if !b.IsUint64() {
		return math.MaxUint64
	}
	return b.Uint64()
}

// Combinations returns the first limit k-sized combinations of ids in
// lexicographic index order. Duplicate ids are dropped first, keeping the
// first occurrence. Fewer than limit combinations are returned when
// C(n, k) < limit.
func Combinations(ids []string, k, limit int) ([][]string, error) {
	pool := unique(ids)
	n := len(pool)
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: interaction size %d must be between 1 and %d", model.ErrInvalid, k, n)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: number of simulations must be at least 1", model.ErrInvalid)
	}

	if total := Binomial(n, k); uint64(limit) > total {
		limit = int(total)
	}

	combos := make([][]string, 0, limit)
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}

	for len(combos) < limit {
		combo := make([]string, k)
		for i, j := range idx {
			combo[i] = pool[j]
		}
		combos = append(combos, combo)

		// advance to the next combination: bump the rightmost index that
		// still has room, then reset everything after it
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return combos, nil
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
