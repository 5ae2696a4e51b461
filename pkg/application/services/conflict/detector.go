// Package conflict detects allocations that plan the same commodity in overlapping windows.
package conflict

import (
	"sort"

	"github.com/vsinha/packplan/pkg/domain/entities"
)

// Pair is two allocation indexes, A < B, sharing a commodity key with overlapping windows
type Pair struct {
	A int
	B int
}

// Detect returns every conflicting pair in the set, ordered by (A, B).
// Rows missing any key component or window bound are not conflict-checkable and never appear.
func Detect(allocations []*entities.GoodsAllocation) []Pair {
	groups := make(map[entities.CommodityKey][]int)
	for i, a := range allocations {
		if a == nil || !a.IdentityComplete() {
			continue
		}
		groups[a.Key] = append(groups[a.Key], i)
	}

	var pairs []Pair
	for _, indexes := range groups {
		for x := 0; x < len(indexes); x++ {
			for y := x + 1; y < len(indexes); y++ {
				a, b := allocations[indexes[x]], allocations[indexes[y]]
				if a.Window.Overlaps(b.Window) {
					pairs = append(pairs, Pair{A: indexes[x], B: indexes[y]})
				}
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}

// Flags returns, per index, whether the allocation conflicts with any other
func Flags(allocations []*entities.GoodsAllocation) []bool {
	flags := make([]bool, len(allocations))
	for _, p := range Detect(allocations) {
		flags[p.A] = true
		flags[p.B] = true
	}
	return flags
}

// Partners returns, per conflicting index, the indexes it conflicts with
func Partners(allocations []*entities.GoodsAllocation) map[int][]int {
	partners := make(map[int][]int)
	for _, p := range Detect(allocations) {
		partners[p.A] = append(partners[p.A], p.B)
		partners[p.B] = append(partners[p.B], p.A)
	}
	return partners
}
