package conflict

import (
	"testing"
	"time"

	"github.com/vsinha/packplan/pkg/domain/entities"
)

var key = entities.CommodityKey{Region: "N", Supplier: 7, Good: 3, Quality: "A"}

func window(startDay, endDay int) entities.TimeWindow {
	return entities.TimeWindow{
		Start: time.Date(2025, time.January, startDay, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.January, endDay, 0, 0, 0, 0, time.UTC),
	}
}

func row(k entities.CommodityKey, w entities.TimeWindow) *entities.GoodsAllocation {
	return &entities.GoodsAllocation{Key: k, Window: w}
}

func TestDetect(t *testing.T) {
	otherQuality := key
	otherQuality.Quality = "B"
	incomplete := key
	incomplete.Supplier = 0

	rows := []*entities.GoodsAllocation{
		row(key, window(1, 10)),
		row(key, window(10, 20)),
		row(key, window(21, 31)),
		row(otherQuality, window(1, 31)),
		row(incomplete, window(1, 31)),
		row(key, entities.TimeWindow{Start: window(1, 1).Start}),
		nil,
	}

	pairs := Detect(rows)
	if len(pairs) != 1 {
		t.Fatalf("Expected 1 conflicting pair, got %d: %+v", len(pairs), pairs)
	}
	if pairs[0] != (Pair{A: 0, B: 1}) {
		t.Errorf("Expected pair {0 1}, got %+v", pairs[0])
	}

	flags := Flags(rows)
	want := []bool{true, true, false, false, false, false, false}
	for i := range want {
		if flags[i] != want[i] {
			t.Errorf("Expected flag %v at %d, got %v", want[i], i, flags[i])
		}
	}
}

func TestDetect_Symmetric(t *testing.T) {
	windows := []entities.TimeWindow{window(1, 5), window(5, 9), window(3, 4), window(10, 12), window(12, 12)}
	rows := make([]*entities.GoodsAllocation, len(windows))
	for i, w := range windows {
		rows[i] = row(key, w)
	}

	partners := Partners(rows)
	for a, bs := range partners {
		for _, b := range bs {
			found := false
			for _, back := range partners[b] {
				if back == a {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected %d to list %d as a partner", b, a)
			}
		}
	}

	reversed := make([]*entities.GoodsAllocation, len(rows))
	for i := range rows {
		reversed[len(rows)-1-i] = rows[i]
	}
	forward, backward := Flags(rows), Flags(reversed)
	for i := range forward {
		if forward[i] != backward[len(rows)-1-i] {
			t.Errorf("Expected order-independent flag for row %d", i)
		}
	}
	if len(partners[3]) != 1 || partners[3][0] != 4 {
		t.Errorf("Expected row 3 to conflict only with row 4 on a shared day, got %v", partners[3])
	}
}
