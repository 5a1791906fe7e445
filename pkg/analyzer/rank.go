package analyzer

import (
	"sort"
	"time"
)

// sortedByValue returns a copy sorted by value. Equal values keep their input order.
func sortedByValue(prices []Price, descending bool) []Price {
	out := make([]Price, len(prices))
	copy(out, prices)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].Value > out[j].Value
		}
		return out[i].Value < out[j].Value
	})
	return out
}

type rankSet map[int64]bool

func topK(sorted []Price, k int) rankSet {
	if k > len(sorted) {
		k = len(sorted)
	}
	set := make(rankSet, k)
	for _, p := range sorted[:k] {
		set[p.Start.UnixNano()] = true
	}
	return set
}

func (r rankSet) has(t time.Time) bool {
	return r[t.UnixNano()]
}

// Cheapest returns the n cheapest prices ordered by value.
func Cheapest(prices []Price, n int) []Price {
	return firstN(sortedByValue(prices, false), n)
}

// MostExpensive returns the n most expensive prices ordered by value, highest first.
func MostExpensive(prices []Price, n int) []Price {
	return firstN(sortedByValue(prices, true), n)
}

func firstN(s []Price, n int) []Price {
	if n < 0 {
		n = 0
	}
	if n < len(s) {
		s = s[:n]
	}
	return s
}

// FutureSorted returns every price starting after one hour before now,
// today before tomorrow and then sorted ascending by value.
func FutureSorted(today, tomorrow []Price, now time.Time) []Price {
	from := now.Add(-time.Hour)
	var future []Price
	for _, days := range [][]Price{today, tomorrow} {
		for _, p := range days {
			if p.Start.After(from) {
				future = append(future, p)
			}
		}
	}
	return sortedByValue(future, false)
}
