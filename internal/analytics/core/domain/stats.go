package domain

import (
	"math"
	"sort"
)

// Delta is a period-over-period percent change. Defined is false when
// both periods are zero, which renders as "no change" rather than 0%.
type Delta struct {
	Pct     float64
	Defined bool
}

// PctChange computes the percent change from previous to current,
// rounded to one decimal. A zero previous count yields +100% when
// current is positive and an undefined delta otherwise.
func PctChange(current, previous int) Delta {
	if previous == 0 {
		if current > 0 {
			return Delta{Pct: 100, Defined: true}
		}
		return Delta{}
	}
	pct := math.Round(float64(current-previous)/float64(previous)*1000) / 10
	return Delta{Pct: pct, Defined: true}
}

// RoundPct rounds a ratio expressed as count/total to one decimal
// percent. Zero total yields zero.
func RoundPct(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

// Round1 rounds to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// TopHours ranks hour-of-day counts, highest first, earlier hour on
// ties. Hours with zero observations are omitted. counts must have 24
// entries indexed by hour.
func TopHours(counts []int, n int) []HourCount {
	hours := make([]int, 0, 24)
	for h := 0; h < 24 && h < len(counts); h++ {
		if counts[h] > 0 {
			hours = append(hours, h)
		}
	}
	sort.SliceStable(hours, func(i, j int) bool {
		return counts[hours[i]] > counts[hours[j]]
	})
	if n < len(hours) {
		hours = hours[:n]
	}
	out := make([]HourCount, 0, len(hours))
	for _, h := range hours {
		out = append(out, HourCount{Hour: h, Count: counts[h]})
	}
	return out
}

// HistogramEntry is one ranked histogram bucket with its share of the
// total population.
type HistogramEntry struct {
	Key   string
	Count int
	Pct   float64
}

// Histogram counts string keys while remembering first-seen order, so
// that equal counts rank by first occurrence instead of map iteration
// order.
type Histogram struct {
	counts map[string]int
	order  []string
}

func NewHistogram() *Histogram {
	return &Histogram{counts: make(map[string]int)}
}

// Add counts one occurrence of key. Empty keys are ignored so absent
// fields never produce a phantom bucket.
func (h *Histogram) Add(key string) {
	if key == "" {
		return
	}
	if _, seen := h.counts[key]; !seen {
		h.order = append(h.order, key)
	}
	h.counts[key]++
}

// Keys returns all distinct keys in first-seen order.
func (h *Histogram) Keys() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Top returns the n highest-count buckets with their percentage of
// total. Ties keep first-seen order (stable sort over the insertion
// order slice).
func (h *Histogram) Top(n, total int) []HistogramEntry {
	ranked := make([]string, len(h.order))
	copy(ranked, h.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return h.counts[ranked[i]] > h.counts[ranked[j]]
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	out := make([]HistogramEntry, 0, len(ranked))
	for _, k := range ranked {
		out = append(out, HistogramEntry{
			Key:   k,
			Count: h.counts[k],
			Pct:   RoundPct(h.counts[k], total),
		})
	}
	return out
}
