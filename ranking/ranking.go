// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import "sort"

// Movement reports whether an item's position changed between two snapshots
type Movement struct {
	Increase bool
	Decrease bool
}

// Score converts an ordered list of items (rank 1 first) into points.
// The item at position i of N receives N-i points, so the first item gets N
// and the last gets 1. When a name repeats, only its first position counts.
func Score(ordered []string) map[string]int {
	n := len(ordered)
	points := make(map[string]int, n)
	for i, item := range ordered {
		if _, seen := points[item]; seen {
			continue
		}
		points[item] = n - i
	}
	return points
}

// BallotTotal is the number of points one complete ballot of n items awards
func BallotTotal(n int) int {
	return n * (n + 1) / 2
}

// SortByPoints returns the items of points ordered by points descending.
//
// Ties keep the relative order of previousOrder, so an unchanged tie never
// shows up as movement. Items missing from previousOrder are placed after the
// known ones in the order given by fallback, then by name.
func SortByPoints(previousOrder []string, fallback []string, points map[string]int) []string {
	base := make([]string, 0, len(points))
	placed := make(map[string]bool, len(points))

	appendOnce := func(items []string) {
		for _, item := range items {
			if placed[item] {
				continue
			}
			if _, ok := points[item]; !ok {
				continue
			}
			placed[item] = true
			base = append(base, item)
		}
	}
	appendOnce(previousOrder)
	appendOnce(fallback)

	var rest []string
	for item := range points {
		if !placed[item] {
			rest = append(rest, item)
		}
	}
	sort.Strings(rest)
	base = append(base, rest...)

	sort.SliceStable(base, func(i, j int) bool {
		return points[base[i]] > points[base[j]]
	})
	return base
}

// Delta compares two orders sorted by points descending and flags every item
// whose position improved (increase) or worsened (decrease). Items present in
// only one of the orders get neither flag.
func Delta(previousOrder, newOrder []string) map[string]Movement {
	prev := positions(previousOrder)
	next := positions(newOrder)

	moves := make(map[string]Movement, len(newOrder))
	for _, item := range newOrder {
		p, inPrev := prev[item]
		n := next[item]
		var m Movement
		if inPrev {
			m.Increase = n < p
			m.Decrease = n > p
		}
		moves[item] = m
	}
	return moves
}

func positions(order []string) map[string]int {
	idx := make(map[string]int, len(order))
	for i, item := range order {
		if _, ok := idx[item]; !ok {
			idx[item] = i
		}
	}
	return idx
}

// Apply adds sign*Score(ordered) to totals, item by item. Only items already
// present in totals are touched; unknown names contribute nothing.
func Apply(totals map[string]int, ordered []string, sign int) {
	for item, pts := range Score(ordered) {
		if _, ok := totals[item]; !ok {
			continue
		}
		totals[item] += sign * pts
	}
}
