package service

import (
	"sort"
)

// SlotAssignment is the result of the day/slot phase: a (day, slot) cell
// per module, the greedy chromatic estimate of the conflict graph and the
// count of unavoidable same-day student conflicts (zero when the calendar
// has at least as many days as the estimate).
type SlotAssignment struct {
	Day               map[int64]int
	Slot              map[int64]int
	Chromatic         int
	StudentViolations int
}

// slotAssigner colors modules by day, largest degree first, then picks the
// least loaded slot within the chosen day.
type slotAssigner struct {
	graph       *ConflictGraph
	numDays     int
	slotsPerDay int
}

func newSlotAssigner(graph *ConflictGraph, numDays, slotsPerDay int) *slotAssigner {
	return &slotAssigner{graph: graph, numDays: numDays, slotsPerDay: slotsPerDay}
}

// orderedByDegree returns the modules sorted by degree descending with the
// stable id-ascending tie-break required for reproducible runs.
func (a *slotAssigner) orderedByDegree() []int64 {
	ordered := make([]int64, len(a.graph.Modules()))
	copy(ordered, a.graph.Modules())
	sort.SliceStable(ordered, func(i, j int) bool {
		return a.graph.Degree(ordered[i]) > a.graph.Degree(ordered[j])
	})
	return ordered
}

// chromaticEstimate runs the greedy coloring probe: each module takes the
// smallest color unused by its already-colored neighbors. The estimate is
// the number of days needed for a conflict-free schedule.
func (a *slotAssigner) chromaticEstimate(ordered []int64) int {
	colors := make(map[int64]int, len(ordered))
	maxColor := -1
	for _, id := range ordered {
		used := make(map[int]struct{})
		for n := range a.graph.adjacency[id] {
			if c, ok := colors[n]; ok {
				used[c] = struct{}{}
			}
		}
		c := 0
		for {
			if _, taken := used[c]; !taken {
				break
			}
			c++
		}
		colors[id] = c
		if c > maxColor {
			maxColor = c
		}
	}
	return maxColor + 1
}

// assign places every module on a (day, slot) cell. Modules with a
// conflict-free day get the least loaded cell among those days; when none
// exists the module falls back to the day with the fewest conflicting
// neighbors and the run accepts the resulting student violations.
func (a *slotAssigner) assign(studentModules map[int64][]int64) *SlotAssignment {
	ordered := a.orderedByDegree()

	result := &SlotAssignment{
		Day:       make(map[int64]int, len(ordered)),
		Slot:      make(map[int64]int, len(ordered)),
		Chromatic: a.chromaticEstimate(ordered),
	}

	load := make([][]int, a.numDays)
	for d := range load {
		load[d] = make([]int, a.slotsPerDay)
	}

	for _, id := range ordered {
		usedDays := make(map[int]struct{})
		for n := range a.graph.adjacency[id] {
			if d, ok := result.Day[n]; ok {
				usedDays[d] = struct{}{}
			}
		}

		bestDay, bestSlot := -1, -1
		minLoad := int(^uint(0) >> 1)
		for d := 0; d < a.numDays; d++ {
			if _, used := usedDays[d]; used {
				continue
			}
			for s := 0; s < a.slotsPerDay; s++ {
				if load[d][s] < minLoad {
					minLoad = load[d][s]
					bestDay, bestSlot = d, s
				}
			}
		}

		if bestDay < 0 {
			// No conflict-free day left: take the day colliding with the
			// fewest neighbors, then its least loaded slot.
			bestDay = a.leastConflictingDay(id, result.Day)
			bestSlot = 0
			for s := 1; s < a.slotsPerDay; s++ {
				if load[bestDay][s] < load[bestDay][bestSlot] {
					bestSlot = s
				}
			}
		}

		result.Day[id] = bestDay
		result.Slot[id] = bestSlot
		load[bestDay][bestSlot]++
	}

	result.StudentViolations = countStudentViolations(studentModules, result.Day)
	return result
}

func (a *slotAssigner) leastConflictingDay(id int64, day map[int64]int) int {
	counts := make([]int, a.numDays)
	for n := range a.graph.adjacency[id] {
		if d, ok := day[n]; ok {
			counts[d]++
		}
	}
	best := 0
	for d := 1; d < a.numDays; d++ {
		if counts[d] < counts[best] {
			best = d
		}
	}
	return best
}

// countStudentViolations sums, per student and day, every enrolled module
// beyond the first scheduled that day.
func countStudentViolations(studentModules map[int64][]int64, day map[int64]int) int {
	violations := 0
	for _, mods := range studentModules {
		perDay := make(map[int]int)
		for _, m := range mods {
			if d, ok := day[m]; ok {
				perDay[d]++
			}
		}
		for _, count := range perDay {
			if count > 1 {
				violations += count - 1
			}
		}
	}
	return violations
}
