package service

import (
	"sort"

	"github.com/azsu-rae/asura-edt/internal/models"
	"github.com/azsu-rae/asura-edt/pkg/config"
)

// UnderProctored reports a module left short of proctors. It is a warning,
// never an abort: the writer persists whatever was assigned.
type UnderProctored struct {
	ModuleID int64
	ShortBy  int
}

// proctorAssigner draws proctors per module, home department first and
// least loaded first, under a per-day cap and an individual session cap
// that keeps the global distribution within one session of even.
type proctorAssigner struct {
	cfg        config.ExamConfig
	professors []models.Professor
	byDept     map[int64][]int64
	allIDs     []int64
	caps       map[int64]int

	sessions map[int64]int
	perDay   map[int64]map[int]int
}

// newProctorAssigner computes the individual caps: with total sessions T
// and P professors, everyone may take floor(T/P), and the first T mod P
// professors in id order may take one more.
func newProctorAssigner(cfg config.ExamConfig, professors []models.Professor, totalSessions int) *proctorAssigner {
	a := &proctorAssigner{
		cfg:        cfg,
		professors: professors,
		byDept:     make(map[int64][]int64),
		caps:       make(map[int64]int, len(professors)),
		sessions:   make(map[int64]int, len(professors)),
		perDay:     make(map[int64]map[int]int, len(professors)),
	}

	ids := make([]int64, 0, len(professors))
	deptOf := make(map[int64]int64, len(professors))
	for _, p := range professors {
		ids = append(ids, p.ID)
		deptOf[p.ID] = p.DepartmentID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	a.allIDs = ids

	for _, id := range ids {
		a.byDept[deptOf[id]] = append(a.byDept[deptOf[id]], id)
	}

	if len(ids) > 0 {
		base := totalSessions / len(ids)
		extra := totalSessions % len(ids)
		for i, id := range ids {
			cap := base
			if i < extra {
				cap++
			}
			a.caps[id] = cap
		}
	}

	return a
}

// proctorsForRoom returns the required proctor count for one room kind.
func (a *proctorAssigner) proctorsForRoom(roomType models.RoomType) int {
	if roomType == models.RoomAmphi {
		return a.cfg.ProctorsPerAmphi
	}
	return a.cfg.ProctorsPerSmallRoom
}

// proctorsNeeded sums the requirement over a module's rooms.
func (a *proctorAssigner) proctorsNeeded(rooms []models.RoomAssignment) int {
	needed := 0
	for _, r := range rooms {
		needed += a.proctorsForRoom(r.RoomType)
	}
	return needed
}

// assignModule draws proctors for one module scheduled on day. Same
// department first, then anyone eligible, both least loaded first with the
// id tie-break.
func (a *proctorAssigner) assignModule(moduleID, deptID int64, day int, rooms []models.RoomAssignment) ([]int64, *UnderProctored) {
	needed := a.proctorsNeeded(rooms)
	assigned := make([]int64, 0, needed)
	taken := make(map[int64]struct{}, needed)

	a.draw(&assigned, taken, a.byDept[deptID], needed, day)
	if len(assigned) < needed {
		secondary := make([]int64, 0, len(a.allIDs))
		for _, id := range a.allIDs {
			if deptIDs := a.byDept[deptID]; !containsID(deptIDs, id) {
				secondary = append(secondary, id)
			}
		}
		a.draw(&assigned, taken, secondary, needed, day)
	}

	if len(assigned) < needed {
		return assigned, &UnderProctored{ModuleID: moduleID, ShortBy: needed - len(assigned)}
	}
	return assigned, nil
}

func (a *proctorAssigner) draw(assigned *[]int64, taken map[int64]struct{}, pool []int64, needed, day int) {
	eligible := make([]int64, 0, len(pool))
	for _, id := range pool {
		if a.eligible(id, day, taken) {
			eligible = append(eligible, id)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if a.sessions[eligible[i]] != a.sessions[eligible[j]] {
			return a.sessions[eligible[i]] < a.sessions[eligible[j]]
		}
		return eligible[i] < eligible[j]
	})

	for _, id := range eligible {
		if len(*assigned) >= needed {
			return
		}
		*assigned = append(*assigned, id)
		taken[id] = struct{}{}
		a.sessions[id]++
		if a.perDay[id] == nil {
			a.perDay[id] = make(map[int]int)
		}
		a.perDay[id][day]++
	}
}

func (a *proctorAssigner) eligible(id int64, day int, taken map[int64]struct{}) bool {
	if _, already := taken[id]; already {
		return false
	}
	if a.sessions[id] >= a.caps[id] {
		return false
	}
	return a.perDay[id][day] < a.cfg.MaxProctoringsPerDay
}

// sessionStats returns min, max and total of the per-professor counts.
func (a *proctorAssigner) sessionStats() (min, max, total int) {
	first := true
	for _, id := range a.allIDs {
		c := a.sessions[id]
		total += c
		if first {
			min, max = c, c
			first = false
			continue
		}
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	return min, max, total
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
