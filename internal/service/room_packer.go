package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/azsu-rae/asura-edt/internal/models"
	"github.com/azsu-rae/asura-edt/pkg/config"
)

// groupCount is one (formation, group) population of a module.
type groupCount struct {
	FormationID int64
	Group       int
	Size        int
}

// roomPacker assigns rooms to module groups per (day, slot) cell. Groups
// larger than a small room go to amphitheatres, the rest to small rooms;
// groups of the same formation are fused into a shared room while the
// residual capacity stays at or above the configured slack.
type roomPacker struct {
	cfg    config.ExamConfig
	amphis []models.Room
	salles []models.Room
}

// newRoomPacker partitions the room pool by kind. Rooms arrive sorted by
// capacity descending; the order is preserved so the head of each pool is
// always the largest free room.
func newRoomPacker(cfg config.ExamConfig, rooms []models.Room) *roomPacker {
	p := &roomPacker{cfg: cfg}
	for _, r := range rooms {
		switch r.Type {
		case models.RoomAmphi:
			p.amphis = append(p.amphis, r)
		default:
			p.salles = append(p.salles, r)
		}
	}
	return p
}

// packCell assigns rooms to every module scheduled in one (day, slot) cell.
// Each cell draws from private copies of the pools so a room is never
// reused within the cell. Returns the room list per module and the number
// of groups that could not be (fully) placed.
func (p *roomPacker) packCell(moduleIDs []int64, groupsOf func(moduleID int64) []groupCount) (map[int64][]models.RoomAssignment, int) {
	amphis := make([]models.Room, len(p.amphis))
	copy(amphis, p.amphis)
	salles := make([]models.Room, len(p.salles))
	copy(salles, p.salles)

	assignments := make(map[int64][]models.RoomAssignment, len(moduleIDs))
	unplaced := 0

	for _, moduleID := range moduleIDs {
		pending := sortGroups(groupsOf(moduleID))
		var rooms []models.RoomAssignment

		for len(pending) > 0 {
			head := pending[0]
			pending = pending[1:]

			if head.Size > p.cfg.SmallRoomCapacity {
				switch {
				case len(amphis) > 0:
					var room models.Room
					room, amphis = amphis[0], amphis[1:]
					assignment, rest := fillRoom(room, head, pending, p.cfg.FusionSlackAmphi)
					pending = rest
					rooms = append(rooms, assignment)
				case len(salles) > 0:
					// No amphitheatre left: cover the group with as many
					// small rooms as it takes, all carrying the same label.
					needed := head.Size
					label := strconv.Itoa(head.Group)
					for needed > 0 && len(salles) > 0 {
						var room models.Room
						room, salles = salles[0], salles[1:]
						rooms = append(rooms, models.RoomAssignment{
							RoomID:      room.ID,
							RoomType:    room.Type,
							Capacity:    room.Capacity,
							FormationID: head.FormationID,
							Groups:      label,
						})
						needed -= room.Capacity
					}
					if needed > 0 {
						unplaced++
					}
				default:
					unplaced++
				}
			} else {
				switch {
				case len(salles) > 0:
					var room models.Room
					room, salles = salles[0], salles[1:]
					assignment, rest := fillRoom(room, head, pending, p.cfg.FusionSlackSmallRoom)
					pending = rest
					rooms = append(rooms, assignment)
				case len(amphis) > 0:
					var room models.Room
					room, amphis = amphis[0], amphis[1:]
					rooms = append(rooms, models.RoomAssignment{
						RoomID:      room.ID,
						RoomType:    room.Type,
						Capacity:    room.Capacity,
						FormationID: head.FormationID,
						Groups:      strconv.Itoa(head.Group),
					})
				default:
					unplaced++
				}
			}
		}

		assignments[moduleID] = rooms
	}

	return assignments, unplaced
}

// fillRoom seats head in room, then fuses further groups of the same
// formation first-fit while the residual capacity stays at or above slack.
func fillRoom(room models.Room, head groupCount, pending []groupCount, slack int) (models.RoomAssignment, []groupCount) {
	remaining := room.Capacity - head.Size
	groups := []int{head.Group}

	i := 0
	for i < len(pending) && remaining >= slack {
		candidate := pending[i]
		if candidate.FormationID == head.FormationID && candidate.Size <= remaining {
			groups = append(groups, candidate.Group)
			remaining -= candidate.Size
			pending = append(pending[:i], pending[i+1:]...)
		} else {
			i++
		}
	}

	return models.RoomAssignment{
		RoomID:      room.ID,
		RoomType:    room.Type,
		Capacity:    room.Capacity,
		FormationID: head.FormationID,
		Groups:      joinGroups(groups),
	}, pending
}

// sortGroups orders groups largest first; equal sizes order by formation
// then group number so packing is reproducible.
func sortGroups(groups []groupCount) []groupCount {
	sorted := make([]groupCount, len(groups))
	copy(sorted, groups)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Size != sorted[j].Size {
			return sorted[i].Size > sorted[j].Size
		}
		if sorted[i].FormationID != sorted[j].FormationID {
			return sorted[i].FormationID < sorted[j].FormationID
		}
		return sorted[i].Group < sorted[j].Group
	})
	return sorted
}

// joinGroups renders the comma-joined ascending group label, e.g. "1,3".
func joinGroups(groups []int) string {
	sort.Ints(groups)
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = strconv.Itoa(g)
	}
	return strings.Join(parts, ",")
}
