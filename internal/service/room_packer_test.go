package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azsu-rae/asura-edt/internal/models"
)

func staticGroups(groups map[int64][]groupCount) func(int64) []groupCount {
	return func(moduleID int64) []groupCount {
		return groups[moduleID]
	}
}

func TestRoomPackerFusesSameFormationGroupsIntoAmphi(t *testing.T) {
	cfg := testExamConfig()
	// Only an amphitheatre pool: push the larger group onto the amphi path.
	cfg.SmallRoomCapacity = 10
	packer := newRoomPacker(cfg, []models.Room{
		{ID: 1, Name: "Amphi A", Capacity: 60, Type: models.RoomAmphi},
	})

	assignments, unplaced := packer.packCell([]int64{7}, staticGroups(map[int64][]groupCount{
		7: {
			{FormationID: 4, Group: 1, Size: 15},
			{FormationID: 4, Group: 2, Size: 5},
		},
	}))

	require.Zero(t, unplaced)
	rooms := assignments[7]
	require.Len(t, rooms, 1)
	assert.Equal(t, int64(1), rooms[0].RoomID)
	assert.Equal(t, "1,2", rooms[0].Groups)
	assert.Equal(t, int64(4), rooms[0].FormationID)
}

func TestRoomPackerDoesNotFuseAcrossFormations(t *testing.T) {
	cfg := testExamConfig()
	packer := newRoomPacker(cfg, []models.Room{
		{ID: 1, Capacity: 60, Type: models.RoomAmphi},
		{ID: 2, Capacity: 60, Type: models.RoomAmphi},
	})

	assignments, unplaced := packer.packCell([]int64{7}, staticGroups(map[int64][]groupCount{
		7: {
			{FormationID: 4, Group: 1, Size: 30},
			{FormationID: 5, Group: 1, Size: 25},
		},
	}))

	require.Zero(t, unplaced)
	rooms := assignments[7]
	require.Len(t, rooms, 2)
	assert.Equal(t, "1", rooms[0].Groups)
	assert.Equal(t, "1", rooms[1].Groups)
	assert.NotEqual(t, rooms[0].RoomID, rooms[1].RoomID)
}

func TestRoomPackerCoversLargeGroupWithSmallRooms(t *testing.T) {
	// Amphi pool exhausted: a group of 45 spans small rooms whose
	// capacities sum past the group size, all with the same label.
	cfg := testExamConfig()
	packer := newRoomPacker(cfg, []models.Room{
		{ID: 1, Capacity: 20, Type: models.RoomSalleTD},
		{ID: 2, Capacity: 20, Type: models.RoomSalleTD},
		{ID: 3, Capacity: 20, Type: models.RoomSalleTD},
		{ID: 4, Capacity: 20, Type: models.RoomSalleTD},
	})

	assignments, unplaced := packer.packCell([]int64{7}, staticGroups(map[int64][]groupCount{
		7: {{FormationID: 4, Group: 1, Size: 45}},
	}))

	require.Zero(t, unplaced)
	rooms := assignments[7]
	require.Len(t, rooms, 3)
	total := 0
	for _, room := range rooms {
		assert.Equal(t, models.RoomSalleTD, room.RoomType)
		assert.Equal(t, "1", room.Groups)
		total += room.Capacity
	}
	assert.GreaterOrEqual(t, total, 45)
}

func TestRoomPackerFusesSmallGroupsIntoSmallRoom(t *testing.T) {
	cfg := testExamConfig()
	packer := newRoomPacker(cfg, []models.Room{
		{ID: 1, Capacity: 20, Type: models.RoomSalleTD},
	})

	assignments, unplaced := packer.packCell([]int64{7}, staticGroups(map[int64][]groupCount{
		7: {
			{FormationID: 4, Group: 1, Size: 10},
			{FormationID: 4, Group: 2, Size: 5},
		},
	}))

	require.Zero(t, unplaced)
	rooms := assignments[7]
	require.Len(t, rooms, 1)
	assert.Equal(t, "1,2", rooms[0].Groups)
}

func TestRoomPackerSmallGroupFallsBackToAmphi(t *testing.T) {
	cfg := testExamConfig()
	packer := newRoomPacker(cfg, []models.Room{
		{ID: 1, Capacity: 60, Type: models.RoomAmphi},
	})

	assignments, unplaced := packer.packCell([]int64{7}, staticGroups(map[int64][]groupCount{
		7: {{FormationID: 4, Group: 2, Size: 12}},
	}))

	require.Zero(t, unplaced)
	rooms := assignments[7]
	require.Len(t, rooms, 1)
	assert.Equal(t, models.RoomAmphi, rooms[0].RoomType)
	assert.Equal(t, "2", rooms[0].Groups)
}

func TestRoomPackerNeverReusesARoomWithinACell(t *testing.T) {
	cfg := testExamConfig()
	packer := newRoomPacker(cfg, []models.Room{
		{ID: 1, Capacity: 60, Type: models.RoomAmphi},
		{ID: 2, Capacity: 20, Type: models.RoomSalleTD},
		{ID: 3, Capacity: 20, Type: models.RoomSalleTD},
	})

	assignments, _ := packer.packCell([]int64{7, 8}, staticGroups(map[int64][]groupCount{
		7: {{FormationID: 4, Group: 1, Size: 30}},
		8: {
			{FormationID: 5, Group: 1, Size: 15},
			{FormationID: 5, Group: 2, Size: 18},
		},
	}))

	seen := make(map[int64]bool)
	for _, rooms := range assignments {
		for _, room := range rooms {
			assert.Falsef(t, seen[room.RoomID], "room %d reused in cell", room.RoomID)
			seen[room.RoomID] = true
		}
	}
}

func TestRoomPackerCountsUnplacedGroups(t *testing.T) {
	cfg := testExamConfig()
	packer := newRoomPacker(cfg, nil)

	assignments, unplaced := packer.packCell([]int64{7}, staticGroups(map[int64][]groupCount{
		7: {{FormationID: 4, Group: 1, Size: 30}},
	}))

	assert.Empty(t, assignments[7])
	assert.Equal(t, 1, unplaced)
}
