package scheduler

import (
	"fmt"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// RoomPacking selects how a roster is spread over the offered rooms.
type RoomPacking uint8

const (
	// PackFewestRooms fills every room to capacity in list order before the next one is
	// opened, so the roster occupies as few rooms as possible.
	PackFewestRooms RoomPacking = iota + 1
	// PackBalanced keeps room loads as even as the capacities allow.
	PackBalanced
)

func (p RoomPacking) String() string {
	switch p {
	case PackFewestRooms:
		return "FEWEST_ROOMS"
	case PackBalanced:
		return "BALANCED"
	}
	return fmt.Sprintf("RoomPacking(%d)", uint8(p))
}

// Group is the part of a roster seated in one room.
type Group struct {
	// Index is the position of Room in the list passed to Partition.
	Index    int
	Room     models.Room
	Students []models.Student
}

// Partition splits roster over rooms without exceeding any capacity. Rooms may repeat in
// the list; every occurrence is a separate group. Students keep roster order and each
// group is a contiguous run of the roster. Rooms left empty are omitted.
func Partition(roster []models.Student, rooms []models.Room, packing RoomPacking) ([]Group, error) {
	total := 0
	for _, room := range rooms {
		if room.Capacity <= 0 {
			return nil, fmt.Errorf("%w: room %s", ErrInvalidCapacity, room.ID)
		}
		total += room.Capacity
	}
	if total < len(roster) {
		return nil, &CapacityExceededError{Required: len(roster), Available: total}
	}

	var counts []int
	switch packing {
	case PackFewestRooms:
		counts = fewestRoomCounts(len(roster), rooms)
	case PackBalanced:
		counts = balancedCounts(len(roster), rooms)
	default:
		return nil, fmt.Errorf("unknown room packing %d", uint8(packing))
	}

	groups := make([]Group, 0, len(rooms))
	offset := 0
	for i, n := range counts {
		if n == 0 {
			continue
		}
		students := make([]models.Student, n)
		copy(students, roster[offset:offset+n])
		groups = append(groups, Group{Index: i, Room: rooms[i], Students: students})
		offset += n
	}
	return groups, nil
}

func fewestRoomCounts(n int, rooms []models.Room) []int {
	counts := make([]int, len(rooms))
	remaining := n
	for i, room := range rooms {
		if remaining == 0 {
			break
		}
		take := room.Capacity
		if take > remaining {
			take = remaining
		}
		counts[i] = take
		remaining -= take
	}
	return counts
}

// balancedCounts hands out seats one at a time to the least loaded room that still has
// space; ties prefer more remaining capacity, then the earlier room.
func balancedCounts(n int, rooms []models.Room) []int {
	counts := make([]int, len(rooms))
	for seat := 0; seat < n; seat++ {
		best := -1
		for i, room := range rooms {
			if counts[i] >= room.Capacity {
				continue
			}
			if best == -1 {
				best = i
				continue
			}
			if counts[i] < counts[best] {
				best = i
				continue
			}
			if counts[i] == counts[best] && room.Capacity-counts[i] > rooms[best].Capacity-counts[best] {
				best = i
			}
		}
		if best == -1 {
			break
		}
		counts[best]++
	}
	return counts
}
