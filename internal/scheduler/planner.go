package scheduler

import (
	"fmt"
	"time"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// DefaultMaxWindows bounds how many windows a plan may examine when no end is given.
const DefaultMaxWindows = 500

// Options is the packing configuration of a generation run.
type Options struct {
	Packing RoomPacking
	Slots   SlotMode
}

// OptionsFromFlags maps the optimizedByRoom and optimizedBySlotExam toggles.
func OptionsFromFlags(optimizedByRoom, optimizedBySlotExam bool) Options {
	opts := Options{Packing: PackBalanced, Slots: SlotsSequential}
	if optimizedByRoom {
		opts.Packing = PackFewestRooms
	}
	if optimizedBySlotExam {
		opts.Slots = SlotsParallel
	}
	return opts
}

// Validate rejects unknown enum values.
func (o Options) Validate() error {
	if o.Packing != PackFewestRooms && o.Packing != PackBalanced {
		return fmt.Errorf("unknown room packing %d", uint8(o.Packing))
	}
	if o.Slots != SlotsParallel && o.Slots != SlotsSequential {
		return fmt.Errorf("unknown slot mode %d", uint8(o.Slots))
	}
	return nil
}

// PlanInput is a read-only snapshot of everything a generation run depends on.
type PlanInput struct {
	Roster  []models.Student
	Rooms   []models.Room
	Window  WindowConfig
	Options Options
	// Bookings holds existing room occupancy keyed by room id.
	Bookings BookingIndex
	// Until, when set, is the latest instant a window may end.
	Until time.Time
	// MaxWindows caps the windows examined; zero means DefaultMaxWindows.
	MaxWindows int
}

// ProposedRoom is one room group of a proposed slot.
type ProposedRoom struct {
	Room     models.Room
	Students []models.Student
}

// ProposedSlot is an unsaved exam slot: one window and the rooms seated in it.
type ProposedSlot struct {
	Window Interval
	Rooms  []ProposedRoom
}

// SkippedRoom records a room left out of a window because it was already booked.
type SkippedRoom struct {
	RoomID   string
	Window   Interval
	Existing Interval
}

// Plan is the outcome of a generation run.
type Plan struct {
	Slots           []ProposedSlot
	Skipped         []SkippedRoom
	WindowsExamined int
}

// BuildPlan lays out windows, collects the rooms free in each until the roster fits and
// partitions the roster over them.
func BuildPlan(in PlanInput) (*Plan, error) {
	if err := in.Options.Validate(); err != nil {
		return nil, err
	}
	seq, err := NewSequencer(in.Window)
	if err != nil {
		return nil, err
	}
	plan := &Plan{}
	if len(in.Roster) == 0 {
		return plan, nil
	}
	if len(in.Rooms) == 0 {
		return nil, &CapacityExceededError{Required: len(in.Roster), Available: 0}
	}
	for _, room := range in.Rooms {
		if room.Capacity <= 0 {
			return nil, fmt.Errorf("%w: room %s", ErrInvalidCapacity, room.ID)
		}
	}
	maxWindows := in.MaxWindows
	if maxWindows <= 0 {
		maxWindows = DefaultMaxWindows
	}
	bookings := in.Bookings
	if bookings == nil {
		bookings = BookingIndex{}
	}

	var (
		seats      []models.Room
		seatWindow []int
		windows    []Interval
		capacity   int
		rotation   int
	)
	for capacity < len(in.Roster) && plan.WindowsExamined < maxWindows {
		window := seq.Next()
		if !in.Until.IsZero() && window.End.After(in.Until) {
			break
		}
		plan.WindowsExamined++

		switch in.Options.Slots {
		case SlotsParallel:
			added := false
			for _, room := range in.Rooms {
				if conflict := bookings.Conflict(ResourceRoom, room.ID, window); conflict != nil {
					plan.Skipped = append(plan.Skipped, SkippedRoom{RoomID: room.ID, Window: window, Existing: conflict.Existing})
					continue
				}
				seats = append(seats, room)
				seatWindow = append(seatWindow, len(windows))
				capacity += room.Capacity
				added = true
			}
			if added {
				windows = append(windows, window)
			}
		case SlotsSequential:
			for tried := 0; tried < len(in.Rooms); tried++ {
				room := in.Rooms[(rotation+tried)%len(in.Rooms)]
				if conflict := bookings.Conflict(ResourceRoom, room.ID, window); conflict != nil {
					plan.Skipped = append(plan.Skipped, SkippedRoom{RoomID: room.ID, Window: window, Existing: conflict.Existing})
					continue
				}
				seats = append(seats, room)
				seatWindow = append(seatWindow, len(windows))
				windows = append(windows, window)
				capacity += room.Capacity
				rotation = (rotation + tried + 1) % len(in.Rooms)
				break
			}
		}
	}
	if capacity < len(in.Roster) {
		return nil, &CapacityExceededError{Required: len(in.Roster), Available: capacity}
	}

	groups, err := Partition(in.Roster, seats, in.Options.Packing)
	if err != nil {
		return nil, err
	}
	byWindow := make(map[int]int, len(windows))
	for _, group := range groups {
		w := seatWindow[group.Index]
		pos, ok := byWindow[w]
		if !ok {
			pos = len(plan.Slots)
			byWindow[w] = pos
			plan.Slots = append(plan.Slots, ProposedSlot{Window: windows[w]})
		}
		plan.Slots[pos].Rooms = append(plan.Slots[pos].Rooms, ProposedRoom{Room: group.Room, Students: group.Students})
	}
	return plan, nil
}
