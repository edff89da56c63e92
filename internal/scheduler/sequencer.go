package scheduler

import (
	"fmt"
	"time"
)

// ClockTime is a time of day expressed in minutes after midnight.
type ClockTime int

// ParseClockTime parses "HH:MM".
func ParseClockTime(raw string) (ClockTime, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", raw, err)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On returns the instant at time of day c on the calendar day of t.
func (c ClockTime) On(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, int(c), 0, 0, t.Location())
}

// SlotMode selects whether rooms share windows.
type SlotMode uint8

const (
	// SlotsParallel seats every room of a batch in one shared window.
	SlotsParallel SlotMode = iota + 1
	// SlotsSequential gives each room group its own window, one after another.
	SlotsSequential
)

func (m SlotMode) String() string {
	switch m {
	case SlotsParallel:
		return "PARALLEL"
	case SlotsSequential:
		return "SEQUENTIAL"
	}
	return fmt.Sprintf("SlotMode(%d)", uint8(m))
}

// WindowConfig describes how exam windows are laid out.
type WindowConfig struct {
	// Start is the earliest start of the first window; its location is the exam location.
	Start      time.Time
	Duration   time.Duration
	Relaxation time.Duration
	DayStart   ClockTime
	DayEnd     ClockTime
}

// Validate checks that windows can be produced from cfg.
func (cfg WindowConfig) Validate() error {
	if cfg.Start.IsZero() {
		return fmt.Errorf("start is required")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if cfg.Relaxation < 0 {
		return fmt.Errorf("relaxation must not be negative")
	}
	if cfg.DayEnd <= cfg.DayStart {
		return fmt.Errorf("day end %s must be after day start %s", cfg.DayEnd, cfg.DayStart)
	}
	if cfg.Duration > time.Duration(cfg.DayEnd-cfg.DayStart)*time.Minute {
		return ErrWindowTooLong
	}
	return nil
}

// Sequencer yields consecutive non-overlapping windows.
type Sequencer struct {
	cfg    WindowConfig
	cursor time.Time
}

// NewSequencer validates cfg and positions the cursor at cfg.Start.
func NewSequencer(cfg WindowConfig) (*Sequencer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sequencer{cfg: cfg, cursor: cfg.Start}, nil
}

// Next returns the window at the cursor and moves the cursor past it plus relaxation.
// A window that would end after the daily bound moves to the next day's start.
func (s *Sequencer) Next() Interval {
	start := s.cursor
	if dayStart := s.cfg.DayStart.On(start); start.Before(dayStart) {
		start = dayStart
	}
	if start.Add(s.cfg.Duration).After(s.cfg.DayEnd.On(start)) {
		next := time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, start.Location())
		start = s.cfg.DayStart.On(next)
	}
	window := Interval{Start: start, End: start.Add(s.cfg.Duration)}
	s.cursor = window.End.Add(s.cfg.Relaxation)
	return window
}

// Windows returns the first n windows for cfg.
func Windows(cfg WindowConfig, n int) ([]Interval, error) {
	seq, err := NewSequencer(cfg)
	if err != nil {
		return nil, err
	}
	windows := make([]Interval, 0, n)
	for i := 0; i < n; i++ {
		windows = append(windows, seq.Next())
	}
	return windows, nil
}
