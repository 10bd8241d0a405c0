package model

import (
	"fmt"
	"strings"
	"unicode"
)

// Schedule maps a block to the bitmask of days occupied in that block
type Schedule map[string]uint64

// Checks whether the section shares at least one day with the sections already scheduled in its block
func (schedule Schedule) Conflicts(section Section) bool {
	return schedule[section.Block]&section.Days != 0
}

// Toggle adds the section's days to its block if absent and removes them otherwise.
// Sections held by a student never overlap, so XOR accumulation is equivalent to OR.
func (schedule Schedule) Toggle(section Section) {
	schedule[section.Block] ^= section.Days
	if schedule[section.Block] == 0 {
		delete(schedule, section.Block)
	}
}

func (schedule Schedule) Clone() Schedule {
	clone := make(Schedule, len(schedule))
	for block, days := range schedule {
		clone[block] = days
	}
	return clone
}

func (schedule Schedule) Equal(other Schedule) bool {
	if len(schedule) != len(other) {
		return false
	}
	for block, days := range schedule {
		if other[block] != days {
			return false
		}
	}
	return true
}

// ScheduleOf builds the schedule of the given sections. The second value is false if two sections conflict
func ScheduleOf(sections []Section) (Schedule, bool) {
	schedule := make(Schedule, len(sections))
	for _, section := range sections {
		if schedule.Conflicts(section) {
			return schedule, false
		}
		schedule[section.Block] |= section.Days
	}
	return schedule, true
}

// ParsePattern splits a catalogue pattern such as "A13" or "G124L" into its block and day bitmask.
// Day d sets bit 1<<d; a trailing lab marker "L" carries no day information and is ignored.
func ParsePattern(pattern string) (block string, days uint64, err error) {
	pattern = strings.TrimSpace(pattern)
	if len(pattern) < 2 || !unicode.IsLetter(rune(pattern[0])) {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	block = strings.ToUpper(pattern[:1])
	for _, char := range pattern[1:] {
		if char == 'L' || char == 'l' {
			continue
		} else if char < '0' || char > '9' {
			return "", 0, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
		days |= 1 << uint64(char-'0')
	}

	if days == 0 {
		return "", 0, fmt.Errorf("%w: %q has no days", ErrInvalidPattern, pattern)
	}
	return block, days, nil
}
