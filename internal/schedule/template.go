package schedule

import (
	"sort"
	"time"
)

// DefaultSlotCapacity is the canonical per-hour capacity for template
// hours. Custom sessions carry their own max_slots instead.
const DefaultSlotCapacity = 4

// HourRange is a half-open range of bookable hours [Start, End) with a
// per-hour capacity.
type HourRange struct {
	Start    int `json:"start"`
	End      int `json:"end"`
	Capacity int `json:"capacity"`
}

// WeeklyTemplate maps a weekday to its default bookable hour ranges.
// It is static configuration, not persisted.
type WeeklyTemplate map[time.Weekday][]HourRange

// DefaultTemplate returns the standard tutoring week: weekday
// afternoons with a dinner break, Saturday mornings, Sunday closed.
func DefaultTemplate() WeeklyTemplate {
	weekday := []HourRange{
		{Start: 15, End: 18, Capacity: DefaultSlotCapacity},
		{Start: 19, End: 20, Capacity: DefaultSlotCapacity},
	}
	return WeeklyTemplate{
		time.Monday:    weekday,
		time.Tuesday:   weekday,
		time.Wednesday: weekday,
		time.Thursday:  weekday,
		time.Friday:    weekday,
		time.Saturday:  {{Start: 10, End: 13, Capacity: DefaultSlotCapacity}},
	}
}

// CapacityByHour expands the template entry for a weekday into a
// per-hour capacity map.
func (t WeeklyTemplate) CapacityByHour(day time.Weekday) map[int]int {
	capacity := make(map[int]int)
	for _, r := range t[day] {
		for h := r.Start; h < r.End; h++ {
			capacity[h] += r.Capacity
		}
	}
	return capacity
}

func sortedHours(capacity map[int]int) []int {
	hours := make([]int, 0, len(capacity))
	for h := range capacity {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	return hours
}
