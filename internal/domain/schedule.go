package domain

import (
	"fmt"
	"sort"
	"time"
)

type TimeBoundedValue[T any] struct {
	StartDate time.Time
	EndDate   time.Time
	Value     T
}

func (v TimeBoundedValue[T]) Contains(t time.Time) bool {
	return !t.Before(v.StartDate) && t.Before(v.EndDate)
}

// ClosestPrior returns the last value starting at or before t.
func ClosestPrior[T any](timeline []TimeBoundedValue[T], t time.Time) (TimeBoundedValue[T], bool) {
	var (
		found TimeBoundedValue[T]
		ok    bool
	)
	for _, item := range timeline {
		if item.StartDate.After(t) {
			break
		}
		found = item
		ok = true
	}

	return found, ok
}

func SortTimeline[T any](timeline []TimeBoundedValue[T]) {
	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].StartDate.Before(timeline[j].StartDate)
	})
}

type ScheduleItem[T any] struct {
	StartOffset time.Duration
	Value       T
}

// DailySchedule repeats every day in its time zone.
type DailySchedule[T any] struct {
	Items    []ScheduleItem[T]
	TimeZone *time.Location
}

func NewDailySchedule[T any](loc *time.Location, items ...ScheduleItem[T]) DailySchedule[T] {
	return DailySchedule[T]{Items: items, TimeZone: loc}
}

func (s DailySchedule[T]) Validate() error {
	if len(s.Items) == 0 {
		return fmt.Errorf("schedule has no items")
	}
	if s.Items[0].StartOffset != 0 {
		return fmt.Errorf("first schedule item must start at midnight")
	}
	for i, item := range s.Items {
		if item.StartOffset < 0 || item.StartOffset >= 24*time.Hour {
			return fmt.Errorf("schedule item %d offset %s out of range", i, item.StartOffset)
		}
		if i > 0 && item.StartOffset <= s.Items[i-1].StartOffset {
			return fmt.Errorf("schedule item %d is not after item %d", i, i-1)
		}
	}

	return nil
}

func (s DailySchedule[T]) location() *time.Location {
	if s.TimeZone == nil {
		return time.UTC
	}

	return s.TimeZone
}

// ValueAt returns the scheduled value in effect at t.
func (s DailySchedule[T]) ValueAt(t time.Time) (T, bool) {
	items := s.Between(t, t)
	if len(items) == 0 {
		var zero T
		return zero, false
	}

	return items[0].Value, true
}

// Between expands the schedule into absolute values overlapping [start, end].
// Items are not clipped to the query window.
func (s DailySchedule[T]) Between(start, end time.Time) []TimeBoundedValue[T] {
	if len(s.Items) == 0 || end.Before(start) {
		return nil
	}

	loc := s.location()
	local := start.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	var result []TimeBoundedValue[T]
	for !day.After(end) {
		nextDay := time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, loc)
		for i, item := range s.Items {
			itemStart := day.Add(item.StartOffset)
			itemEnd := nextDay
			if i+1 < len(s.Items) {
				itemEnd = day.Add(s.Items[i+1].StartOffset)
			}
			if !itemEnd.After(start) {
				continue
			}
			if itemStart.After(end) {
				return result
			}
			result = append(result, TimeBoundedValue[T]{StartDate: itemStart, EndDate: itemEnd, Value: item.Value})
		}
		day = nextDay
	}

	return result
}

func (s DailySchedule[T]) clone() DailySchedule[T] {
	items := make([]ScheduleItem[T], len(s.Items))
	copy(items, s.Items)
	return DailySchedule[T]{Items: items, TimeZone: s.TimeZone}
}
