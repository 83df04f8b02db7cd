package dashboard

import (
	"context"
	"sort"
	"time"
)

// CalendarDay is one slot of a calendar week.
type CalendarDay struct {
	Date       string     `json:"date"`
	Activities []Activity `json:"activities"`
}

// CalendarWeek is a Monday-to-Sunday week with its totals.
type CalendarWeek struct {
	WeekStart     string         `json:"week_start"`
	Days          [7]CalendarDay `json:"days"`
	TotalDistance float64        `json:"total_distance"`
	TotalTime     int64          `json:"total_time"`
}

// weekStart returns midnight of the Monday on or before t.
func weekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// CalendarWeeks groups activities into Monday-start weeks, newest week first.
// Activities without a date are left out.
func CalendarWeeks(activities []Activity) []CalendarWeek {
	byStart := make(map[string]*CalendarWeek)

	for _, a := range activities {
		if a.Date == nil {
			continue
		}
		monday := weekStart(*a.Date)
		key := monday.Format(DateLayout)

		week, ok := byStart[key]
		if !ok {
			week = &CalendarWeek{WeekStart: key}
			for i := range week.Days {
				week.Days[i] = CalendarDay{
					Date:       monday.AddDate(0, 0, i).Format(DateLayout),
					Activities: []Activity{},
				}
			}
			byStart[key] = week
		}

		idx := (int(a.Date.Weekday()) + 6) % 7
		week.Days[idx].Activities = append(week.Days[idx].Activities, a)
		if a.Distance != nil {
			week.TotalDistance += *a.Distance
		}
		if a.MovingTime != nil {
			week.TotalTime += *a.MovingTime
		}
	}

	weeks := make([]CalendarWeek, 0, len(byStart))
	for _, w := range byStart {
		weeks = append(weeks, *w)
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].WeekStart > weeks[j].WeekStart
	})
	return weeks
}

// Calendar lists the activities matching the filter grouped by week.
func (s *Service) Calendar(ctx context.Context, f Filter) ([]CalendarWeek, error) {
	activities, err := s.ListActivities(ctx, f)
	if err != nil {
		return nil, err
	}
	return CalendarWeeks(activities), nil
}
