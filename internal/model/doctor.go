package model

import (
	"fmt"
	"sort"
	"time"
)

type Doctor struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Specialization    string          `json:"specialization"`
	YearsOfExperience int             `json:"yearsOfExperience"`
	ConsultationFee   float64         `json:"consultationFee"`
	Bio               string          `json:"bio"`
	IsAvailable       bool            `json:"isAvailable"`
	Schedule          []ScheduleEntry `json:"schedule"`
}

// ScheduleEntry is one weekly working window. DayOfWeek follows time.Weekday (0 = Sunday).
type ScheduleEntry struct {
	DayOfWeek    int    `json:"dayOfWeek" binding:"min=0,max=6"`
	StartTime    string `json:"startTime" binding:"required,clock"`
	EndTime      string `json:"endTime" binding:"required,clock"`
	SlotDuration int    `json:"slotDuration" binding:"required,min=5,max=240"`
}

// Validate checks the window independent of request binding.
func (e ScheduleEntry) Validate() error {
	if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
		return fmt.Errorf("dayOfWeek %d out of range", e.DayOfWeek)
	}
	start, err := ParseClock(e.StartTime)
	if err != nil {
		return err
	}
	end, err := ParseClock(e.EndTime)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("endTime %s must be after startTime %s", e.EndTime, e.StartTime)
	}
	if e.SlotDuration <= 0 {
		return fmt.Errorf("slotDuration must be positive")
	}
	if time.Duration(e.SlotDuration)*time.Minute > end-start {
		return fmt.Errorf("slotDuration %d exceeds the %s-%s window", e.SlotDuration, e.StartTime, e.EndTime)
	}
	return nil
}

// DefaultSchedule is Monday to Friday 09:00-17:00 split into slotMinutes slots.
func DefaultSchedule(slotMinutes int) []ScheduleEntry {
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	out := make([]ScheduleEntry, 0, 5)
	for d := time.Monday; d <= time.Friday; d++ {
		out = append(out, ScheduleEntry{
			DayOfWeek:    int(d),
			StartTime:    "09:00",
			EndTime:      "17:00",
			SlotDuration: slotMinutes,
		})
	}
	return out
}

// SortSchedule orders entries by weekday then start time.
func SortSchedule(entries []ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DayOfWeek != entries[j].DayOfWeek {
			return entries[i].DayOfWeek < entries[j].DayOfWeek
		}
		return entries[i].StartTime < entries[j].StartTime
	})
}

type DoctorFilters struct {
	Specialization string
	Search         string
	Page           int
	Limit          int
}
