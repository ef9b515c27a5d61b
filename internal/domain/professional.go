package domain

import (
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

// Service is a bookable clinic service (reference data)
type Service struct {
	ID              int64
	Name            string
	DurationMinutes int
}

// Patient is a clinic patient
type Patient struct {
	ID       int64
	FullName string
}

// WeeklyScheduleEntry is the default working window of a professional for one weekday
type WeeklyScheduleEntry struct {
	Weekday   time.Weekday
	IsWorking bool
	Start     types.TimeString
	End       types.TimeString
}

// ScheduleOverride replaces the weekly template for one calendar date
type ScheduleOverride struct {
	Date      time.Time
	IsWorking bool
	Start     types.TimeString
	End       types.TimeString
}

// Professional is a podiatrist (or a manager, who is never auto-assigned)
type Professional struct {
	ID             int64
	Name           string
	LocationID     int64
	IsManager      bool
	WeeklySchedule []WeeklyScheduleEntry
	Overrides      []ScheduleOverride
}

// IsBookable returns true if the professional can receive appointments automatically
func (p *Professional) IsBookable() bool {
	return !p.IsManager
}

// ProfessionalsFilter фильтр для выборки специалистов
type ProfessionalsFilter struct {
	LocationID *int64     // Только специалисты кабинета/филиала (опционально)
	Date       *time.Time // Загружать исключения расписания только на эту дату (опционально)
}
