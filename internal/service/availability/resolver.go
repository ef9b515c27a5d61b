package availability

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

// Rejection причина, по которой специалист не может принять запись
type Rejection string

const (
	Eligible           Rejection = ""
	RejectManager      Rejection = "manager"
	RejectNotWorking   Rejection = "not_working"
	RejectOutsideHours Rejection = "outside_working_hours"
	RejectOverlap      Rejection = "overlapping_appointment"
)

// Input данные для подбора специалиста
type Input struct {
	Service                 *domain.Service
	Date                    time.Time
	Time                    types.TimeString
	Candidates              []*domain.Professional
	Bookings                []*domain.Appointment // Снимок записей на дату
	PreferredProfessionalID *int64
}

// Resolve возвращает первого специалиста, способного принять запись в точное запрошенное время.
//
// Порядок проверки: предпочтительный специалист (если указан), затем остальные по возрастанию ID.
// Предпочтение - мягкая подсказка: если он занят, подбирается другой.
// false означает отсутствие свободного специалиста и не является ошибкой.
// Альтернативное время не предлагается.
func Resolve(in Input) (*domain.Professional, bool) {
	if in.Service == nil || in.Service.DurationMinutes <= 0 {
		return nil, false
	}

	if err := in.Time.ValidateStart(); err != nil {
		return nil, false
	}

	start, err := domain.Combine(in.Date, in.Time)
	if err != nil {
		return nil, false
	}
	end := start.Add(time.Duration(in.Service.DurationMinutes) * time.Minute)

	for _, p := range Order(in.Candidates, in.PreferredProfessionalID) {
		if Check(p, start, end, in.Bookings, 0) == Eligible {
			return p, true
		}
	}

	return nil, false
}

// Order возвращает кандидатов в детерминированном порядке проверки без менеджеров:
// предпочтительный специалист первым, остальные по возрастанию ID.
// Исходный слайс не изменяется.
func Order(candidates []*domain.Professional, preferredID *int64) []*domain.Professional {
	ordered := make([]*domain.Professional, 0, len(candidates))
	for _, p := range candidates {
		if p != nil && p.IsBookable() {
			ordered = append(ordered, p)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if preferredID != nil {
			iPreferred := ordered[i].ID == *preferredID
			jPreferred := ordered[j].ID == *preferredID
			if iPreferred != jPreferred {
				return iPreferred
			}
		}
		return ordered[i].ID < ordered[j].ID
	})

	return ordered
}

// Check проверяет, может ли специалист принять запись на интервал [start, end).
// Записи других специалистов и запись excludeID (переносимая) игнорируются.
func Check(p *domain.Professional, start, end time.Time, bookings []*domain.Appointment, excludeID int64) Rejection {
	if !p.IsBookable() {
		return RejectManager
	}

	workDay := domain.ResolveWorkDay(p, start)
	if !workDay.IsWorking {
		return RejectNotWorking
	}

	workStart, workEnd, err := workDay.Bounds(start)
	if err != nil || !domain.Contains(workStart, workEnd, start, end) {
		return RejectOutsideHours
	}

	if HasConflict(p.ID, start, end, bookings, excludeID) {
		return RejectOverlap
	}

	return Eligible
}

// HasConflict проверяет пересечение интервала с активными записями специалиста
func HasConflict(professionalID int64, start, end time.Time, bookings []*domain.Appointment, excludeID int64) bool {
	for _, b := range bookings {
		if b == nil || b.ProfessionalID != professionalID || !b.IsActive() {
			continue
		}
		if excludeID != 0 && b.ID == excludeID {
			continue
		}
		if domain.Overlaps(start, end, b.StartAt, b.EndAt()) {
			return true
		}
	}
	return false
}
