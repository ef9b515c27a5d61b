package schedule_appointment

import (
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

// Outcome результат записи
type Outcome string

const (
	OutcomeBooked         Outcome = "booked"
	OutcomeNoAvailability Outcome = "no_availability"
)

// Request модель запроса на запись.
// Услуга задается ID или текстом (поиск по подстроке без учета регистра).
type Request struct {
	PatientName             string           // ФИО пациента
	ServiceID               *int64           // ID услуги (приоритетнее текста)
	ServiceText             string           // Название услуги или его часть
	Date                    time.Time        // Дата приема в часовом поясе клиники
	Time                    types.TimeString // Время начала, например "12:00"
	PreferredProfessionalID *int64           // Предпочтительный специалист (опционально)
	ProfessionalName        string           // Подсказка по имени специалиста (опционально)
	LocationID              *int64           // Кабинет/филиал (опционально)
}

// Proposal результат подбора без записи
type Proposal struct {
	Service      *domain.Service
	Professional *domain.Professional // nil, если свободного специалиста нет
	StartAt      time.Time
	EndAt        time.Time
}

// Available возвращает true, если специалист подобран
func (p *Proposal) Available() bool {
	return p.Professional != nil
}

// Response модель ответа
type Response struct {
	Outcome      Outcome
	Service      *domain.Service
	Professional *domain.Professional // Заполнено при OutcomeBooked
	Appointment  *domain.Appointment  // Заполнено при OutcomeBooked
	StartAt      time.Time
	Attempts     int // Количество попыток подбора
}
