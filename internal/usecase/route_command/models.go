package route_command

import (
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
)

// Channel источник команды
type Channel string

const (
	ChannelStaff   Channel = "staff"   // Форма администратора
	ChannelMessage Channel = "message" // Входящее сообщение пациента
)

// Outcome результат обработки команды
type Outcome string

const (
	OutcomeBooked         Outcome = "booked"
	OutcomeNoAvailability Outcome = "no_availability"
	OutcomeRescheduled    Outcome = "rescheduled"
	OutcomeCancelled      Outcome = "cancelled"
	OutcomeListed         Outcome = "listed"
)

// Command структурированная команда.
// Today задает текущую дату клиники и используется как дата по умолчанию для запросов.
type Command struct {
	Intent  domain.Intent
	Today   time.Time
	Channel Channel
}

// Result результат команды
type Result struct {
	Intent       domain.IntentKind
	Outcome      Outcome
	Date         time.Time
	StartAt      time.Time
	Service      *domain.Service
	Professional *domain.Professional
	Appointment  *domain.Appointment   // Созданная, перенесенная или отмененная запись
	Appointments []*domain.Appointment // Для OutcomeListed
}
