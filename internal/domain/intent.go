package domain

import (
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

// IntentKind is the action requested by a command
type IntentKind string

const (
	IntentSchedule   IntentKind = "schedule"
	IntentReschedule IntentKind = "reschedule"
	IntentCancel     IntentKind = "cancel"
	IntentQuery      IntentKind = "query"
	IntentUnknown    IntentKind = "unknown"
)

// IsValid returns true for the four supported intents
func (k IntentKind) IsValid() bool {
	switch k {
	case IntentSchedule, IntentReschedule, IntentCancel, IntentQuery:
		return true
	}
	return false
}

// Intent is a structured command with extracted entities.
// Every field is optional and untrusted: completeness is checked by the router.
type Intent struct {
	Kind             IntentKind
	PatientName      string
	Service          string
	ProfessionalName string
	Date             *time.Time
	Time             *types.TimeString
	NewDate          *time.Time
	NewTime          *types.TimeString
	LocationID       *int64
}
