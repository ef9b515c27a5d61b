package get_appointments

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/internal/api/handlers"
	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
)

// ToFilter формирует фильтр из query параметров.
// Без date используется текущая дата клиники.
func ToFilter(query url.Values, today time.Time, loc *time.Location) (domain.AppointmentsFilter, error) {
	date := today
	if s := query.Get("date"); s != "" {
		parsed, err := handlers.ParseDate(s, loc)
		if err != nil {
			return domain.AppointmentsFilter{}, err
		}
		date = parsed
	}

	filter := domain.AppointmentsFilter{Date: &date}

	locationID, err := handlers.ParseOptionalID(query.Get("locationId"))
	if err != nil {
		return domain.AppointmentsFilter{}, fmt.Errorf("invalid locationId: %w", err)
	}
	filter.LocationID = locationID

	professionalID, err := handlers.ParseOptionalID(query.Get("professionalId"))
	if err != nil {
		return domain.AppointmentsFilter{}, fmt.Errorf("invalid professionalId: %w", err)
	}
	filter.ProfessionalID = professionalID

	if patient := strings.TrimSpace(query.Get("patient")); patient != "" {
		filter.PatientName = &patient
	}

	if s := query.Get("includeCancelled"); s != "" {
		includeCancelled, err := strconv.ParseBool(s)
		if err != nil {
			return domain.AppointmentsFilter{}, fmt.Errorf("invalid includeCancelled value: %w", err)
		}
		filter.IncludeInactive = includeCancelled
	}

	return filter, nil
}
