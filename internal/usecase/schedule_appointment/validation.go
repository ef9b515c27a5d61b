package schedule_appointment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	name := strings.TrimSpace(req.PatientName)
	if name == "" {
		return fmt.Errorf("%w: patientName is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > domain.MaxPatientNameLength {
		return fmt.Errorf("%w: patientName exceeds %d characters", ErrInvalidInput, domain.MaxPatientNameLength)
	}

	if req.ServiceID == nil && strings.TrimSpace(req.ServiceText) == "" {
		return fmt.Errorf("%w: service is required", ErrInvalidInput)
	}
	if req.ServiceID != nil && *req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.ServiceText) > domain.MaxServiceTextLength {
		return fmt.Errorf("%w: service text exceeds %d characters", ErrInvalidInput, domain.MaxServiceTextLength)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.Time.IsZero() {
		return fmt.Errorf("%w: time is required", ErrInvalidInput)
	}
	if err := req.Time.ValidateStart(); err != nil {
		return fmt.Errorf("%w: invalid time format: %v", ErrInvalidInput, err)
	}

	if req.PreferredProfessionalID != nil && *req.PreferredProfessionalID <= 0 {
		return fmt.Errorf("%w: preferredProfessionalID must be positive", ErrInvalidInput)
	}
	if req.LocationID != nil && *req.LocationID <= 0 {
		return fmt.Errorf("%w: locationID must be positive", ErrInvalidInput)
	}

	return nil
}

// matchService находит услугу по ID или по тексту.
// Текст сравнивается как подстрока без учета регистра. Если подходит несколько услуг,
// побеждает точное совпадение названия, иначе услуга с меньшим ID.
func matchService(services []*domain.Service, serviceID *int64, text string) (*domain.Service, error) {
	if serviceID != nil {
		for _, s := range services {
			if s.ID == *serviceID {
				return s, nil
			}
		}
		return nil, ErrServiceNotFound
	}

	needle := strings.ToLower(strings.TrimSpace(text))
	var best *domain.Service
	for _, s := range services {
		name := strings.ToLower(s.Name)
		if !strings.Contains(name, needle) {
			continue
		}
		if name == needle {
			return s, nil
		}
		if best == nil || s.ID < best.ID {
			best = s
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: %q", ErrServiceNotFound, text)
	}
	return best, nil
}

// matchProfessionalByName возвращает ID единственного специалиста, чье имя содержит подсказку.
// Неоднозначная или пустая подсказка игнорируется.
func matchProfessionalByName(candidates []*domain.Professional, hint string) *int64 {
	needle := strings.ToLower(strings.TrimSpace(hint))
	if needle == "" {
		return nil
	}

	var found *domain.Professional
	for _, p := range candidates {
		if !p.IsBookable() || !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		if found != nil {
			return nil
		}
		found = p
	}

	if found == nil {
		return nil
	}
	id := found.ID
	return &id
}
