package get_appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/internal/service/appointments/models"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/logger"
)

var clinic = time.FixedZone("clinic", 3*60*60)

type fakeService struct {
	filter domain.AppointmentsFilter
	list   []*domain.Appointment
	err    error
}

func (f *fakeService) List(_ context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error) {
	f.filter = filter
	return f.list, f.err
}

func newTestHandler(svc *fakeService) *Handler {
	h := NewHandler(svc, clinic, logger.NewNop())
	// 23:30 UTC уже следующий день в часовом поясе клиники
	h.now = func() time.Time { return time.Date(2024, 6, 10, 23, 30, 0, 0, time.UTC) }
	return h
}

func TestHandler_DefaultsToClinicToday(t *testing.T) {
	svc := &fakeService{}
	rec := httptest.NewRecorder()
	newTestHandler(svc).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.filter.Date)
	assert.Equal(t, time.Date(2024, 6, 11, 0, 0, 0, 0, clinic), *svc.filter.Date)
	assert.False(t, svc.filter.IncludeInactive)

	var resp models.AppointmentListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Appointments)
}

func TestHandler_Filters(t *testing.T) {
	svc := &fakeService{list: []*domain.Appointment{
		{ID: 1, StartAt: time.Date(2024, 6, 11, 10, 0, 0, 0, clinic), DurationMinutes: 30, Status: domain.StatusBooked},
	}}
	rec := httptest.NewRecorder()
	newTestHandler(svc).Handle(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/appointments?date=2024-06-11&locationId=2&professionalId=3&patient=%D0%98%D0%B2%D0%B0%D0%BD&includeCancelled=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), *svc.filter.LocationID)
	assert.Equal(t, int64(3), *svc.filter.ProfessionalID)
	assert.Equal(t, "Иван", *svc.filter.PatientName)
	assert.True(t, svc.filter.IncludeInactive)

	var resp models.AppointmentListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, "10:30", resp.Appointments[0].EndTime)
}

func TestHandler_Errors(t *testing.T) {
	for _, target := range []string{
		"/api/v1/appointments?date=tomorrow",
		"/api/v1/appointments?locationId=-1",
		"/api/v1/appointments?includeCancelled=maybe",
	} {
		rec := httptest.NewRecorder()
		newTestHandler(&fakeService{}).Handle(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	rec := httptest.NewRecorder()
	newTestHandler(&fakeService{err: errors.New("db down")}).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
