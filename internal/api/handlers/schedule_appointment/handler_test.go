package schedule_appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	scheduleAppointment "github.com/m04kA/SMC-PodologyScheduler/internal/usecase/schedule_appointment"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/logger"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

var clinic = time.FixedZone("clinic", 3*60*60)

type fakeUseCase struct {
	req  *scheduleAppointment.Request
	resp *scheduleAppointment.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *scheduleAppointment.Request) (*scheduleAppointment.Response, error) {
	f.req = req
	return f.resp, f.err
}

func serve(t *testing.T, uc *fakeUseCase, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(uc, clinic, logger.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandler_Booked(t *testing.T) {
	start := time.Date(2024, 6, 11, 12, 0, 0, 0, clinic)
	uc := &fakeUseCase{resp: &scheduleAppointment.Response{
		Outcome:      scheduleAppointment.OutcomeBooked,
		Service:      &domain.Service{ID: 1, Name: "Pedicure", DurationMinutes: 30},
		Professional: &domain.Professional{ID: 7, Name: "Анна"},
		Appointment:  &domain.Appointment{ID: 42, ProfessionalID: 7, StartAt: start, DurationMinutes: 30, Status: domain.StatusBooked},
		StartAt:      start,
		Attempts:     1,
	}}

	rec := serve(t, uc, `{"patientName":"Иванов Иван","service":"pedicure","date":"2024-06-11","time":"12:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NotNil(t, uc.req)
	assert.Equal(t, time.Date(2024, 6, 11, 0, 0, 0, 0, clinic), uc.req.Date)
	assert.Equal(t, types.TimeString("12:00"), uc.req.Time)

	var resp ScheduleAppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "booked", resp.Outcome)
	require.NotNil(t, resp.Appointment)
	assert.Equal(t, int64(42), resp.Appointment.ID)
	assert.Equal(t, "12:30", resp.Appointment.EndTime)
	assert.Equal(t, "Анна", resp.Appointment.ProfessionalName)
}

func TestHandler_NoAvailability(t *testing.T) {
	uc := &fakeUseCase{resp: &scheduleAppointment.Response{
		Outcome: scheduleAppointment.OutcomeNoAvailability,
		Service: &domain.Service{ID: 1, Name: "Pedicure", DurationMinutes: 30},
		StartAt: time.Date(2024, 6, 11, 12, 45, 0, 0, clinic),
	}}

	rec := serve(t, uc, `{"patientName":"Иванов Иван","service":"pedicure","date":"2024-06-11","time":"12:45"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScheduleAppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "no_availability", resp.Outcome)
	assert.Equal(t, msgNoAvailability, resp.Message)
	assert.Nil(t, resp.Appointment)
}

func TestHandler_Errors(t *testing.T) {
	valid := `{"patientName":"Иванов Иван","service":"pedicure","date":"2024-06-11","time":"12:00"}`

	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"malformed json", `{"patientName":`, nil, http.StatusBadRequest},
		{"unknown field", `{"patientName":"x","date":"2024-06-11","time":"12:00","carId":1}`, nil, http.StatusBadRequest},
		{"bad date", `{"patientName":"x","service":"p","date":"11.06.2024","time":"12:00"}`, nil, http.StatusBadRequest},
		{"bad time", `{"patientName":"x","service":"p","date":"2024-06-11","time":"noon"}`, nil, http.StatusBadRequest},
		{"end of day as start", `{"patientName":"x","service":"p","date":"2024-06-11","time":"24:00"}`, nil, http.StatusBadRequest},
		{"invalid input", valid, scheduleAppointment.ErrInvalidInput, http.StatusBadRequest},
		{"service not found", valid, scheduleAppointment.ErrServiceNotFound, http.StatusNotFound},
		{"conflict", valid, scheduleAppointment.ErrConflictDetected, http.StatusConflict},
		{"internal", valid, scheduleAppointment.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakeUseCase{err: tt.err}, tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
