package inbound_message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/internal/integrations/intentparser"
	routeCommand "github.com/m04kA/SMC-PodologyScheduler/internal/usecase/route_command"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/logger"
)

var clinic = time.FixedZone("clinic", 3*60*60)

type fakeParser struct {
	text   string
	today  time.Time
	intent domain.Intent
	err    error
}

func (f *fakeParser) Parse(_ context.Context, text string, today time.Time) (domain.Intent, error) {
	f.text = text
	f.today = today
	return f.intent, f.err
}

type fakeRouter struct {
	calls  int
	cmd    routeCommand.Command
	result *routeCommand.Result
	err    error
}

func (f *fakeRouter) Route(_ context.Context, cmd routeCommand.Command) (*routeCommand.Result, error) {
	f.calls++
	f.cmd = cmd
	return f.result, f.err
}

func serve(parser *fakeParser, router *fakeRouter, body string) (*httptest.ResponseRecorder, MessageResponse) {
	h := NewHandler(parser, router, clinic, logger.NewNop())
	h.now = func() time.Time { return time.Date(2024, 6, 10, 21, 30, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/api/v1/inbound/messages", strings.NewReader(body)))

	var resp MessageResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestHandler_CancelByPatient(t *testing.T) {
	date := time.Date(2024, 6, 11, 0, 0, 0, 0, clinic)
	start := time.Date(2024, 6, 11, 12, 0, 0, 0, clinic)
	parser := &fakeParser{intent: domain.Intent{Kind: domain.IntentCancel, PatientName: "Иванов", Date: &date}}
	router := &fakeRouter{result: &routeCommand.Result{
		Intent:      domain.IntentCancel,
		Outcome:     routeCommand.OutcomeCancelled,
		StartAt:     start,
		Appointment: &domain.Appointment{ID: 7, StartAt: start, DurationMinutes: 30, Status: domain.StatusCancelledPatient},
	}}

	rec, resp := serve(parser, router, `{"text":"Отмените мою запись на завтра, Иванов","from":"+79990000000"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// 21:30 UTC это уже 11 июня в часовом поясе клиники
	assert.Equal(t, time.Date(2024, 6, 11, 0, 0, 0, 0, clinic), parser.today)
	assert.Equal(t, routeCommand.ChannelMessage, router.cmd.Channel)
	assert.Equal(t, parser.today, router.cmd.Today)

	assert.Equal(t, "Запись на 2024-06-11 в 12:00 отменена.", resp.Reply)
	assert.Equal(t, "cancelled", resp.Outcome)
	require.NotNil(t, resp.Appointment)
	assert.Equal(t, "cancelled_patient", resp.Appointment.Status)
}

func TestHandler_UserErrorsReplyWithOK(t *testing.T) {
	router := &fakeRouter{err: &routeCommand.IncompleteRequestError{
		Intent:  domain.IntentSchedule,
		Missing: []string{"service", "time"},
	}}

	rec, resp := serve(&fakeParser{intent: domain.Intent{Kind: domain.IntentSchedule}}, router, `{"text":"Хочу записаться"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Не хватает данных: услуга, время.", resp.Reply)
	assert.Equal(t, "schedule", resp.Intent)
	assert.Empty(t, resp.Outcome)
}

func TestHandler_ParserUnavailable(t *testing.T) {
	router := &fakeRouter{}
	parser := &fakeParser{err: fmt.Errorf("%w: timeout", intentparser.ErrUnavailable)}

	rec, resp := serve(parser, router, `{"text":"Перенесите запись"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotEmpty(t, resp.Reply)
	assert.Zero(t, router.calls)
}

func TestHandler_InternalError(t *testing.T) {
	router := &fakeRouter{err: errors.New("db down")}
	rec, _ := serve(&fakeParser{intent: domain.Intent{Kind: domain.IntentQuery}}, router, `{"text":"Кто записан сегодня?"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_InvalidBody(t *testing.T) {
	rec, _ := serve(&fakeParser{}, &fakeRouter{}, `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(&fakeParser{}, &fakeRouter{}, `{"text":"`+strings.Repeat("a", 4001)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
