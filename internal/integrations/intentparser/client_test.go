package intentparser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/logger"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

var clinic = time.FixedZone("clinic", 3*60*60)

type fakeModel struct {
	prompt string
	resp   *genai.GenerateContentResponse
	err    error
}

func (f *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	for _, p := range parts {
		if text, ok := p.(genai.Text); ok {
			f.prompt += string(text)
		}
	}
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}}},
		},
	}
}

func newTestClient(model *fakeModel) *Client {
	return &Client{model: model, timeout: time.Second, log: logger.NewNop()}
}

func TestClient_Parse(t *testing.T) {
	model := &fakeModel{resp: textResponse(`{
		"intent": "schedule",
		"patientName": "Иванов Иван",
		"service": "педикюр",
		"professionalName": "",
		"date": "2024-06-11",
		"time": "12:00",
		"newDate": "",
		"newTime": ""
	}`)}
	today := time.Date(2024, 6, 10, 0, 0, 0, 0, clinic)

	intent, err := newTestClient(model).Parse(context.Background(), "Запишите Иванова Ивана на педикюр завтра в 12", today)
	require.NoError(t, err)

	assert.Equal(t, domain.IntentSchedule, intent.Kind)
	assert.Equal(t, "Иванов Иван", intent.PatientName)
	assert.Equal(t, "педикюр", intent.Service)
	require.NotNil(t, intent.Date)
	assert.Equal(t, time.Date(2024, 6, 11, 0, 0, 0, 0, clinic), *intent.Date)
	require.NotNil(t, intent.Time)
	assert.Equal(t, types.TimeString("12:00"), *intent.Time)
	assert.Nil(t, intent.NewDate)
	assert.Nil(t, intent.NewTime)

	assert.True(t, strings.Contains(model.prompt, "2024-06-10, понедельник"))
}

func TestClient_Parse_Errors(t *testing.T) {
	today := time.Date(2024, 6, 10, 0, 0, 0, 0, clinic)

	_, err := newTestClient(&fakeModel{}).Parse(context.Background(), "   ", today)
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = newTestClient(&fakeModel{err: errors.New("quota exceeded")}).Parse(context.Background(), "привет", today)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = newTestClient(&fakeModel{resp: &genai.GenerateContentResponse{}}).Parse(context.Background(), "привет", today)
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = newTestClient(&fakeModel{resp: textResponse("не JSON")}).Parse(context.Background(), "привет", today)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestDecodeIntent(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, intent domain.Intent)
	}{
		{
			name: "reschedule in code fence",
			raw:  "```json\n{\"intent\":\"RESCHEDULE\",\"patientName\":\" Петрова \",\"date\":\"2024-06-11\",\"newDate\":\"2024-06-13\",\"newTime\":\"14:30:00\"}\n```",
			check: func(t *testing.T, intent domain.Intent) {
				assert.Equal(t, domain.IntentReschedule, intent.Kind)
				assert.Equal(t, "Петрова", intent.PatientName)
				require.NotNil(t, intent.NewDate)
				assert.Equal(t, time.Date(2024, 6, 13, 0, 0, 0, 0, clinic), *intent.NewDate)
				require.NotNil(t, intent.NewTime)
				assert.Equal(t, types.TimeString("14:30"), *intent.NewTime)
			},
		},
		{
			name: "unsupported intent",
			raw:  `{"intent":"book_massage"}`,
			check: func(t *testing.T, intent domain.Intent) {
				assert.Equal(t, domain.IntentUnknown, intent.Kind)
			},
		},
		{
			name: "malformed date and time are dropped",
			raw:  `{"intent":"cancel","patientName":"Сидоров","date":"11.06.2024","time":"noon"}`,
			check: func(t *testing.T, intent domain.Intent) {
				assert.Equal(t, domain.IntentCancel, intent.Kind)
				assert.Nil(t, intent.Date)
				assert.Nil(t, intent.Time)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := decodeIntent(tt.raw, clinic)
			require.NoError(t, err)
			tt.check(t, intent)
		})
	}
}
