package intentparser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/m04kA/SMC-PodologyScheduler/internal/domain"
	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

// DefaultModel модель по умолчанию
const DefaultModel = "gemini-2.5-flash"

const systemPrompt = `Ты разбираешь сообщения пациентов подологической клиники.
Верни только JSON-объект с полями:
intent: одно из "schedule", "reschedule", "cancel", "query", "unknown";
patientName: ФИО пациента;
service: название услуги как в сообщении;
professionalName: имя специалиста, если пациент его назвал;
date: дата приема в формате YYYY-MM-DD (для переноса и отмены - текущая дата записи);
time: время приема в формате HH:MM;
newDate: новая дата при переносе в формате YYYY-MM-DD;
newTime: новое время при переносе в формате HH:MM.
Поля, которых нет в сообщении, оставь пустыми строками. Ничего не придумывай.`

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client извлекает намерение и сущности из текста через Gemini
type Client struct {
	client  *genai.Client
	model   generator
	timeout time.Duration
	log     Logger
}

// NewClient создает новый экземпляр клиента
func NewClient(ctx context.Context, apiKey, modelID string, timeout time.Duration, log Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrInternal)
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %v", ErrInternal, err)
	}

	model := client.GenerativeModel(modelID)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))

	return &Client{
		client:  client,
		model:   model,
		timeout: timeout,
		log:     log,
	}, nil
}

// Parse извлекает намерение из текста.
// today задает текущую дату клиники; относительные даты ("завтра", "во вторник")
// считаются от нее, а даты ответа интерпретируются в ее часовом поясе.
func (c *Client) Parse(ctx context.Context, text string, today time.Time) (domain.Intent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Intent{}, ErrEmptyText
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf("Сегодня %s, %s.\nСообщение:\n%s",
		today.Format(domain.DateFormat), weekdayNames[today.Weekday()], text)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.log.Error("Parse: gemini request failed: %v", err)
		return domain.Intent{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	raw, err := responseText(resp)
	if err != nil {
		c.log.Warn("Parse: %v", err)
		return domain.Intent{}, err
	}

	intent, err := decodeIntent(raw, today.Location())
	if err != nil {
		c.log.Warn("Parse: failed to decode response %q: %v", raw, err)
		return domain.Intent{}, err
	}

	c.log.Info("Parse: intent=%s, patient=%q, service=%q", intent.Kind, intent.PatientName, intent.Service)
	return intent, nil
}

// Close освобождает ресурсы клиента
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "понедельник",
	time.Tuesday:   "вторник",
	time.Wednesday: "среда",
	time.Thursday:  "четверг",
	time.Friday:    "пятница",
	time.Saturday:  "суббота",
	time.Sunday:    "воскресенье",
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content", ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// decodeIntent разбирает JSON модели.
// Некорректные даты и время отбрасываются: поле считается отсутствующим.
func decodeIntent(raw string, loc *time.Location) (domain.Intent, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var payload intentPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return domain.Intent{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	kind := domain.IntentKind(strings.ToLower(strings.TrimSpace(payload.Intent)))
	if !kind.IsValid() {
		kind = domain.IntentUnknown
	}

	return domain.Intent{
		Kind:             kind,
		PatientName:      strings.TrimSpace(payload.PatientName),
		Service:          strings.TrimSpace(payload.Service),
		ProfessionalName: strings.TrimSpace(payload.ProfessionalName),
		Date:             parseDate(payload.Date, loc),
		Time:             parseTime(payload.Time),
		NewDate:          parseDate(payload.NewDate, loc),
		NewTime:          parseTime(payload.NewTime),
	}, nil
}

func parseDate(s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(domain.DateFormat, s, loc)
	if err != nil {
		return nil
	}
	return &d
}

func parseTime(s string) *types.TimeString {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := types.NewTimeStringFromString(s)
	if err != nil || t.ValidateStart() != nil {
		return nil
	}
	return &t
}
