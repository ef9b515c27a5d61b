package intentparser

// intentPayload ответ модели. Все поля необязательные
type intentPayload struct {
	Intent           string `json:"intent"`
	PatientName      string `json:"patientName"`
	Service          string `json:"service"`
	ProfessionalName string `json:"professionalName"`
	Date             string `json:"date"`    // YYYY-MM-DD
	Time             string `json:"time"`    // HH:MM
	NewDate          string `json:"newDate"` // YYYY-MM-DD
	NewTime          string `json:"newTime"` // HH:MM
}
