package ai

import (
	"context"
	"sync"
)

type fakeLLM struct {
	mu       sync.Mutex
	text     string
	err      error
	requests []LLMRequest
}

func (f *fakeLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return LLMResponse{}, f.err
	}
	return LLMResponse{Text: f.text}, nil
}

func (f *fakeLLM) last() LLMRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

const cardiologyPayload = `{
  "kpis": [
    {"label": "Consultations / Jour", "value": "12", "trend": "+5%", "trendDirection": "up"},
    {"label": "Revenus (Mois)", "value": "250 000 DA", "trend": "+8%", "trendDirection": "up"},
    {"label": "ECG réalisés", "value": "4", "trend": "-1%", "trendDirection": "down"},
    {"label": "Liste d'attente", "value": "3", "trend": "0%", "trendDirection": "sideways"}
  ],
  "monthlyPatients": [{"name": "Jan", "value": 10}, {"name": "Fév", "value": 12}],
  "revenueDistribution": [{"name": "Consultations", "value": 60}, {"name": "ECG", "value": 40}],
  "recommendations": ["Équipez le cabinet d'un ECG.", "Nouez des liens avec les généralistes.", "Affichez vos tarifs."],
  "recentPatients": [{"id": "p1", "name": "Karim", "age": 54, "phone": "0550", "lastVisit": "01/03/2025", "condition": "HTA"}],
  "upcomingAppointments": []
}`
