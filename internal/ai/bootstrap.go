package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/wolfman30/medic-pro/internal/clinic"
	"github.com/wolfman30/medic-pro/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrMissingCredential means no model provider is configured.
	ErrMissingCredential = errors.New("ai: missing model credential")
	ErrEmptyResponse     = errors.New("ai: empty model response")
	ErrInvalidResponse   = errors.New("ai: invalid model response")
)

// BootstrapResult is the starting dashboard proposed by the model. Values are
// returned as generated; zeroing them is the caller's decision.
type BootstrapResult struct {
	Stats        clinic.DashboardStats
	Patients     []clinic.Patient
	Appointments []clinic.Appointment
}

type bootstrapPayload struct {
	KPIs                 []clinic.KPI         `json:"kpis"`
	MonthlyPatients      []clinic.ChartPoint  `json:"monthlyPatients"`
	RevenueDistribution  []clinic.ChartPoint  `json:"revenueDistribution"`
	Recommendations      []string             `json:"recommendations"`
	RecentPatients       []seedPatient        `json:"recentPatients"`
	UpcomingAppointments []clinic.Appointment `json:"upcomingAppointments"`
}

// seedPatient accepts the age as any JSON number; the schema types it NUMBER
// and models sometimes answer 34.0.
type seedPatient struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Age       float64 `json:"age"`
	Phone     string  `json:"phone"`
	LastVisit string  `json:"lastVisit"`
	Condition string  `json:"condition"`
}

func (p seedPatient) patient() clinic.Patient {
	age := 0
	if !math.IsNaN(p.Age) && p.Age > 0 {
		age = int(math.Round(math.Min(p.Age, 150)))
	}
	return clinic.Patient{
		ID:        p.ID,
		Name:      p.Name,
		Age:       age,
		Phone:     p.Phone,
		LastVisit: p.LastVisit,
		Condition: p.Condition,
	}
}

// BootstrapSchema is the response shape requested from the model.
var BootstrapSchema = objectOf(map[string]*Schema{
	"kpis": arrayOf(objectOf(map[string]*Schema{
		"label":          stringField(),
		"value":          stringField(),
		"trend":          stringField(),
		"trendDirection": enumField(string(clinic.TrendUp), string(clinic.TrendDown), string(clinic.TrendNeutral)),
	})),
	"monthlyPatients": arrayOf(objectOf(map[string]*Schema{
		"name":  stringField(),
		"value": numberField(),
	})),
	"revenueDistribution": arrayOf(objectOf(map[string]*Schema{
		"name":  stringField(),
		"value": numberField(),
	})),
	"recommendations": arrayOf(stringField()),
	"recentPatients": arrayOf(objectOf(map[string]*Schema{
		"id":        stringField(),
		"name":      stringField(),
		"age":       numberField(),
		"phone":     stringField(),
		"lastVisit": stringField(),
		"condition": stringField(),
	})),
	"upcomingAppointments": arrayOf(objectOf(map[string]*Schema{
		"id":          stringField(),
		"patientName": stringField(),
		"date":        stringField(),
		"time":        stringField(),
		"type":        stringField(),
		"status":      enumField(string(clinic.StatusConfirmed), string(clinic.StatusPending), string(clinic.StatusCancelled)),
	})),
})

// BootstrapClient asks a model for the initial dashboard of a new clinic.
type BootstrapClient struct {
	llm    LLMClient
	model  string
	logger *logging.Logger
	tracer trace.Tracer
}

// NewBootstrapClient accepts a nil llm; Generate then fails with
// ErrMissingCredential.
func NewBootstrapClient(llm LLMClient, model string, logger *logging.Logger) *BootstrapClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &BootstrapClient{
		llm:    llm,
		model:  model,
		logger: logger,
		tracer: otel.Tracer("medicpro.internal.ai.bootstrap"),
	}
}

// Generate returns a proposed dashboard for clinicName or an error. It never
// substitutes data of its own.
func (c *BootstrapClient) Generate(ctx context.Context, clinicName, specialty string) (*BootstrapResult, error) {
	ctx, span := c.tracer.Start(ctx, "ai.bootstrap")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.specialty", specialty))

	if c.llm == nil {
		span.RecordError(ErrMissingCredential)
		return nil, ErrMissingCredential
	}

	resp, err := c.llm.Complete(ctx, LLMRequest{
		Model:       c.model,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: BootstrapPrompt(clinicName, specialty)}},
		MaxTokens:   2048,
		Temperature: 0.2,
		Schema:      BootstrapSchema,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("ai: bootstrap: %w", err)
	}

	result, err := parseBootstrap(resp.Text)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	c.logger.Debug("bootstrap generated",
		"kpis", len(result.Stats.KPIs),
		"recommendations", len(result.Stats.Recommendations),
		"output_tokens", resp.Usage.OutputTokens,
	)
	return result, nil
}

// BootstrapPrompt builds the generation prompt for a brand new clinic.
func BootstrapPrompt(clinicName, specialty string) string {
	return fmt.Sprintf(`Generate the data structure for a BRAND NEW medical clinic in Algeria named %q specializing in %q.

IMPORTANT: This is a fresh account. ALL DATA MUST BE ZERO or EMPTY.

1. Generate 4 Key Performance Indicators (KPIs) labels suitable for this specialty (e.g., Patients/Jour, Revenus), but strictly set values to "0" or "0 DA".
2. Generate monthly patient evolution chart labels (Jan-Jun) with value 0.
3. Generate revenue distribution chart categories with value 0.
4. Provide 3 tips/recommendations for STARTING this specific medical activity, in French.
5. Return an EMPTY list for recentPatients.
6. Return an EMPTY list for upcomingAppointments.`, clinicName, specialty)
}

func parseBootstrap(text string) (*BootstrapResult, error) {
	text = stripCodeFence(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var payload bootstrapPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(payload.KPIs) == 0 {
		return nil, fmt.Errorf("%w: no kpis", ErrInvalidResponse)
	}
	if len(payload.Recommendations) == 0 {
		return nil, fmt.Errorf("%w: no recommendations", ErrInvalidResponse)
	}
	for i, k := range payload.KPIs {
		if strings.TrimSpace(k.Label) == "" {
			return nil, fmt.Errorf("%w: kpi %d has no label", ErrInvalidResponse, i)
		}
		if !k.TrendDirection.Valid() {
			payload.KPIs[i].TrendDirection = clinic.TrendNeutral
		}
	}

	result := &BootstrapResult{
		Stats: clinic.DashboardStats{
			KPIs:            payload.KPIs,
			Monthly:         payload.MonthlyPatients,
			Distribution:    payload.RevenueDistribution,
			Recommendations: payload.Recommendations,
		},
		Patients:     make([]clinic.Patient, 0, len(payload.RecentPatients)),
		Appointments: payload.UpcomingAppointments,
	}
	for _, p := range payload.RecentPatients {
		result.Patients = append(result.Patients, p.patient())
	}
	if result.Stats.Monthly == nil {
		result.Stats.Monthly = []clinic.ChartPoint{}
	}
	if result.Stats.Distribution == nil {
		result.Stats.Distribution = []clinic.ChartPoint{}
	}
	if result.Appointments == nil {
		result.Appointments = []clinic.Appointment{}
	}
	return result, nil
}

// stripCodeFence removes a markdown fence some providers wrap JSON in.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
