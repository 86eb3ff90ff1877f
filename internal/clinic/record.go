// Package clinic holds the clinic record model: the single document that carries
// a practitioner's branding, patients, appointments, payments, goal and cached
// dashboard statistics.
package clinic

// AppointmentStatus is the lifecycle state shown on the agenda.
type AppointmentStatus string

const (
	StatusConfirmed AppointmentStatus = "Confirmé"
	StatusPending   AppointmentStatus = "En attente"
	StatusCancelled AppointmentStatus = "Annulé"
)

// PaymentMethod is how a payment was settled.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "Espèces"
	MethodCard     PaymentMethod = "Carte"
	MethodCheque   PaymentMethod = "Chèque"
	MethodTransfer PaymentMethod = "Virement"
)

// TrendDirection qualifies a KPI trend.
type TrendDirection string

const (
	TrendUp      TrendDirection = "up"
	TrendDown    TrendDirection = "down"
	TrendNeutral TrendDirection = "neutral"
)

// Branding holds identity and display attributes of the clinic.
type Branding struct {
	ClinicName     string  `json:"clinicName"`
	Category       string  `json:"category"`
	Specialty      string  `json:"specialty"`
	PrimaryColor   string  `json:"primaryColor"`
	SecondaryColor string  `json:"secondaryColor"`
	Logo           *string `json:"logo"`
}

type Patient struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Phone     string `json:"phone"`
	LastVisit string `json:"lastVisit"`
	Condition string `json:"condition"`
}

// Appointment references its patient by a free-text name copy, not by id.
type Appointment struct {
	ID          string            `json:"id"`
	PatientName string            `json:"patientName"`
	Date        string            `json:"date"`
	Time        string            `json:"time"`
	Type        string            `json:"type"`
	Status      AppointmentStatus `json:"status"`
}

type Payment struct {
	ID          string        `json:"id"`
	Amount      float64       `json:"amount"`
	Date        string        `json:"date"`
	PatientName string        `json:"patientName"`
	Method      PaymentMethod `json:"method"`
	Note        string        `json:"note,omitempty"`
}

type KPI struct {
	Label          string         `json:"label"`
	Value          string         `json:"value"`
	Trend          string         `json:"trend"`
	TrendDirection TrendDirection `json:"trendDirection"`
}

type ChartPoint struct {
	Name   string   `json:"name"`
	Value  float64  `json:"value"`
	Value2 *float64 `json:"value2,omitempty"`
}

// DashboardStats is derived once at bootstrap and only replaced wholesale.
type DashboardStats struct {
	KPIs            []KPI        `json:"kpis"`
	Monthly         []ChartPoint `json:"monthly"`
	Distribution    []ChartPoint `json:"distribution"`
	Recommendations []string     `json:"recommendations"`
}

// Record is the persisted document. It is always written as a whole.
type Record struct {
	IsSetup        bool           `json:"isSetup"`
	Branding       Branding       `json:"branding"`
	Patients       []Patient      `json:"patients"`
	Appointments   []Appointment  `json:"appointments"`
	Payments       []Payment      `json:"payments"`
	MonthlyGoal    float64        `json:"monthlyGoal"`
	DashboardStats DashboardStats `json:"dashboardStats"`
}

// Normalize replaces nil slices with empty ones so the document always
// serializes lists as [] rather than null.
func (r *Record) Normalize() {
	if r.Patients == nil {
		r.Patients = []Patient{}
	}
	if r.Appointments == nil {
		r.Appointments = []Appointment{}
	}
	if r.Payments == nil {
		r.Payments = []Payment{}
	}
	if r.DashboardStats.KPIs == nil {
		r.DashboardStats.KPIs = []KPI{}
	}
	if r.DashboardStats.Monthly == nil {
		r.DashboardStats.Monthly = []ChartPoint{}
	}
	if r.DashboardStats.Distribution == nil {
		r.DashboardStats.Distribution = []ChartPoint{}
	}
	if r.DashboardStats.Recommendations == nil {
		r.DashboardStats.Recommendations = []string{}
	}
}

// Clone returns a copy that shares no slices with r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Patients = append([]Patient(nil), r.Patients...)
	out.Appointments = append([]Appointment(nil), r.Appointments...)
	out.Payments = append([]Payment(nil), r.Payments...)
	out.DashboardStats = r.DashboardStats.Clone()
	if r.Branding.Logo != nil {
		logo := *r.Branding.Logo
		out.Branding.Logo = &logo
	}
	out.Normalize()
	return &out
}

func (s DashboardStats) Clone() DashboardStats {
	return DashboardStats{
		KPIs:            append([]KPI(nil), s.KPIs...),
		Monthly:         append([]ChartPoint(nil), s.Monthly...),
		Distribution:    append([]ChartPoint(nil), s.Distribution...),
		Recommendations: append([]string(nil), s.Recommendations...),
	}
}

// Valid reports whether s is one of the agenda statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// Valid reports whether m is an accepted payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodCheque, MethodTransfer:
		return true
	}
	return false
}

func (d TrendDirection) Valid() bool {
	switch d {
	case TrendUp, TrendDown, TrendNeutral:
		return true
	}
	return false
}
