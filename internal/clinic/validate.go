package clinic

import (
	"errors"
	"math"
	"strings"
	"time"
)

var (
	ErrInvalidPatientName = errors.New("patient name is required")
	ErrInvalidAge         = errors.New("age must not be negative")
	ErrInvalidStatus      = errors.New("appointment status must be Confirmé, En attente or Annulé")
	ErrInvalidAmount      = errors.New("payment amount must be a positive number")
	ErrInvalidMethod      = errors.New("payment method must be Espèces, Carte, Chèque or Virement")
	ErrInvalidGoal        = errors.New("monthly goal must be a non-negative number")
)

const (
	DefaultAppointmentPatient = "Inconnu"
	DefaultAppointmentTime    = "09:00"
	DefaultAppointmentType    = "Consultation"
	dateLayout                = "2006-01-02"
	visitLayout               = "02/01/2006"
)

// Today formats t the way payment and appointment dates are stored.
func Today(t time.Time) string {
	return t.Format(dateLayout)
}

// VisitDate formats t the way the patient list shows the last visit.
func VisitDate(t time.Time) string {
	return t.Format(visitLayout)
}

// NormalizePatient trims free text and checks the required fields.
func NormalizePatient(p Patient, now time.Time) (Patient, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Condition = strings.TrimSpace(p.Condition)
	if p.Name == "" {
		return p, ErrInvalidPatientName
	}
	if p.Age < 0 {
		return p, ErrInvalidAge
	}
	if strings.TrimSpace(p.LastVisit) == "" {
		p.LastVisit = VisitDate(now)
	}
	return p, nil
}

// NormalizeAppointment applies the agenda defaults and checks the status.
func NormalizeAppointment(a Appointment, now time.Time) (Appointment, error) {
	a.PatientName = strings.TrimSpace(a.PatientName)
	if a.PatientName == "" {
		a.PatientName = DefaultAppointmentPatient
	}
	if strings.TrimSpace(a.Date) == "" {
		a.Date = Today(now)
	}
	if strings.TrimSpace(a.Time) == "" {
		a.Time = DefaultAppointmentTime
	}
	if strings.TrimSpace(a.Type) == "" {
		a.Type = DefaultAppointmentType
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	if !a.Status.Valid() {
		return a, ErrInvalidStatus
	}
	return a, nil
}

// NormalizePayment rejects non-positive or non-finite amounts and unknown methods.
func NormalizePayment(p Payment, now time.Time) (Payment, error) {
	p.PatientName = strings.TrimSpace(p.PatientName)
	p.Note = strings.TrimSpace(p.Note)
	if p.PatientName == "" {
		return p, ErrInvalidPatientName
	}
	if !isFinite(p.Amount) || p.Amount <= 0 {
		return p, ErrInvalidAmount
	}
	if p.Method == "" {
		p.Method = MethodCash
	}
	if !p.Method.Valid() {
		return p, ErrInvalidMethod
	}
	if strings.TrimSpace(p.Date) == "" {
		p.Date = Today(now)
	}
	return p, nil
}

// ValidateGoal accepts zero and any positive finite number.
func ValidateGoal(goal float64) error {
	if !isFinite(goal) || goal < 0 {
		return ErrInvalidGoal
	}
	return nil
}

// IsValidationError reports whether err came from input validation.
func IsValidationError(err error) bool {
	for _, target := range []error{ErrInvalidPatientName, ErrInvalidAge, ErrInvalidStatus, ErrInvalidAmount, ErrInvalidMethod, ErrInvalidGoal} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
