package clinic

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func TestNormalizePatient(t *testing.T) {
	p, err := NormalizePatient(Patient{Name: "  Amine  ", Age: 30}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "Amine", p.Name)
	assert.Equal(t, "14/03/2025", p.LastVisit)

	_, err = NormalizePatient(Patient{Name: " "}, fixedNow)
	assert.ErrorIs(t, err, ErrInvalidPatientName)

	_, err = NormalizePatient(Patient{Name: "x", Age: -1}, fixedNow)
	assert.ErrorIs(t, err, ErrInvalidAge)
}

func TestNormalizeAppointmentDefaults(t *testing.T) {
	a, err := NormalizeAppointment(Appointment{}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, DefaultAppointmentPatient, a.PatientName)
	assert.Equal(t, "2025-03-14", a.Date)
	assert.Equal(t, DefaultAppointmentTime, a.Time)
	assert.Equal(t, DefaultAppointmentType, a.Type)
	assert.Equal(t, StatusPending, a.Status)

	_, err = NormalizeAppointment(Appointment{Status: "Reporté"}, fixedNow)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestNormalizePayment(t *testing.T) {
	tests := []struct {
		name    string
		in      Payment
		wantErr error
	}{
		{"valid", Payment{Amount: 1000, PatientName: "Sara"}, nil},
		{"zero amount", Payment{Amount: 0, PatientName: "Sara"}, ErrInvalidAmount},
		{"negative amount", Payment{Amount: -5, PatientName: "Sara"}, ErrInvalidAmount},
		{"nan amount", Payment{Amount: math.NaN(), PatientName: "Sara"}, ErrInvalidAmount},
		{"missing patient", Payment{Amount: 10}, ErrInvalidPatientName},
		{"bad method", Payment{Amount: 10, PatientName: "Sara", Method: "Bitcoin"}, ErrInvalidMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NormalizePayment(tt.in, fixedNow)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, MethodCash, p.Method)
			assert.Equal(t, "2025-03-14", p.Date)
		})
	}
}

func TestValidateGoal(t *testing.T) {
	assert.NoError(t, ValidateGoal(0))
	assert.NoError(t, ValidateGoal(500000))
	assert.ErrorIs(t, ValidateGoal(-1), ErrInvalidGoal)
	assert.ErrorIs(t, ValidateGoal(math.Inf(1)), ErrInvalidGoal)
	assert.ErrorIs(t, ValidateGoal(math.NaN()), ErrInvalidGoal)
}
