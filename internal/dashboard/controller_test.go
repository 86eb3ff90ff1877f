package dashboard

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/medic-pro/internal/ai"
	"github.com/wolfman30/medic-pro/internal/audit"
	"github.com/wolfman30/medic-pro/internal/clinic"
	"github.com/wolfman30/medic-pro/internal/store"
)

type stubBootstrapper struct {
	result    *ai.BootstrapResult
	err       error
	specialty string
}

func (s *stubBootstrapper) Generate(_ context.Context, _ string, specialty string) (*ai.BootstrapResult, error) {
	s.specialty = specialty
	return s.result, s.err
}

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Record(_ context.Context, e audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

type failingStore struct {
	*store.MemoryStore
	saveErr error
}

func (f *failingStore) Save(ctx context.Context, key string, rec *clinic.Record) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStore.Save(ctx, key, rec)
}

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func aiResult() *ai.BootstrapResult {
	return &ai.BootstrapResult{
		Stats: clinic.DashboardStats{
			KPIs: []clinic.KPI{
				{Label: "Consultations", Value: "18", Trend: "+4%", TrendDirection: clinic.TrendUp},
				{Label: "Revenus mensuels", Value: "300 000 DA", Trend: "+9%", TrendDirection: clinic.TrendUp},
			},
			Monthly:         []clinic.ChartPoint{{Name: "Jan", Value: 20}},
			Distribution:    []clinic.ChartPoint{{Name: "ECG", Value: 30}},
			Recommendations: []string{"Proposez le holter."},
		},
		Patients:     []clinic.Patient{{Name: "Karim", Age: 54}, {ID: "p2", Name: "Lina", Age: 33}},
		Appointments: []clinic.Appointment{{ID: "a1", PatientName: "Karim", Status: clinic.StatusPending}},
	}
}

func newTestController(t *testing.T, boot Bootstrapper, policy ValuePolicy) (*Controller, *store.MemoryStore, *recordingAudit) {
	t.Helper()
	mem := store.NewMemoryStore()
	rec := &recordingAudit{}
	tick := testNow
	c := NewController(store.AppKey, Deps{
		Store:     mem,
		Bootstrap: boot,
		Audit:     rec,
		Policy:    policy,
		IDs:       clinic.NewIDGeneratorWithClock(func() time.Time { tick = tick.Add(time.Millisecond); return tick }),
		Now:       func() time.Time { return testNow },
	})
	require.NoError(t, c.Init(context.Background()))
	return c, mem, rec
}

func setUp(t *testing.T, c *Controller) *clinic.Record {
	t.Helper()
	rec, err := c.Bootstrap(context.Background(), SetupRequest{ClinicName: "Cabinet Test", Specialty: "Cardiologie"})
	require.NoError(t, err)
	return rec
}

func persisted(t *testing.T, mem *store.MemoryStore) *clinic.Record {
	t.Helper()
	rec, err := mem.Load(context.Background(), store.AppKey)
	require.NoError(t, err)
	return rec
}

func TestBootstrapFallsBackWhenModelFails(t *testing.T) {
	boot := &stubBootstrapper{err: errors.New("api key rejected")}
	c, mem, events := newTestController(t, boot, PolicyZero)

	rec := setUp(t, c)

	assert.True(t, rec.IsSetup)
	assert.Equal(t, "Cabinet Test", rec.Branding.ClinicName)
	assert.Equal(t, "Cardiologie", rec.Branding.Specialty)
	assert.Equal(t, clinic.DefaultCategory, rec.Branding.Category)
	assert.Equal(t, clinic.DefaultPrimaryColor, rec.Branding.PrimaryColor)
	assert.Equal(t, clinic.DefaultSecondaryColor, rec.Branding.SecondaryColor)
	assert.Equal(t, clinic.FallbackStats(), rec.DashboardStats)
	assert.Empty(t, rec.Patients)
	assert.Empty(t, rec.Appointments)
	assert.Empty(t, rec.Payments)
	assert.Zero(t, rec.MonthlyGoal)
	for _, k := range rec.DashboardStats.KPIs {
		assert.Contains(t, []string{"0", "0 DA"}, k.Value)
	}

	assert.Equal(t, rec, persisted(t, mem))
	require.Len(t, events.events, 1)
	assert.Equal(t, audit.ActionSetup, events.events[0].Action)
}

func TestBootstrapWithoutProviderUsesFallback(t *testing.T) {
	c, _, _ := newTestController(t, nil, PolicyZero)
	rec := setUp(t, c)
	assert.Equal(t, clinic.FallbackStats(), rec.DashboardStats)
}

func TestBootstrapZeroPolicy(t *testing.T) {
	boot := &stubBootstrapper{result: aiResult()}
	c, _, _ := newTestController(t, boot, PolicyZero)

	rec := setUp(t, c)
	assert.Equal(t, "Cardiologie", boot.specialty)
	assert.Equal(t, "0", rec.DashboardStats.KPIs[0].Value)
	assert.Equal(t, "0 DA", rec.DashboardStats.KPIs[1].Value)
	assert.Equal(t, clinic.TrendNeutral, rec.DashboardStats.KPIs[1].TrendDirection)
	assert.Zero(t, rec.DashboardStats.Monthly[0].Value)
	assert.Equal(t, []string{"Proposez le holter."}, rec.DashboardStats.Recommendations)
	assert.Empty(t, rec.Patients)
	assert.Empty(t, rec.Appointments)
}

func TestBootstrapKeepPolicyAssignsMissingIDs(t *testing.T) {
	boot := &stubBootstrapper{result: aiResult()}
	c, _, _ := newTestController(t, boot, PolicyKeep)

	rec := setUp(t, c)
	assert.Equal(t, "300 000 DA", rec.DashboardStats.KPIs[1].Value)
	require.Len(t, rec.Patients, 2)
	assert.NotEmpty(t, rec.Patients[0].ID)
	assert.Equal(t, "p2", rec.Patients[1].ID)
	assert.Equal(t, "a1", rec.Appointments[0].ID)
}

func TestBootstrapFinalSpecialtyAndValidation(t *testing.T) {
	boot := &stubBootstrapper{err: errors.New("down")}
	c, _, _ := newTestController(t, boot, PolicyZero)

	_, err := c.Bootstrap(context.Background(), SetupRequest{ClinicName: "  "})
	assert.ErrorIs(t, err, ErrClinicNameMissing)

	rec, err := c.Bootstrap(context.Background(), SetupRequest{ClinicName: "Cabinet", Category: "Dentaire & Soins"})
	require.NoError(t, err)
	assert.Equal(t, "Dentaire & Soins", rec.Branding.Specialty)
	assert.Equal(t, "Dentaire & Soins", boot.specialty)

	_, err = c.Bootstrap(context.Background(), SetupRequest{ClinicName: "Autre"})
	assert.ErrorIs(t, err, ErrAlreadySetup)
}

func TestBootstrapDefaultsToGeneralPractitioner(t *testing.T) {
	c, _, _ := newTestController(t, nil, PolicyZero)
	rec, err := c.Bootstrap(context.Background(), SetupRequest{ClinicName: "Cabinet"})
	require.NoError(t, err)
	assert.Equal(t, clinic.DefaultSpecialty, rec.Branding.Specialty)
}

func TestBootstrapReturnsPersistenceFailure(t *testing.T) {
	fs := &failingStore{MemoryStore: store.NewMemoryStore(), saveErr: errors.New("quota exceeded")}
	c := NewController(store.AppKey, Deps{Store: fs})
	_, err := c.Bootstrap(context.Background(), SetupRequest{ClinicName: "Cabinet"})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestMutateBeforeSetup(t *testing.T) {
	c, _, _ := newTestController(t, nil, PolicyZero)
	goal := 10.0
	_, err := c.Mutate(context.Background(), clinic.Patch{MonthlyGoal: &goal})
	assert.ErrorIs(t, err, ErrNotSetup)

	_, err = c.AddPatient(context.Background(), clinic.Patient{Name: "Amine"})
	assert.ErrorIs(t, err, ErrNotSetup)

	_, ok, err := c.Record(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateGoalPersists(t *testing.T) {
	c, mem, _ := newTestController(t, nil, PolicyZero)
	setUp(t, c)

	_, err := c.UpdateGoal(context.Background(), 500000)
	require.NoError(t, err)
	assert.Equal(t, 500000.0, persisted(t, mem).MonthlyGoal)

	_, err = c.UpdateGoal(context.Background(), -5)
	assert.ErrorIs(t, err, clinic.ErrInvalidGoal)
	_, err = c.UpdateGoal(context.Background(), math.NaN())
	assert.ErrorIs(t, err, clinic.ErrInvalidGoal)
	assert.Equal(t, 500000.0, persisted(t, mem).MonthlyGoal)
}

func TestListOperations(t *testing.T) {
	ctx := context.Background()
	c, mem, _ := newTestController(t, nil, PolicyZero)
	setUp(t, c)

	rec, err := c.AddPatient(ctx, clinic.Patient{Name: "Amine", Age: 40})
	require.NoError(t, err)
	rec, err = c.AddPatient(ctx, clinic.Patient{Name: "Sara", Age: 8})
	require.NoError(t, err)
	require.Len(t, rec.Patients, 2)
	assert.Equal(t, "Sara", rec.Patients[0].Name, "adds prepend")
	assert.NotEqual(t, rec.Patients[0].ID, rec.Patients[1].ID)
	assert.Equal(t, "14/03/2025", rec.Patients[0].LastVisit)

	sara := rec.Patients[0]
	sara.Phone = "0555 12 34 56"
	rec, err = c.UpdatePatient(ctx, sara)
	require.NoError(t, err)
	assert.Equal(t, "0555 12 34 56", rec.Patients[0].Phone)

	before, _ := mem.Raw(store.AppKey)
	rec, err = c.UpdatePatient(ctx, clinic.Patient{ID: "missing", Name: "X"})
	require.NoError(t, err)
	assert.Len(t, rec.Patients, 2)
	rec, err = c.DeletePatient(ctx, "missing")
	require.NoError(t, err)
	assert.Len(t, rec.Patients, 2)
	after, _ := mem.Raw(store.AppKey)
	assert.Equal(t, string(before), string(after), "no-op updates must not write")

	rec, err = c.DeletePatient(ctx, sara.ID)
	require.NoError(t, err)
	require.Len(t, rec.Patients, 1)
	assert.Equal(t, "Amine", rec.Patients[0].Name)

	_, err = c.AddPatient(ctx, clinic.Patient{Name: ""})
	assert.ErrorIs(t, err, clinic.ErrInvalidPatientName)
}

func TestAppointmentsAndPayments(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t, nil, PolicyZero)
	setUp(t, c)

	rec, err := c.AddAppointment(ctx, clinic.Appointment{})
	require.NoError(t, err)
	appt := rec.Appointments[0]
	assert.Equal(t, "Inconnu", appt.PatientName)
	assert.Equal(t, "2025-03-14", appt.Date)
	assert.Equal(t, "09:00", appt.Time)
	assert.Equal(t, clinic.StatusPending, appt.Status)

	appt.Status = clinic.StatusConfirmed
	rec, err = c.UpdateAppointment(ctx, appt)
	require.NoError(t, err)
	assert.Equal(t, clinic.StatusConfirmed, rec.Appointments[0].Status)
	rec, err = c.DeleteAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Empty(t, rec.Appointments)

	_, err = c.UpdateGoal(ctx, 5000)
	require.NoError(t, err)
	for _, amount := range []float64{1000, 2500, 750} {
		_, err := c.AddPayment(ctx, clinic.Payment{Amount: amount, PatientName: "Amine"})
		require.NoError(t, err)
	}
	summary, err := c.Revenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4250.0, summary.Total)
	assert.Equal(t, 85, summary.ProgressCapped)

	_, err = c.AddPayment(ctx, clinic.Payment{Amount: -1, PatientName: "Amine"})
	assert.ErrorIs(t, err, clinic.ErrInvalidAmount)
}

func TestUpdateBrandingReplacesWholeValue(t *testing.T) {
	ctx := context.Background()
	c, mem, _ := newTestController(t, nil, PolicyZero)
	setUp(t, c)

	logo := "data:image/png;base64,AAAA"
	color := "#16a34a"
	rec, err := c.UpdateBranding(ctx, BrandingUpdate{PrimaryColor: &color, Logo: &logo})
	require.NoError(t, err)
	assert.Equal(t, "#16a34a", rec.Branding.PrimaryColor)
	assert.Equal(t, "Cabinet Test", rec.Branding.ClinicName)
	require.NotNil(t, rec.Branding.Logo)
	assert.Equal(t, rec.Branding, persisted(t, mem).Branding)

	rec, err = c.UpdateBranding(ctx, BrandingUpdate{ClearLogo: true})
	require.NoError(t, err)
	assert.Nil(t, rec.Branding.Logo)

	empty := " "
	_, err = c.UpdateBranding(ctx, BrandingUpdate{ClinicName: &empty})
	assert.ErrorIs(t, err, ErrClinicNameMissing)
}

func TestResetRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	c, mem, events := newTestController(t, nil, PolicyZero)
	setUp(t, c)

	assert.ErrorIs(t, c.Reset(ctx, false, "dr@example.com"), ErrResetNotConfirmed)
	assert.NotNil(t, persisted(t, mem))

	require.NoError(t, c.Reset(ctx, true, "dr@example.com"))
	assert.Nil(t, persisted(t, mem))
	_, ok, err := c.Record(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.Len(t, events.events, 2)
	assert.Equal(t, audit.ActionReset, events.events[1].Action)
	assert.Equal(t, "dr@example.com", events.events[1].Actor)
}

func TestMirrorMatchesStorageAfterOperations(t *testing.T) {
	ctx := context.Background()
	c, mem, _ := newTestController(t, &stubBootstrapper{result: aiResult()}, PolicyZero)
	setUp(t, c)

	_, err := c.AddPatient(ctx, clinic.Patient{Name: "Amine", Age: 40})
	require.NoError(t, err)
	_, err = c.AddAppointment(ctx, clinic.Appointment{PatientName: "Amine"})
	require.NoError(t, err)
	_, err = c.AddPayment(ctx, clinic.Payment{Amount: 1500, PatientName: "Amine", Method: clinic.MethodCard})
	require.NoError(t, err)
	name := "Cabinet El Amel"
	_, err = c.UpdateBranding(ctx, BrandingUpdate{ClinicName: &name})
	require.NoError(t, err)
	_, err = c.UpdateGoal(ctx, 200000)
	require.NoError(t, err)

	mirror, ok, err := c.Record(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mirror, persisted(t, mem))
}

func TestFailedWriteKeepsMirror(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{MemoryStore: store.NewMemoryStore()}
	c := NewController(store.AppKey, Deps{Store: fs})
	_, err := c.Bootstrap(ctx, SetupRequest{ClinicName: "Cabinet"})
	require.NoError(t, err)

	fs.saveErr = errors.New("disk full")
	_, err = c.UpdateGoal(ctx, 1000)
	assert.Error(t, err)

	mirror, _, err := c.Record(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, mirror.MonthlyGoal, "mirror is not rolled back")
	stored, err := fs.Load(ctx, store.AppKey)
	require.NoError(t, err)
	assert.Zero(t, stored.MonthlyGoal)
}

func TestCorruptRecordIsTreatedAsAbsent(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.Put(store.AppKey, []byte("{oops"))
	c := NewController(store.AppKey, Deps{Store: mem})
	require.NoError(t, c.Init(context.Background()))

	_, ok, err := c.Record(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Bootstrap(context.Background(), SetupRequest{ClinicName: "Cabinet"})
	require.NoError(t, err)
	rec, err := mem.Load(context.Background(), store.AppKey)
	require.NoError(t, err)
	assert.True(t, rec.IsSetup)
}

func TestStoredRecordWithoutSetupIsAbsent(t *testing.T) {
	for _, doc := range []string{"null", "{}", `{"isSetup":false,"monthlyGoal":100}`} {
		mem := store.NewMemoryStore()
		mem.Put(store.AppKey, []byte(doc))
		c := NewController(store.AppKey, Deps{Store: mem})
		require.NoError(t, c.Init(context.Background()))

		_, ok, err := c.Record(context.Background())
		require.NoError(t, err)
		assert.False(t, ok, doc)

		_, err = c.UpdateGoal(context.Background(), 10)
		assert.ErrorIs(t, err, ErrNotSetup, doc)
	}
}

func TestParseValuePolicy(t *testing.T) {
	assert.Equal(t, PolicyKeep, ParseValuePolicy(" KEEP "))
	assert.Equal(t, PolicyZero, ParseValuePolicy(""))
	assert.Equal(t, PolicyZero, ParseValuePolicy("whatever"))
}
