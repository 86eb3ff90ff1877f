// Package dashboard mediates every change to a clinic record: it keeps the
// in-memory copy and writes the whole record back after each change.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/medic-pro/internal/ai"
	"github.com/wolfman30/medic-pro/internal/audit"
	"github.com/wolfman30/medic-pro/internal/clinic"
	"github.com/wolfman30/medic-pro/internal/observability/metrics"
	"github.com/wolfman30/medic-pro/internal/store"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

var (
	ErrNotSetup          = errors.New("dashboard: clinic setup required")
	ErrAlreadySetup      = errors.New("dashboard: clinic already set up")
	ErrClinicNameMissing = errors.New("dashboard: clinic name is required")
	ErrResetNotConfirmed = errors.New("dashboard: reset requires confirmation")
)

// ValuePolicy decides what happens to the figures the model proposes.
type ValuePolicy string

const (
	// PolicyZero keeps labels and recommendations but resets every figure and
	// drops seed lists, so a new account always starts empty.
	PolicyZero ValuePolicy = "zero"
	// PolicyKeep stores the model output as returned.
	PolicyKeep ValuePolicy = "keep"
)

// ParseValuePolicy defaults anything unknown to PolicyZero.
func ParseValuePolicy(s string) ValuePolicy {
	if strings.EqualFold(strings.TrimSpace(s), string(PolicyKeep)) {
		return PolicyKeep
	}
	return PolicyZero
}

// Bootstrapper proposes the starting dashboard of a new clinic.
type Bootstrapper interface {
	Generate(ctx context.Context, clinicName, specialty string) (*ai.BootstrapResult, error)
}

// SetupRequest is what the setup wizard collects.
type SetupRequest struct {
	ClinicName     string  `json:"clinicName"`
	Category       string  `json:"category"`
	Specialty      string  `json:"specialty"`
	PrimaryColor   string  `json:"primaryColor"`
	SecondaryColor string  `json:"secondaryColor"`
	Logo           *string `json:"logo"`
	Actor          string  `json:"-"`
}

// BrandingUpdate carries the branding fields to change. The stored branding
// is still replaced as a whole.
type BrandingUpdate struct {
	ClinicName     *string `json:"clinicName"`
	Category       *string `json:"category"`
	Specialty      *string `json:"specialty"`
	PrimaryColor   *string `json:"primaryColor"`
	SecondaryColor *string `json:"secondaryColor"`
	Logo           *string `json:"logo"`
	ClearLogo      bool    `json:"clearLogo"`
}

// Deps are the collaborators shared by every controller.
type Deps struct {
	Store     store.Adapter
	Bootstrap Bootstrapper
	Audit     audit.Recorder
	Metrics   *metrics.DashboardMetrics
	Logger    *logging.Logger
	Policy    ValuePolicy
	IDs       *clinic.IDGenerator
	Now       func() time.Time
	// RefreshAfter bounds how long a loaded record is trusted before the
	// next operation rereads it. Zero keeps it until eviction.
	RefreshAfter time.Duration
}

// Controller owns one record key. Its operations are serialized. A cached
// record is reread once it is older than Deps.RefreshAfter. Inside that window
// a write from another process can still be overwritten; the last write wins.
type Controller struct {
	mu       sync.Mutex
	key      string
	deps     Deps
	record   *clinic.Record
	loaded   bool
	loadedAt time.Time
}

func NewController(key string, deps Deps) *Controller {
	if deps.Store == nil {
		panic("dashboard: store cannot be nil")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.IDs == nil {
		deps.IDs = clinic.NewIDGenerator()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Policy == "" {
		deps.Policy = PolicyZero
	}
	return &Controller{key: key, deps: deps}
}

func (c *Controller) Key() string { return c.key }

// Init loads the persisted record. A corrupt document is treated as absent.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(ctx)
}

func (c *Controller) loadLocked(ctx context.Context) error {
	rec, err := c.deps.Store.Load(ctx, c.key)
	if errors.Is(err, store.ErrCorruptRecord) {
		c.deps.Logger.Warn("stored record is corrupt, treating as absent", "record_key", c.key, "error", err.Error())
		rec, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("dashboard: load: %w", err)
	}
	c.record = rec
	c.loaded = true
	c.loadedAt = c.deps.Now()
	return nil
}

// ensureLoaded rereads the store when nothing is loaded yet or the loaded
// copy is older than RefreshAfter, so writes from other replicas are picked
// up before the next mutation.
func (c *Controller) ensureLoaded(ctx context.Context) error {
	if c.loaded && (c.deps.RefreshAfter <= 0 || c.deps.Now().Sub(c.loadedAt) < c.deps.RefreshAfter) {
		return nil
	}
	return c.loadLocked(ctx)
}

// Record returns a copy of the current record; false means setup has not run.
func (c *Controller) Record(ctx context.Context) (*clinic.Record, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, false, err
	}
	if c.record == nil {
		return nil, false, nil
	}
	return c.record.Clone(), true, nil
}

// Bootstrap creates the record for a new clinic. Model failures fall back to
// the fixed zero dashboard; only a persistence failure is returned.
func (c *Controller) Bootstrap(ctx context.Context, req SetupRequest) (*clinic.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if c.record != nil && c.record.IsSetup {
		return nil, ErrAlreadySetup
	}
	name := strings.TrimSpace(req.ClinicName)
	if name == "" {
		return nil, ErrClinicNameMissing
	}

	specialty := clinic.FinalSpecialty(req.Specialty, req.Category)
	branding := clinic.Branding{
		ClinicName:     name,
		Category:       defaultString(req.Category, clinic.DefaultCategory),
		Specialty:      specialty,
		PrimaryColor:   defaultString(req.PrimaryColor, clinic.DefaultPrimaryColor),
		SecondaryColor: defaultString(req.SecondaryColor, clinic.DefaultSecondaryColor),
		Logo:           req.Logo,
	}

	rec := &clinic.Record{
		IsSetup:     true,
		Branding:    branding,
		Payments:    []clinic.Payment{},
		MonthlyGoal: 0,
	}

	source := "ai"
	result, err := c.generate(ctx, name, specialty)
	if err != nil {
		source = "fallback"
		c.deps.Logger.Warn("bootstrap fell back to default dashboard",
			"record_key", c.key,
			"specialty", specialty,
			"error", err.Error(),
		)
		rec.DashboardStats = clinic.FallbackStats()
	} else {
		c.applyPolicy(rec, result)
	}
	rec.Normalize()
	c.deps.Metrics.ObserveBootstrap(source)

	c.record = rec
	if err := c.deps.Store.Save(ctx, c.key, rec); err != nil {
		c.deps.Metrics.ObserveMutation("setup", "error")
		return nil, fmt.Errorf("dashboard: save setup: %w", err)
	}
	c.deps.Metrics.ObserveMutation("setup", "ok")
	c.recordAudit(ctx, audit.Event{
		Action:    audit.ActionSetup,
		RecordKey: c.key,
		Actor:     req.Actor,
		Details:   audit.Details(map[string]string{"specialty": specialty, "source": source}),
	})
	return rec.Clone(), nil
}

func (c *Controller) generate(ctx context.Context, name, specialty string) (*ai.BootstrapResult, error) {
	if c.deps.Bootstrap == nil {
		return nil, ai.ErrMissingCredential
	}
	result, err := c.deps.Bootstrap.Generate(ctx, name, specialty)
	if err == nil && result == nil {
		err = ai.ErrEmptyResponse
	}
	return result, err
}

func (c *Controller) applyPolicy(rec *clinic.Record, result *ai.BootstrapResult) {
	if c.deps.Policy == PolicyKeep {
		rec.DashboardStats = result.Stats.Clone()
		rec.Patients = withIDs(c.deps.IDs, result.Patients)
		rec.Appointments = withIDs(c.deps.IDs, result.Appointments)
		return
	}
	rec.DashboardStats = clinic.ZeroStats(result.Stats)
	rec.Patients = []clinic.Patient{}
	rec.Appointments = []clinic.Appointment{}
}

// Mutate merges patch into the record and persists the result. The in-memory
// copy is updated before the write and is not rolled back if it fails.
func (c *Controller) Mutate(ctx context.Context, patch clinic.Patch) (*clinic.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutateLocked(ctx, "patch", patch)
}

func (c *Controller) mutateLocked(ctx context.Context, kind string, patch clinic.Patch) (*clinic.Record, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if c.record == nil {
		return nil, ErrNotSetup
	}

	next := c.record.Apply(patch)
	c.record = next
	if err := c.deps.Store.Save(ctx, c.key, next); err != nil {
		c.deps.Metrics.ObserveMutation(kind, "error")
		c.deps.Logger.Error("record write failed", "record_key", c.key, "fields", patch.Fields(), "error", err.Error())
		return nil, fmt.Errorf("dashboard: save %s: %w", kind, err)
	}
	c.deps.Metrics.ObserveMutation(kind, "ok")
	return next.Clone(), nil
}

// current returns the loaded record or ErrNotSetup. Callers hold c.mu.
func (c *Controller) current(ctx context.Context) (*clinic.Record, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if c.record == nil {
		return nil, ErrNotSetup
	}
	return c.record, nil
}

// UpdateGoal sets the monthly revenue goal.
func (c *Controller) UpdateGoal(ctx context.Context, goal float64) (*clinic.Record, error) {
	if err := clinic.ValidateGoal(goal); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutateLocked(ctx, "goal", clinic.Patch{MonthlyGoal: &goal})
}

// UpdateBranding changes branding fields and writes the whole branding value.
func (c *Controller) UpdateBranding(ctx context.Context, update BrandingUpdate) (*clinic.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	branding := rec.Branding
	if update.ClinicName != nil {
		name := strings.TrimSpace(*update.ClinicName)
		if name == "" {
			return nil, ErrClinicNameMissing
		}
		branding.ClinicName = name
	}
	if update.Category != nil {
		branding.Category = *update.Category
	}
	if update.Specialty != nil {
		branding.Specialty = *update.Specialty
	}
	if update.PrimaryColor != nil {
		branding.PrimaryColor = *update.PrimaryColor
	}
	if update.SecondaryColor != nil {
		branding.SecondaryColor = *update.SecondaryColor
	}
	if update.Logo != nil {
		logo := *update.Logo
		branding.Logo = &logo
	}
	if update.ClearLogo {
		branding.Logo = nil
	}
	return c.mutateLocked(ctx, "branding", clinic.Patch{Branding: &branding})
}

// Reset removes the stored record. It refuses to run unconfirmed.
func (c *Controller) Reset(ctx context.Context, confirmed bool, actor string) error {
	if !confirmed {
		return ErrResetNotConfirmed
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.deps.Store.Clear(ctx, c.key); err != nil {
		c.deps.Metrics.ObserveMutation("reset", "error")
		return fmt.Errorf("dashboard: clear: %w", err)
	}
	c.record = nil
	c.loaded = false
	c.deps.Metrics.ObserveMutation("reset", "ok")
	c.recordAudit(ctx, audit.Event{Action: audit.ActionReset, RecordKey: c.key, Actor: actor})
	return nil
}

// Revenue summarizes payments against the monthly goal.
func (c *Controller) Revenue(ctx context.Context) (clinic.RevenueSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, err := c.current(ctx)
	if err != nil {
		return clinic.RevenueSummary{}, err
	}
	return clinic.Revenue(rec), nil
}

func (c *Controller) recordAudit(ctx context.Context, event audit.Event) {
	if c.deps.Audit == nil {
		return
	}
	if err := c.deps.Audit.Record(ctx, event); err != nil {
		c.deps.Logger.Error("audit write failed", "action", string(event.Action), "record_key", c.key, "error", err.Error())
	}
}

func defaultString(v, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}
