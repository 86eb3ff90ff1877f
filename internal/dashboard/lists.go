package dashboard

import (
	"context"
	"time"

	"github.com/wolfman30/medic-pro/internal/clinic"
)

// listOps binds the generic list helpers to one record attribute.
type listOps[T clinic.Entity] struct {
	kind      string
	get       func(*clinic.Record) []T
	patch     func([]T) clinic.Patch
	normalize func(T, time.Time) (T, error)
}

var patientOps = listOps[clinic.Patient]{
	kind:      "patients",
	get:       func(r *clinic.Record) []clinic.Patient { return r.Patients },
	patch:     func(l []clinic.Patient) clinic.Patch { return clinic.Patch{Patients: &l} },
	normalize: clinic.NormalizePatient,
}

var appointmentOps = listOps[clinic.Appointment]{
	kind:      "appointments",
	get:       func(r *clinic.Record) []clinic.Appointment { return r.Appointments },
	patch:     func(l []clinic.Appointment) clinic.Patch { return clinic.Patch{Appointments: &l} },
	normalize: clinic.NormalizeAppointment,
}

var paymentOps = listOps[clinic.Payment]{
	kind:      "payments",
	get:       func(r *clinic.Record) []clinic.Payment { return r.Payments },
	patch:     func(l []clinic.Payment) clinic.Patch { return clinic.Patch{Payments: &l} },
	normalize: clinic.NormalizePayment,
}

// add prepends item under a fresh id.
func add[T clinic.Entity](ctx context.Context, c *Controller, ops listOps[T], item T) (*clinic.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	item, err = ops.normalize(item, c.deps.Now())
	if err != nil {
		return nil, err
	}
	list := ops.get(rec)
	item = setID(item, clinic.NextFor(c.deps.IDs, list))
	return c.mutateLocked(ctx, ops.kind, ops.patch(clinic.Prepend(list, item)))
}

// update replaces the entry with item's id. An unknown id changes nothing and
// writes nothing.
func update[T clinic.Entity](ctx context.Context, c *Controller, ops listOps[T], item T) (*clinic.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	if !clinic.ContainsID(ops.get(rec), item.EntityID()) {
		return rec.Clone(), nil
	}
	item, err = ops.normalize(item, c.deps.Now())
	if err != nil {
		return nil, err
	}
	list, _ := clinic.ReplaceByID(ops.get(rec), item)
	return c.mutateLocked(ctx, ops.kind, ops.patch(list))
}

// remove drops the entry with id. An unknown id changes nothing and writes
// nothing.
func remove[T clinic.Entity](ctx context.Context, c *Controller, ops listOps[T], id string) (*clinic.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	list, removed := clinic.RemoveByID(ops.get(rec), id)
	if !removed {
		return rec.Clone(), nil
	}
	return c.mutateLocked(ctx, ops.kind, ops.patch(list))
}

func withIDs[T clinic.Entity](ids *clinic.IDGenerator, list []T) []T {
	out := make([]T, 0, len(list))
	for _, item := range list {
		if item.EntityID() == "" || clinic.ContainsID(out, item.EntityID()) {
			item = setID(item, ids.Next(func(id string) bool {
				return clinic.ContainsID(out, id) || clinic.ContainsID(list, id)
			}))
		}
		out = append(out, item)
	}
	return out
}

func setID[T clinic.Entity](item T, id string) T {
	switch v := any(item).(type) {
	case clinic.Patient:
		v.ID = id
		return any(v).(T)
	case clinic.Appointment:
		v.ID = id
		return any(v).(T)
	case clinic.Payment:
		v.ID = id
		return any(v).(T)
	}
	return item
}

// Patients returns the patients whose name contains query, ignoring case.
func (c *Controller) Patients(ctx context.Context, query string) ([]clinic.Patient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return clinic.FilterPatients(rec.Patients, query), nil
}

func (c *Controller) AddPatient(ctx context.Context, p clinic.Patient) (*clinic.Record, error) {
	return add(ctx, c, patientOps, p)
}

func (c *Controller) UpdatePatient(ctx context.Context, p clinic.Patient) (*clinic.Record, error) {
	return update(ctx, c, patientOps, p)
}

func (c *Controller) DeletePatient(ctx context.Context, id string) (*clinic.Record, error) {
	return remove(ctx, c, patientOps, id)
}

func (c *Controller) AddAppointment(ctx context.Context, a clinic.Appointment) (*clinic.Record, error) {
	return add(ctx, c, appointmentOps, a)
}

func (c *Controller) UpdateAppointment(ctx context.Context, a clinic.Appointment) (*clinic.Record, error) {
	return update(ctx, c, appointmentOps, a)
}

func (c *Controller) DeleteAppointment(ctx context.Context, id string) (*clinic.Record, error) {
	return remove(ctx, c, appointmentOps, id)
}

func (c *Controller) AddPayment(ctx context.Context, p clinic.Payment) (*clinic.Record, error) {
	return add(ctx, c, paymentOps, p)
}

func (c *Controller) UpdatePayment(ctx context.Context, p clinic.Payment) (*clinic.Record, error) {
	return update(ctx, c, paymentOps, p)
}

func (c *Controller) DeletePayment(ctx context.Context, id string) (*clinic.Record, error) {
	return remove(ctx, c, paymentOps, id)
}
