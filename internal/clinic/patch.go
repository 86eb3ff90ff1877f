package clinic

// Patch carries one optional value per top-level record attribute. Apply
// replaces each non-nil field wholesale; nested values such as Branding are
// never merged field by field.
type Patch struct {
	IsSetup        *bool
	Branding       *Branding
	Patients       *[]Patient
	Appointments   *[]Appointment
	Payments       *[]Payment
	MonthlyGoal    *float64
	DashboardStats *DashboardStats
}

// Apply returns a copy of r with the patch merged in. r is not modified.
func (r *Record) Apply(p Patch) *Record {
	out := r.Clone()
	if out == nil {
		out = &Record{}
	}
	if p.IsSetup != nil {
		out.IsSetup = *p.IsSetup
	}
	if p.Branding != nil {
		out.Branding = *p.Branding
	}
	if p.Patients != nil {
		out.Patients = append([]Patient(nil), (*p.Patients)...)
	}
	if p.Appointments != nil {
		out.Appointments = append([]Appointment(nil), (*p.Appointments)...)
	}
	if p.Payments != nil {
		out.Payments = append([]Payment(nil), (*p.Payments)...)
	}
	if p.MonthlyGoal != nil {
		out.MonthlyGoal = *p.MonthlyGoal
	}
	if p.DashboardStats != nil {
		out.DashboardStats = p.DashboardStats.Clone()
	}
	out.Normalize()
	return out
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	return p.IsSetup == nil && p.Branding == nil && p.Patients == nil &&
		p.Appointments == nil && p.Payments == nil && p.MonthlyGoal == nil &&
		p.DashboardStats == nil
}

// Fields lists the attribute names the patch touches, for logs and metrics.
func (p Patch) Fields() []string {
	var fields []string
	if p.IsSetup != nil {
		fields = append(fields, "isSetup")
	}
	if p.Branding != nil {
		fields = append(fields, "branding")
	}
	if p.Patients != nil {
		fields = append(fields, "patients")
	}
	if p.Appointments != nil {
		fields = append(fields, "appointments")
	}
	if p.Payments != nil {
		fields = append(fields, "payments")
	}
	if p.MonthlyGoal != nil {
		fields = append(fields, "monthlyGoal")
	}
	if p.DashboardStats != nil {
		fields = append(fields, "dashboardStats")
	}
	return fields
}
