package clinic

import "strings"

const (
	DefaultCategory       = "Médecins généralistes"
	DefaultSpecialty      = "Généraliste"
	DefaultPrimaryColor   = "#0f172a"
	DefaultSecondaryColor = "#3b82f6"
)

// Category groups specialties in the setup wizard.
type Category struct {
	Name        string   `json:"name"`
	Specialties []string `json:"specialties"`
}

var medicalHierarchy = []Category{
	{Name: "Médecins généralistes", Specialties: []string{
		"Médecine Générale",
		"Médecine de famille",
		"Urgentiste",
	}},
	{Name: "Spécialistes - Disciplines Médicales", Specialties: []string{
		"Cardiologie",
		"Dermatologie",
		"Pédiatrie",
		"Gériatrie",
		"Psychiatrie",
		"Neurologie",
		"Pneumologie",
		"Gastro-entérologie",
		"Rhumatologie",
		"Endocrinologie",
		"Néphrologie",
		"Oncologie médicale",
	}},
	{Name: "Spécialistes - Disciplines Chirurgicales", Specialties: []string{
		"Chirurgie Générale",
		"Orthopédie et Traumatologie",
		"Neurochirurgie",
		"Chirurgie Cardiaque",
		"Chirurgie Viscérale",
		"Ophtalmologie",
		"ORL (Oto-rhino-laryngologie)",
		"Urologie",
		"Gynécologie-Obstétrique",
		"Chirurgie Plastique",
	}},
	{Name: "Biologie médicale et Imagerie", Specialties: []string{
		"Radiologie & Imagerie",
		"Anatomie et Cytologie Pathologiques",
		"Médecine Nucléaire",
		"Biologie Médicale",
	}},
	{Name: "Médecine du travail / Santé publique", Specialties: []string{
		"Médecine du travail",
		"Santé publique",
		"Épidémiologie",
	}},
	{Name: "Dentaire & Soins", Specialties: []string{
		"Chirurgien-Dentiste",
		"Orthodontie",
	}},
}

// Categories returns a copy of the specialty taxonomy in wizard order.
func Categories() []Category {
	out := make([]Category, len(medicalHierarchy))
	for i, c := range medicalHierarchy {
		out[i] = Category{Name: c.Name, Specialties: append([]string(nil), c.Specialties...)}
	}
	return out
}

// Specialties lists the specialties of a category, or nil for unknown names.
func Specialties(category string) []string {
	for _, c := range medicalHierarchy {
		if c.Name == category {
			return append([]string(nil), c.Specialties...)
		}
	}
	return nil
}

// CategoryOf returns the category that lists specialty.
func CategoryOf(specialty string) (string, bool) {
	for _, c := range medicalHierarchy {
		for _, s := range c.Specialties {
			if strings.EqualFold(s, specialty) {
				return c.Name, true
			}
		}
	}
	return "", false
}

func IsKnownSpecialty(specialty string) bool {
	_, ok := CategoryOf(specialty)
	return ok
}

// FinalSpecialty picks what the assistant and the bootstrap prompt use: the
// chosen specialty, else the category, else the general practitioner label.
func FinalSpecialty(specialty, category string) string {
	if s := strings.TrimSpace(specialty); s != "" {
		return s
	}
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return DefaultSpecialty
}
