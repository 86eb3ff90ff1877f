package clinic

import "strings"

// FilterPatients returns the patients whose name contains term, ignoring
// case. An empty term returns every patient. Order is preserved and the
// input is not modified.
func FilterPatients(list []Patient, term string) []Patient {
	needle := strings.ToLower(term)
	out := make([]Patient, 0, len(list))
	for _, p := range list {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}
