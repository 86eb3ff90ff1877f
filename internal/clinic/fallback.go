package clinic

import "strings"

// FallbackStats is the fixed zero-state dashboard used whenever the AI
// bootstrap cannot produce one.
func FallbackStats() DashboardStats {
	return DashboardStats{
		KPIs: []KPI{
			{Label: "Patients / Jour", Value: "0", Trend: "0%", TrendDirection: TrendNeutral},
			{Label: "RDV Honorés", Value: "0", Trend: "0%", TrendDirection: TrendNeutral},
			{Label: "Liste d'attente", Value: "0", Trend: "0%", TrendDirection: TrendNeutral},
			{Label: "Revenus (Mois)", Value: "0 DA", Trend: "0%", TrendDirection: TrendNeutral},
		},
		Monthly: []ChartPoint{
			{Name: "Jan"}, {Name: "Fév"}, {Name: "Mar"},
			{Name: "Avr"}, {Name: "Mai"}, {Name: "Juin"},
		},
		Distribution: []ChartPoint{
			{Name: "Consultations"}, {Name: "Actes"}, {Name: "Urgences"},
		},
		Recommendations: []string{
			"Configurez votre agenda pour commencer.",
			"Ajoutez votre premier patient.",
			"Définissez vos tarifs de consultation.",
		},
	}
}

// ZeroStats keeps the labels of s and resets every figure, so a new account
// starts from an empty dashboard whatever the model suggested.
func ZeroStats(s DashboardStats) DashboardStats {
	out := s.Clone()
	for i, k := range out.KPIs {
		out.KPIs[i] = KPI{
			Label:          k.Label,
			Value:          zeroKPIValue(k.Label),
			Trend:          "0%",
			TrendDirection: TrendNeutral,
		}
	}
	for i := range out.Monthly {
		out.Monthly[i].Value = 0
		out.Monthly[i].Value2 = nil
	}
	for i := range out.Distribution {
		out.Distribution[i].Value = 0
		out.Distribution[i].Value2 = nil
	}
	return out
}

func zeroKPIValue(label string) string {
	if strings.Contains(strings.ToLower(label), "revenu") {
		return "0 DA"
	}
	return "0"
}
