package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linkstream/linkstream/internal/models"
)

func TestInsightsConnectionTiers(t *testing.T) {
	tests := []struct {
		name        string
		connections int
		want        string
	}{
		{"top 5 percent", 5001, "top 5%"},
		{"boundary 5000 drops to next tier", 5000, "top 15%"},
		{"top 15 percent", 2001, "top 15%"},
		{"boundary 2000 drops to next tier", 2000, "larger than most"},
		{"above average", 1001, "larger than most"},
		{"boundary 1000 drops to base tier", 1000, "Consistent outreach"},
		{"small network", 42, "Consistent outreach"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Insights(models.ExportStats{Connections: tt.connections})
			assert.Len(t, got, 1)
			assert.Contains(t, got[0], tt.want)
		})
	}
}

func TestInsightsZeroStatsEmpty(t *testing.T) {
	assert.Empty(t, Insights(models.ExportStats{}))
}

func TestInsightsDeterministic(t *testing.T) {
	stats := models.ExportStats{
		Connections: 3000,
		Industries:  12,
		Companies:   40,
		TopCompany:  "Initech",
		Posts:       55,
		Messages:    900,
		Skills:      18,
		Seniority:   models.SeniorityMix{Executive: 30, Director: 20, Manager: 30, Individual: 120},
	}
	first := Insights(stats)
	second := Insights(stats)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestInsightsOrdering(t *testing.T) {
	stats := models.ExportStats{
		Connections: 6000,
		Industries:  25,
		Posts:       150,
	}
	got := Insights(stats)
	assert.Len(t, got, 3)
	assert.Contains(t, got[0], "top 5%")
	assert.Contains(t, got[1], "industries")
	assert.Contains(t, got[2], "content creator")
}

func TestInsightsExecutiveShare(t *testing.T) {
	got := Insights(models.ExportStats{
		Seniority: models.SeniorityMix{Executive: 30, Individual: 70},
	})
	assert.Len(t, got, 1)
	assert.Contains(t, got[0], "senior-level introductions")

	got = Insights(models.ExportStats{
		Seniority: models.SeniorityMix{Executive: 15, Individual: 85},
	})
	assert.Len(t, got, 1)
	assert.Contains(t, got[0], "executive roles")
	assert.NotContains(t, got[0], "senior-level")
}

func TestInsightsTopCompanyNeedsVariety(t *testing.T) {
	got := Insights(models.ExportStats{TopCompany: "Acme", Companies: 1})
	assert.Empty(t, got)
}
