package analysis

import (
	"fmt"

	"github.com/linkstream/linkstream/internal/models"
)

// Insights maps aggregate statistics to an ordered list of human-readable
// observations. The output is deterministic: each category picks at most
// one sentence by first match on strict threshold comparisons, and
// zero-valued fields contribute nothing.
func Insights(stats models.ExportStats) []string {
	var out []string

	switch {
	case stats.Connections > 5000:
		out = append(out, fmt.Sprintf("With %d connections, your network is in the top 5%% of LinkedIn users.", stats.Connections))
	case stats.Connections > 2000:
		out = append(out, fmt.Sprintf("With %d connections, your network is in the top 15%% of LinkedIn users.", stats.Connections))
	case stats.Connections > 1000:
		out = append(out, fmt.Sprintf("With %d connections, your network is larger than most LinkedIn users'.", stats.Connections))
	case stats.Connections > 0:
		out = append(out, fmt.Sprintf("Your network has %d connections. Consistent outreach will grow your reach over time.", stats.Connections))
	}

	switch {
	case stats.Industries > 20:
		out = append(out, fmt.Sprintf("Your network spans %d industries, giving you unusually broad cross-sector reach.", stats.Industries))
	case stats.Industries > 5:
		out = append(out, fmt.Sprintf("Your network spans %d industries.", stats.Industries))
	}

	if stats.TopCompany != "" && stats.Companies > 1 {
		out = append(out, fmt.Sprintf("Across %d companies, %s appears most often in your network.", stats.Companies, stats.TopCompany))
	}

	exec := stats.Seniority.Executive
	if total := stats.Seniority.Total(); total > 0 && exec > 0 {
		pct := exec * 100 / total
		switch {
		case pct > 25:
			out = append(out, fmt.Sprintf("%d%% of your network holds executive roles. You are well positioned for senior-level introductions.", pct))
		case pct > 10:
			out = append(out, fmt.Sprintf("%d%% of your network holds executive roles.", pct))
		}
	}

	switch {
	case stats.Posts > 100:
		out = append(out, fmt.Sprintf("You have shared %d posts. You are a highly active content creator.", stats.Posts))
	case stats.Posts > 20:
		out = append(out, fmt.Sprintf("You have shared %d posts. Regular posting keeps you visible to your network.", stats.Posts))
	}

	if stats.Messages > 500 {
		out = append(out, fmt.Sprintf("With %d messages exchanged, you actively maintain your relationships.", stats.Messages))
	}

	switch {
	case stats.Skills > 30:
		out = append(out, fmt.Sprintf("You list %d skills. Consider trimming to the ones most relevant to your goals.", stats.Skills))
	case stats.Skills > 10:
		out = append(out, fmt.Sprintf("You list %d skills on your profile.", stats.Skills))
	}

	return out
}
