// Package analysis turns raw LinkedIn export archives into aggregate
// statistics, deterministic insights, and a processed text document.
package analysis

import (
	"encoding/csv"
	"sort"
	"strings"

	"github.com/linkstream/linkstream/internal/models"
)

// parseCSV parses raw CSV text into header-keyed rows. LinkedIn exports
// occasionally prepend notes before the header line, so parsing skips
// leading rows until one with more than one column appears. Returns nil
// for empty or unparseable input.
func parseCSV(raw string) []map[string]string {
	raw = strings.TrimPrefix(raw, "\ufeff")
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil || len(records) == 0 {
		return nil
	}

	headerIdx := -1
	for i, rec := range records {
		if len(rec) > 1 {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 || headerIdx == len(records)-1 {
		return nil
	}

	header := make([]string, len(records[headerIdx]))
	for i, h := range records[headerIdx] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	rows := make([]map[string]string, 0, len(records)-headerIdx-1)
	for _, rec := range records[headerIdx+1:] {
		row := make(map[string]string, len(header))
		for i, v := range rec {
			if i < len(header) {
				row[header[i]] = strings.TrimSpace(v)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// countRows returns the number of data rows in a CSV section.
func countRows(raw string) int {
	return len(parseCSV(raw))
}

// topValue returns the most frequent non-empty value in the named column
// and the number of distinct non-empty values. Ties break alphabetically
// so the result is stable.
func topValue(rows []map[string]string, column string) (string, int) {
	counts := make(map[string]int)
	for _, row := range rows {
		v := row[column]
		if v == "" {
			continue
		}
		counts[v]++
	}
	if len(counts) == 0 {
		return "", 0
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys[0], len(counts)
}

// seniorityFor buckets a job title into a seniority level.
func seniorityFor(title string) string {
	t := strings.ToLower(title)
	switch {
	case t == "":
		return ""
	case strings.Contains(t, "chief") || strings.Contains(t, "ceo") ||
		strings.Contains(t, "cto") || strings.Contains(t, "cfo") ||
		strings.Contains(t, "coo") || strings.Contains(t, "founder") ||
		strings.Contains(t, "president") || strings.Contains(t, "partner"):
		return "executive"
	case strings.Contains(t, "vp") || strings.Contains(t, "vice president") ||
		strings.Contains(t, "director") || strings.Contains(t, "head of"):
		return "director"
	case strings.Contains(t, "manager") || strings.Contains(t, "lead"):
		return "manager"
	default:
		return "individual"
	}
}

// ComputeStats aggregates the export sections into ExportStats. Every
// section is optional; absent sections leave their counters at zero.
func ComputeStats(sections *Sections) models.ExportStats {
	stats := models.ExportStats{}

	connections := parseCSV(sections.Connections)
	stats.Connections = len(connections)
	stats.TopCompany, stats.Companies = topValue(connections, "company")
	for _, row := range connections {
		switch seniorityFor(row["position"]) {
		case "executive":
			stats.Seniority.Executive++
		case "director":
			stats.Seniority.Director++
		case "manager":
			stats.Seniority.Manager++
		case "individual":
			stats.Seniority.Individual++
		}
	}

	positions := parseCSV(sections.Positions)
	stats.TopIndustry, stats.Industries = topValue(positions, "industry")
	if stats.Industries == 0 {
		// Older exports carry industry on the profile instead.
		profile := parseCSV(sections.Profile)
		stats.TopIndustry, stats.Industries = topValue(profile, "industry")
	}

	stats.Skills = countRows(sections.Skills)
	stats.Posts = countRows(sections.Shares)
	stats.Messages = countRows(sections.Messages)

	invites := parseCSV(sections.Invitations)
	oldest := ""
	for _, row := range invites {
		sent := row["sent at"]
		if sent == "" {
			sent = row["date"]
		}
		if sent != "" && (oldest == "" || sent < oldest) {
			oldest = sent
		}
	}
	stats.OldestInvite = oldest

	return stats
}
