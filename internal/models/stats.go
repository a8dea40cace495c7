package models

// SeniorityMix buckets a user's connections by seniority level.
type SeniorityMix struct {
	Executive  int `json:"executive"`
	Director   int `json:"director"`
	Manager    int `json:"manager"`
	Individual int `json:"individual"`
}

// Total returns the number of classified connections.
func (m SeniorityMix) Total() int {
	return m.Executive + m.Director + m.Manager + m.Individual
}

// ExportStats holds the aggregate counts computed from a LinkedIn export.
// All fields default to zero when the corresponding section is absent.
type ExportStats struct {
	Connections  int          `json:"connections"`
	Industries   int          `json:"industries"`
	Companies    int          `json:"companies"`
	Posts        int          `json:"posts"`
	Messages     int          `json:"messages"`
	Skills       int          `json:"skills"`
	Seniority    SeniorityMix `json:"seniority"`
	TopCompany   string       `json:"top_company,omitempty"`
	TopIndustry  string       `json:"top_industry,omitempty"`
	OldestInvite string       `json:"oldest_invite,omitempty"`
}
