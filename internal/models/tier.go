package models

// Tier is a subscription level gating feature limits.
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierBusiness   Tier = "business"
	TierEnterprise Tier = "enterprise"
)

// ValidTiers returns all valid subscription tiers.
func ValidTiers() []Tier {
	return []Tier{TierFree, TierPro, TierBusiness, TierEnterprise}
}

// IsValidTier checks if the given string is a known tier.
func IsValidTier(t string) bool {
	for _, v := range ValidTiers() {
		if string(v) == t {
			return true
		}
	}
	return false
}

// UnlimitedBackups is the sentinel limit meaning no monthly cap.
const UnlimitedBackups = -1

// TierLimits describes the entitlements of a subscription tier.
type TierLimits struct {
	Tier           Tier  `json:"tier"`
	MonthlyBackups int   `json:"monthly_backups"` // -1 = unlimited
	RetentionDays  int   `json:"retention_days"`  // 0 = keep forever
	MaxSeats       int   `json:"max_seats"`       // team seats provisioned on upgrade
	MaxUploadBytes int64 `json:"max_upload_bytes"`
}

// tierLimits is the static entitlement table.
var tierLimits = map[Tier]TierLimits{
	TierFree:       {Tier: TierFree, MonthlyBackups: 1, RetentionDays: 30, MaxSeats: 0, MaxUploadBytes: 50 << 20},
	TierPro:        {Tier: TierPro, MonthlyBackups: 4, RetentionDays: 365, MaxSeats: 0, MaxUploadBytes: 200 << 20},
	TierBusiness:   {Tier: TierBusiness, MonthlyBackups: UnlimitedBackups, RetentionDays: 0, MaxSeats: 10, MaxUploadBytes: 500 << 20},
	TierEnterprise: {Tier: TierEnterprise, MonthlyBackups: UnlimitedBackups, RetentionDays: 0, MaxSeats: 50, MaxUploadBytes: 1 << 30},
}

// LimitsForTier returns the entitlements for a tier.
// Unknown tiers fall back to free limits.
func LimitsForTier(t Tier) TierLimits {
	if l, ok := tierLimits[t]; ok {
		return l
	}
	return tierLimits[TierFree]
}
