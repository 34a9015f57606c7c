package analysis

// Thresholds are the business cut-offs used to classify rows. They are
// configuration, tunable per deployment through the analytics profile.
type Thresholds struct {
	WasteGood    float64 `koanf:"waste_good" json:"waste_good"`
	WasteMonitor float64 `koanf:"waste_monitor" json:"waste_monitor"`
	WasteCaution float64 `koanf:"waste_caution" json:"waste_caution"`

	VolatilityMonitor     float64 `koanf:"volatility_monitor" json:"volatility_monitor"`
	VolatilityInvestigate float64 `koanf:"volatility_investigate" json:"volatility_investigate"`
	VolatilityRemove      float64 `koanf:"volatility_remove" json:"volatility_remove"`
	VolatilityMinSales    float64 `koanf:"volatility_min_sales" json:"volatility_min_sales"`

	AttachmentMinLiquorChecks int     `koanf:"attachment_min_liquor_checks" json:"attachment_min_liquor_checks"`
	LargeDiscount             float64 `koanf:"large_discount" json:"large_discount"`

	TierAverage float64 `koanf:"tier_average" json:"tier_average"`
	TierStrong  float64 `koanf:"tier_strong" json:"tier_strong"`
	TierTop     float64 `koanf:"tier_top" json:"tier_top"`
	TierElite   float64 `koanf:"tier_elite" json:"tier_elite"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		WasteGood:                 10,
		WasteMonitor:              15,
		WasteCaution:              20,
		VolatilityMonitor:         25,
		VolatilityInvestigate:     50,
		VolatilityRemove:          100,
		VolatilityMinSales:        1000,
		AttachmentMinLiquorChecks: 30,
		LargeDiscount:             500,
		TierAverage:               50,
		TierStrong:                100,
		TierTop:                   150,
		TierElite:                 200,
	}
}

// WasteStatus classifies a waste rate with strict lower-than boundaries.
func (t Thresholds) WasteStatus(rate float64) string {
	switch {
	case rate < t.WasteGood:
		return "Good"
	case rate < t.WasteMonitor:
		return "Monitor"
	case rate < t.WasteCaution:
		return "Caution"
	default:
		return "Critical"
	}
}

func (t Thresholds) VolatilityAction(pct float64) string {
	switch {
	case pct > t.VolatilityRemove:
		return "REMOVE"
	case pct > t.VolatilityInvestigate:
		return "Investigate"
	case pct > t.VolatilityMonitor:
		return "Monitor"
	default:
		return "OK"
	}
}

func (t Thresholds) PerformanceTier(score float64) string {
	switch {
	case score >= t.TierElite:
		return "Elite"
	case score >= t.TierTop:
		return "Top Performer"
	case score >= t.TierStrong:
		return "Strong"
	case score >= t.TierAverage:
		return "Average"
	default:
		return "Needs Improvement"
	}
}
