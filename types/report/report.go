package report

import "fmt"

// FeeRow is one aggregated reporting period.
type FeeRow struct {
	Period        string `json:"period"` // 2006-01-02 daily, 2006-01 monthly
	Bookings      int64  `json:"bookings"`
	GrossVolume   int64  `json:"gross_volume"` // minor units
	PlatformFee   int64  `json:"platform_fee"`
	Tax           int64  `json:"tax"`
	NetToProvider int64  `json:"net_to_provider"`

	// Display ratios; 0 when the denominator is 0, never NaN/Inf.
	FeeRatePercent      float64 `json:"fee_rate_percent"`
	ContributionPercent float64 `json:"contribution_percent"`
}

// KYCRow is one row of the admin KYC overview report.
type KYCRow struct {
	KYCStatus      string  `json:"kyc_status"`
	Providers      int64   `json:"providers"`
	Suspended      int64   `json:"suspended"`
	AvgTrustScore  float64 `json:"avg_trust_score"`
	SharePercent   float64 `json:"share_percent"`
	ChargesEnabled int64   `json:"charges_enabled"`
}

// FeesQuery holds the validated report parameters.
type FeesQuery struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Granularity string `json:"granularity"` // daily | monthly
	Format      string `json:"format"`      // json | csv | html
}

func (q FeesQuery) Validate() error {
	if q.Granularity != "daily" && q.Granularity != "monthly" {
		return fmt.Errorf("granularity must be daily or monthly")
	}
	switch q.Format {
	case "", "json", "csv", "html":
	default:
		return fmt.Errorf("format must be json, csv or html")
	}
	return nil
}
