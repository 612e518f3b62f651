package report

import (
	"context"
	"sort"
	"time"

	bookingModel "marketplace-booking/models/booking"
	providerModel "marketplace-booking/models/provider"
	reportTypes "marketplace-booking/types/report"

	"gorm.io/gorm"
)

// Service computes the admin reporting aggregates. Fee and tax rates are in
// basis points.
type Service struct {
	DB     *gorm.DB
	FeeBps int64
	TaxBps int64
}

func NewService(db *gorm.DB, feeBps, taxBps int) *Service {
	return &Service{DB: db, FeeBps: int64(feeBps), TaxBps: int64(taxBps)}
}

// SafeRate returns num/den, or 0 when the denominator is 0. Report ratios
// must never render as NaN or Inf.
func SafeRate(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// revenueStatuses are the lifecycle states that count toward gross volume.
// Refunded and disputed bookings are excluded.
var revenueStatuses = []bookingModel.BookingStatus{
	bookingModel.BookingStatusPaid,
	bookingModel.BookingStatusCompletedByProvider,
	bookingModel.BookingStatusCompleted,
}

// FeesReport aggregates paid bookings into per-period rows. Periods bucket on
// the payment timestamp; amounts resolve through the same quote-over-price
// rule as payment initiation.
func (s *Service) FeesReport(ctx context.Context, from, to time.Time, granularity string) ([]reportTypes.FeeRow, error) {
	var bookings []bookingModel.Booking
	err := s.DB.WithContext(ctx).
		Where("status IN ?", revenueStatuses).
		Where("paid_at IS NOT NULL AND paid_at >= ? AND paid_at <= ?", from, to).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}

	layout := "2006-01-02"
	if granularity == "monthly" {
		layout = "2006-01"
	}

	buckets := make(map[string]*reportTypes.FeeRow)
	var totalGross int64
	for _, b := range bookings {
		period := b.PaidAt.Format(layout)
		row, ok := buckets[period]
		if !ok {
			row = &reportTypes.FeeRow{Period: period}
			buckets[period] = row
		}
		amount := b.Amount()
		fee := amount * s.FeeBps / 10000
		tax := fee * s.TaxBps / 10000

		row.Bookings++
		row.GrossVolume += amount
		row.PlatformFee += fee
		row.Tax += tax
		row.NetToProvider += amount - fee - tax
		totalGross += amount
	}

	rows := make([]reportTypes.FeeRow, 0, len(buckets))
	for _, row := range buckets {
		row.FeeRatePercent = SafeRate(float64(row.PlatformFee), float64(row.GrossVolume)) * 100
		row.ContributionPercent = SafeRate(float64(row.GrossVolume), float64(totalGross)) * 100
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Period < rows[j].Period })
	return rows, nil
}

// KYCReport summarizes providers per verification status.
func (s *Service) KYCReport(ctx context.Context) ([]reportTypes.KYCRow, error) {
	var providers []providerModel.Provider
	if err := s.DB.WithContext(ctx).Find(&providers).Error; err != nil {
		return nil, err
	}

	buckets := make(map[string]*reportTypes.KYCRow)
	trustTotals := make(map[string]int64)
	for _, p := range providers {
		status := string(p.KYCStatus)
		row, ok := buckets[status]
		if !ok {
			row = &reportTypes.KYCRow{KYCStatus: status}
			buckets[status] = row
		}
		row.Providers++
		if p.Suspended {
			row.Suspended++
		}
		if p.ChargesEnabled {
			row.ChargesEnabled++
		}
		trustTotals[status] += int64(p.TrustScore)
	}

	total := int64(len(providers))
	rows := make([]reportTypes.KYCRow, 0, len(buckets))
	for status, row := range buckets {
		row.AvgTrustScore = SafeRate(float64(trustTotals[status]), float64(row.Providers))
		row.SharePercent = SafeRate(float64(row.Providers), float64(total)) * 100
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].KYCStatus < rows[j].KYCStatus })
	return rows, nil
}
