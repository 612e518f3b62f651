package report

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	bookingModel "marketplace-booking/models/booking"
	providerModel "marketplace-booking/models/provider"
	serviceModel "marketplace-booking/models/service"
	userModel "marketplace-booking/models/user"
	reportTypes "marketplace-booking/types/report"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named in-memory database keeps every pooled connection on the same
	// store while isolating tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&userModel.User{},
		&providerModel.Provider{},
		&serviceModel.Service{},
		&bookingModel.Booking{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedBooking(t *testing.T, db *gorm.DB, status bookingModel.BookingStatus, amount int64, paidAt *time.Time) {
	t.Helper()
	b := bookingModel.Booking{
		BookingNumber:  fmt.Sprintf("BK-%d", time.Now().UnixNano()),
		ServiceID:      1,
		ProviderID:     1,
		CustomerID:     1,
		Status:         status,
		PriceAtBooking: amount,
		PaidAt:         paidAt,
		CreatedBy:      "test",
	}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
}

func TestSafeRate(t *testing.T) {
	if got := SafeRate(10, 0); got != 0 {
		t.Fatalf("zero denominator should yield 0, got %v", got)
	}
	if got := SafeRate(0, 0); got != 0 {
		t.Fatalf("zero over zero should yield 0, got %v", got)
	}
	if got := SafeRate(1, 4); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
	if math.IsNaN(SafeRate(5, 0)) || math.IsInf(SafeRate(5, 0), 0) {
		t.Fatal("SafeRate must never produce NaN or Inf")
	}
}

func TestFeesReportDailyBuckets(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, 1000, 1500) // 10% fee, 15% tax on the fee

	day1 := time.Date(2026, time.May, 3, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)

	seedBooking(t, db, bookingModel.BookingStatusPaid, 10000, &day1)
	seedBooking(t, db, bookingModel.BookingStatusCompleted, 20000, &day1)
	seedBooking(t, db, bookingModel.BookingStatusCompletedByProvider, 5000, &day2)
	// Excluded: refunded bookings and anything never paid.
	seedBooking(t, db, bookingModel.BookingStatusRefunded, 99999, &day1)
	seedBooking(t, db, bookingModel.BookingStatusAccepted, 88888, nil)

	from := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.May, 31, 23, 59, 59, 0, time.UTC)

	rows, err := svc.FeesReport(context.Background(), from, to, "daily")
	if err != nil {
		t.Fatalf("FeesReport failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 daily buckets, got %d", len(rows))
	}

	first := rows[0]
	if first.Period != "2026-05-03" {
		t.Fatalf("expected 2026-05-03 first, got %s", first.Period)
	}
	if first.Bookings != 2 || first.GrossVolume != 30000 {
		t.Fatalf("expected 2 bookings / 30000 gross, got %d / %d", first.Bookings, first.GrossVolume)
	}
	if first.PlatformFee != 3000 {
		t.Fatalf("expected 3000 fee, got %d", first.PlatformFee)
	}
	if first.Tax != 450 {
		t.Fatalf("expected 450 tax, got %d", first.Tax)
	}
	if first.NetToProvider != 26550 {
		t.Fatalf("expected 26550 net, got %d", first.NetToProvider)
	}
	if math.Abs(first.FeeRatePercent-10.0) > 0.001 {
		t.Fatalf("expected 10%% fee rate, got %v", first.FeeRatePercent)
	}

	// 30000 of 35000 total gross.
	if math.Abs(first.ContributionPercent-85.714285) > 0.001 {
		t.Fatalf("unexpected contribution percent %v", first.ContributionPercent)
	}
}

func TestFeesReportMonthlyBuckets(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, 1000, 1500)

	may := time.Date(2026, time.May, 3, 10, 0, 0, 0, time.UTC)
	june := time.Date(2026, time.June, 7, 10, 0, 0, 0, time.UTC)
	seedBooking(t, db, bookingModel.BookingStatusPaid, 10000, &may)
	seedBooking(t, db, bookingModel.BookingStatusPaid, 10000, &june)

	from := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.June, 30, 23, 59, 59, 0, time.UTC)

	rows, err := svc.FeesReport(context.Background(), from, to, "monthly")
	if err != nil {
		t.Fatalf("FeesReport failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 monthly buckets, got %d", len(rows))
	}
	if rows[0].Period != "2026-05" || rows[1].Period != "2026-06" {
		t.Fatalf("unexpected periods %s, %s", rows[0].Period, rows[1].Period)
	}
}

func TestFeesReportEmptyRange(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, 1000, 1500)

	from := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)

	rows, err := svc.FeesReport(context.Background(), from, to, "daily")
	if err != nil {
		t.Fatalf("FeesReport failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestFeesReportQuoteSupersedesPrice(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, 1000, 1500)

	paidAt := time.Date(2026, time.May, 3, 10, 0, 0, 0, time.UTC)
	quote := int64(20000)
	b := bookingModel.Booking{
		BookingNumber:       "BK-quoted",
		ServiceID:           1,
		ProviderID:          1,
		CustomerID:          1,
		Status:              bookingModel.BookingStatusPaid,
		PriceAtBooking:      10000,
		ProviderQuotedPrice: &quote,
		PaidAt:              &paidAt,
		CreatedBy:           "test",
	}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}

	rows, err := svc.FeesReport(context.Background(),
		paidAt.Add(-time.Hour), paidAt.Add(time.Hour), "daily")
	if err != nil {
		t.Fatalf("FeesReport failed: %v", err)
	}
	if len(rows) != 1 || rows[0].GrossVolume != 20000 {
		t.Fatalf("expected the quoted amount in gross volume, got %+v", rows)
	}
}

func TestKYCReport(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, 1000, 1500)

	providers := []providerModel.Provider{
		{UserID: 1, KYCStatus: providerModel.KYCStatusVerified, TrustScore: 80, ChargesEnabled: true},
		{UserID: 2, KYCStatus: providerModel.KYCStatusVerified, TrustScore: 60, Suspended: true},
		{UserID: 3, KYCStatus: providerModel.KYCStatusNotStarted, TrustScore: 10},
	}
	for i := range providers {
		if err := db.Create(&providers[i]).Error; err != nil {
			t.Fatalf("failed to seed provider: %v", err)
		}
	}

	rows, err := svc.KYCReport(context.Background())
	if err != nil {
		t.Fatalf("KYCReport failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 status buckets, got %d", len(rows))
	}

	var verified reportTypes.KYCRow
	for _, r := range rows {
		if r.KYCStatus == string(providerModel.KYCStatusVerified) {
			verified = r
		}
	}
	if verified.Providers != 2 || verified.Suspended != 1 || verified.ChargesEnabled != 1 {
		t.Fatalf("unexpected verified bucket %+v", verified)
	}
	if verified.AvgTrustScore != 70 {
		t.Fatalf("expected average trust 70, got %v", verified.AvgTrustScore)
	}
	if math.Abs(verified.SharePercent-66.666666) > 0.001 {
		t.Fatalf("unexpected share percent %v", verified.SharePercent)
	}
}

func TestFeesCSV(t *testing.T) {
	rows := []reportTypes.FeeRow{
		{Period: "2026-05-03", Bookings: 2, GrossVolume: 30000, PlatformFee: 3000, Tax: 450, NetToProvider: 26550, FeeRatePercent: 10, ContributionPercent: 100},
	}
	csv := FeesCSV(rows)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if lines[1] != "2026-05-03,2,30000,3000,450,26550,10.00,100.00" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestCSVEscapingInExports(t *testing.T) {
	rows := []reportTypes.KYCRow{
		{KYCStatus: `weird,"status"`, Providers: 1},
	}
	csv := KYCCSV(rows)
	if !strings.Contains(csv, `"weird,""status"""`) {
		t.Fatalf("commas and quotes must be escaped, got %q", csv)
	}
}

func TestFilename(t *testing.T) {
	name := Filename("fees", "csv")
	want := fmt.Sprintf("fees_%s.csv", time.Now().Format("2006-01-02"))
	if name != want {
		t.Fatalf("expected %q, got %q", want, name)
	}
}

func TestFeesHTML(t *testing.T) {
	rows := []reportTypes.FeeRow{
		{Period: "2026-05-03", Bookings: 2, GrossVolume: 30000, PlatformFee: 3000, Tax: 450, NetToProvider: 26550, FeeRatePercent: 10, ContributionPercent: 100},
		{Period: "2026-05-04", Bookings: 1, GrossVolume: 5000, PlatformFee: 500, Tax: 75, NetToProvider: 4425, FeeRatePercent: 10, ContributionPercent: 100},
	}
	html, err := FeesHTML(rows)
	if err != nil {
		t.Fatalf("FeesHTML failed: %v", err)
	}
	if !strings.Contains(html, "<td>2026-05-03</td>") {
		t.Fatal("rendered HTML missing the first period row")
	}
	if !strings.Contains(html, "Total") {
		t.Fatal("rendered HTML missing the totals row")
	}
	if !strings.Contains(html, "NZD $35.00") {
		t.Fatalf("rendered HTML missing the formatted total fee: %s", html)
	}
}
