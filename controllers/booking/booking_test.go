package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace-booking/config"
	"marketplace-booking/constants"
	"marketplace-booking/httpServices/payments"
	"marketplace-booking/logger"
	"marketplace-booking/middleware"
	bookingModel "marketplace-booking/models/booking"
	providerModel "marketplace-booking/models/provider"
	serviceModel "marketplace-booking/models/service"
	userModel "marketplace-booking/models/user"
	bookingSvc "marketplace-booking/services/booking"
	"marketplace-booking/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/omise/omise-go"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// stubPayments substitutes the processor in controller tests.
type stubPayments struct {
	checkout    *payments.Checkout
	checkoutErr error
	charge      *payments.ChargeState
	chargeErr   error

	checkoutCalls  int
	checkoutAmount int64

	refundCalls    int
	refundChargeID string
	refundAmount   int64
}

func (s *stubPayments) CreateCheckout(ctx context.Context, bookingID string, amount int64, currency string) (*payments.Checkout, error) {
	s.checkoutCalls++
	s.checkoutAmount = amount
	if s.checkoutErr != nil {
		return nil, s.checkoutErr
	}
	return s.checkout, nil
}

func (s *stubPayments) RetrieveCharge(ctx context.Context, chargeID string) (*payments.ChargeState, error) {
	if s.chargeErr != nil {
		return nil, s.chargeErr
	}
	return s.charge, nil
}

func (s *stubPayments) RetrieveEvent(ctx context.Context, eventID string) (*omise.Event, error) {
	return nil, errors.New("not supported in tests")
}

func (s *stubPayments) Refund(ctx context.Context, chargeID string, amount int64) error {
	s.refundCalls++
	s.refundChargeID = chargeID
	s.refundAmount = amount
	return nil
}

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	payments *stubPayments

	customer     userModel.User
	stranger     userModel.User
	providerUser userModel.User
	admin        userModel.User
	provider     providerModel.Provider
	service      serviceModel.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

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
		&bookingModel.BookingStatusEvent{},
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

	env := &testEnv{db: db, payments: &stubPayments{}}

	env.customer = userModel.User{
		Uuid: "cust-uuid", Username: "customer", LegalName: "Casey Customer",
		PasswordHash: "x", Permissions: userModel.StringSlice{constants.PermCustomerFull},
	}
	env.stranger = userModel.User{
		Uuid: "stranger-uuid", Username: "stranger", LegalName: "Sam Stranger",
		PasswordHash: "x", Permissions: userModel.StringSlice{constants.PermCustomerFull},
	}
	env.providerUser = userModel.User{
		Uuid: "prov-uuid", Username: "provider", LegalName: "Pat Provider",
		PasswordHash: "x", Permissions: userModel.StringSlice{constants.PermProviderFull},
	}
	env.admin = userModel.User{
		Uuid: "admin-uuid", Username: "admin", LegalName: "Alex Admin",
		PasswordHash: "x", Permissions: userModel.StringSlice{constants.PermAdminFull},
	}
	for _, u := range []*userModel.User{&env.customer, &env.stranger, &env.providerUser, &env.admin} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("failed to seed user: %v", err)
		}
	}

	env.provider = providerModel.Provider{
		UserID:           env.providerUser.ID,
		BusinessName:     "Sparky Electrical",
		KYCStatus:        providerModel.KYCStatusVerified,
		ChargesEnabled:   true,
		ModerationStatus: providerModel.ModerationApproved,
	}
	if err := db.Create(&env.provider).Error; err != nil {
		t.Fatalf("failed to seed provider: %v", err)
	}

	env.service = serviceModel.Service{
		ProviderID: env.provider.ID,
		Title:      "Switchboard upgrade",
		Price:      10000,
		Currency:   "nzd",
		Active:     true,
	}
	if err := db.Create(&env.service).Error; err != nil {
		t.Fatalf("failed to seed service: %v", err)
	}

	cfg := config.App{
		Currency:                "nzd",
		ReconcilePollIntervalMs: 10,
		ReconcilePollCeilingMs:  50,
	}
	controller := NewBookingController(db, logger.NewAsyncLogger(db),
		bookingSvc.NewTransitioner(db, nil), env.payments, cfg)

	app := fiber.New()
	api := app.Group("/api")
	api.Post("/bookings", middleware.RequirePermissions(constants.PermCustomerFull), controller.Store)
	api.Post("/bookings/action", middleware.RequireAnyPermission(), controller.Action)
	api.Post("/bookings/:id/pay", middleware.RequirePermissions(constants.PermCustomerFull), controller.Pay)
	api.Post("/bookings/:id/sync-payment", middleware.RequireAnyPermission(), controller.SyncPayment)
	api.Get("/payments/return", middleware.RequirePermissions(constants.PermCustomerFull), controller.PaymentReturn)
	env.app = app

	return env
}

func (e *testEnv) token(t *testing.T, u userModel.User) string {
	t.Helper()
	perms := make([]interface{}, len(u.Permissions))
	for i, p := range u.Permissions {
		perms[i] = p
	}
	claims := jwt.MapClaims{
		"uuid":        u.Uuid,
		"username":    u.Username,
		"permissions": perms,
		"exp":         time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func (e *testEnv) request(t *testing.T, method, path string, body any, asUser userModel.User) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token(t, asUser))

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var parsed map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &parsed)
	}
	return resp, parsed
}

func (e *testEnv) seedBooking(t *testing.T, status bookingModel.BookingStatus) bookingModel.Booking {
	t.Helper()
	b := bookingModel.Booking{
		BookingNumber:  utils.NewBookingNumber(),
		ServiceID:      e.service.ID,
		ProviderID:     e.provider.ID,
		CustomerID:     e.customer.ID,
		Status:         status,
		PriceAtBooking: e.service.Price,
		CreatedBy:      e.customer.Uuid,
	}
	if err := e.db.Create(&b).Error; err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
	return b
}

func (e *testEnv) reload(t *testing.T, id uint) bookingModel.Booking {
	t.Helper()
	var b bookingModel.Booking
	if err := e.db.First(&b, id).Error; err != nil {
		t.Fatalf("failed to reload booking: %v", err)
	}
	return b
}

func (e *testEnv) eventCount(t *testing.T, bookingID uint) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&bookingModel.BookingStatusEvent{}).Where("booking_id = ?", bookingID).Count(&n).Error; err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	return n
}

func TestStoreCreatesPendingBooking(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, http.MethodPost, "/api/bookings", map[string]interface{}{
		"service_id":   env.service.ID,
		"scheduled_at": "2026-09-10T09:00:00Z",
		"note":         "back gate code 4321",
	}, env.customer)

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", resp.StatusCode, body)
	}

	var b bookingModel.Booking
	if err := env.db.First(&b).Error; err != nil {
		t.Fatalf("booking not persisted: %v", err)
	}
	if b.Status != bookingModel.BookingStatusPending {
		t.Fatalf("expected pending, got %s", b.Status)
	}
	if b.PriceAtBooking != env.service.Price {
		t.Fatalf("expected captured price %d, got %d", env.service.Price, b.PriceAtBooking)
	}
	if !strings.HasPrefix(b.BookingNumber, "BK-") {
		t.Fatalf("unexpected booking number %q", b.BookingNumber)
	}
}

func TestStoreRejectsInactiveService(t *testing.T) {
	env := newTestEnv(t)
	if err := env.db.Model(&env.service).Update("active", false).Error; err != nil {
		t.Fatalf("failed to deactivate service: %v", err)
	}

	resp, _ := env.request(t, http.MethodPost, "/api/bookings", map[string]interface{}{
		"service_id": env.service.ID,
	}, env.customer)

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestActionProviderAccepts(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusPending)

	resp, body := env.request(t, http.MethodPost, "/api/bookings/action", map[string]interface{}{
		"booking_id": b.ID,
		"action":     "accept",
	}, env.providerUser)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if got := env.reload(t, b.ID); got.Status != bookingModel.BookingStatusAccepted {
		t.Fatalf("expected accepted, got %s", got.Status)
	}
	if n := env.eventCount(t, b.ID); n != 1 {
		t.Fatalf("expected one audit event, got %d", n)
	}
}

func TestActionCancelWithoutReasonHasNoSideEffects(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusPending)

	resp, _ := env.request(t, http.MethodPost, "/api/bookings/action", map[string]interface{}{
		"booking_id": b.ID,
		"action":     "cancel",
	}, env.customer)

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	got := env.reload(t, b.ID)
	if got.Status != bookingModel.BookingStatusPending {
		t.Fatalf("status must be untouched, got %s", got.Status)
	}
	if got.CanceledAt != nil || got.CancelReason != nil {
		t.Fatal("cancellation fields must be untouched")
	}
	if n := env.eventCount(t, b.ID); n != 0 {
		t.Fatalf("expected zero audit events, got %d", n)
	}
}

func TestActionCancelWithReason(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusPending)

	resp, _ := env.request(t, http.MethodPost, "/api/bookings/action", map[string]interface{}{
		"booking_id": b.ID,
		"action":     "cancel",
		"reason":     "found someone closer",
	}, env.customer)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	got := env.reload(t, b.ID)
	if got.Status != bookingModel.BookingStatusCanceledCustomer {
		t.Fatalf("expected canceled_customer, got %s", got.Status)
	}
	if got.CancelReason == nil || *got.CancelReason != "found someone closer" {
		t.Fatal("cancel reason not recorded")
	}
	if got.CanceledAt == nil {
		t.Fatal("canceled_at not recorded")
	}
}

func TestActionIllegalTransitionLeavesRowUnchanged(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusPending)

	// mark_completed is only legal from paid, and only for the provider.
	resp, _ := env.request(t, http.MethodPost, "/api/bookings/action", map[string]interface{}{
		"booking_id": b.ID,
		"action":     "mark_completed",
	}, env.providerUser)

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if got := env.reload(t, b.ID); got.Status != bookingModel.BookingStatusPending {
		t.Fatalf("status must be untouched, got %s", got.Status)
	}
	if n := env.eventCount(t, b.ID); n != 0 {
		t.Fatalf("expected zero audit events, got %d", n)
	}
}

func TestActionWrongActorIsConflict(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusPending)

	// The customer is a party but cannot accept their own request.
	resp, _ := env.request(t, http.MethodPost, "/api/bookings/action", map[string]interface{}{
		"booking_id": b.ID,
		"action":     "accept",
	}, env.customer)

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if got := env.reload(t, b.ID); got.Status != bookingModel.BookingStatusPending {
		t.Fatalf("status must be untouched, got %s", got.Status)
	}
}

func TestActionStrangerForbidden(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusPending)

	resp, _ := env.request(t, http.MethodPost, "/api/bookings/action", map[string]interface{}{
		"booking_id": b.ID,
		"action":     "accept",
	}, env.stranger)

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestPayReturnsCheckoutURL(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusAccepted)
	env.payments.checkout = &payments.Checkout{
		ChargeID: "chrg_test_1", SessionID: "src_test_1", URL: "https://pay.example/chrg_test_1",
	}

	resp, body := env.request(t, http.MethodPost, fmt.Sprintf("/api/bookings/%d/pay", b.ID), nil, env.customer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}

	data, _ := body["data"].(map[string]interface{})
	if data["url"] != "https://pay.example/chrg_test_1" {
		t.Fatalf("expected checkout url in response, got %v", data)
	}

	got := env.reload(t, b.ID)
	if got.PaymentIntentID == nil || *got.PaymentIntentID != "chrg_test_1" {
		t.Fatal("charge id not stored on booking")
	}
	if got.Status != bookingModel.BookingStatusAccepted {
		t.Fatalf("checkout must not change status, got %s", got.Status)
	}
}

func TestPayRejectsNonAcceptedStatus(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusPending)

	resp, _ := env.request(t, http.MethodPost, fmt.Sprintf("/api/bookings/%d/pay", b.ID), nil, env.customer)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if env.payments.checkoutCalls != 0 {
		t.Fatal("processor must not be called for a non-accepted booking")
	}
}

func TestPayRejectsUnverifiedProvider(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusAccepted)
	if err := env.db.Model(&env.provider).Update("charges_enabled", false).Error; err != nil {
		t.Fatalf("failed to update provider: %v", err)
	}

	resp, _ := env.request(t, http.MethodPost, fmt.Sprintf("/api/bookings/%d/pay", b.ID), nil, env.customer)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPayProcessorFailureIsBadGateway(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusAccepted)
	env.payments.checkoutErr = errors.New("processor down")

	resp, _ := env.request(t, http.MethodPost, fmt.Sprintf("/api/bookings/%d/pay", b.ID), nil, env.customer)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	if got := env.reload(t, b.ID); got.PaymentIntentID != nil {
		t.Fatal("no charge id may be stored on failure")
	}
}

func TestSyncPaymentMarksPaid(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusAccepted)
	chargeID := "chrg_test_2"
	if err := env.db.Model(&b).Update("payment_intent_id", chargeID).Error; err != nil {
		t.Fatalf("failed to store charge id: %v", err)
	}
	env.payments.charge = &payments.ChargeState{
		ChargeID: chargeID, Successful: true, Amount: 10000, Currency: "nzd",
	}

	resp, body := env.request(t, http.MethodPost, fmt.Sprintf("/api/bookings/%d/sync-payment", b.ID), nil, env.customer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}

	data, _ := body["data"].(map[string]interface{})
	if data["paid"] != true {
		t.Fatalf("expected paid=true, got %v", data["paid"])
	}

	got := env.reload(t, b.ID)
	if got.Status != bookingModel.BookingStatusPaid {
		t.Fatalf("expected paid, got %s", got.Status)
	}
	if got.PaidAt == nil {
		t.Fatal("paid_at not recorded")
	}
	if n := env.eventCount(t, b.ID); n != 1 {
		t.Fatalf("expected one audit event, got %d", n)
	}
}

func TestSyncPaymentIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusAccepted)
	chargeID := "chrg_test_3"
	if err := env.db.Model(&b).Update("payment_intent_id", chargeID).Error; err != nil {
		t.Fatalf("failed to store charge id: %v", err)
	}
	env.payments.charge = &payments.ChargeState{ChargeID: chargeID, Successful: true, Amount: 10000, Currency: "nzd"}

	for i := 0; i < 3; i++ {
		resp, body := env.request(t, http.MethodPost, fmt.Sprintf("/api/bookings/%d/sync-payment", b.ID), nil, env.customer)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("round %d: expected 200, got %d", i, resp.StatusCode)
		}
		data, _ := body["data"].(map[string]interface{})
		if data["paid"] != true {
			t.Fatalf("round %d: expected paid=true", i)
		}
	}

	// The transition is applied exactly once.
	if n := env.eventCount(t, b.ID); n != 1 {
		t.Fatalf("expected one audit event after repeated syncs, got %d", n)
	}
}

func TestSyncPaymentFailedChargeStaysAccepted(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusAccepted)
	chargeID := "chrg_test_4"
	if err := env.db.Model(&b).Update("payment_intent_id", chargeID).Error; err != nil {
		t.Fatalf("failed to store charge id: %v", err)
	}
	env.payments.charge = &payments.ChargeState{
		ChargeID: chargeID, Failed: true, FailureCode: "insufficient_fund",
	}

	resp, body := env.request(t, http.MethodPost, fmt.Sprintf("/api/bookings/%d/sync-payment", b.ID), nil, env.customer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	data, _ := body["data"].(map[string]interface{})
	if data["paid"] != false {
		t.Fatalf("expected paid=false, got %v", data["paid"])
	}
	if got := env.reload(t, b.ID); got.Status != bookingModel.BookingStatusAccepted {
		t.Fatalf("failed charge must not change status, got %s", got.Status)
	}
}

func TestPaymentReturnGivesUpGracefully(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusAccepted)
	chargeID := "chrg_test_5"
	if err := env.db.Model(&b).Update("payment_intent_id", chargeID).Error; err != nil {
		t.Fatalf("failed to store charge id: %v", err)
	}
	// Charge never settles within the polling window.
	env.payments.charge = &payments.ChargeState{ChargeID: chargeID}

	resp, body := env.request(t, http.MethodGet, fmt.Sprintf("/api/payments/return?booking_id=%d", b.ID), nil, env.customer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("give-up must be a 200, got %d", resp.StatusCode)
	}

	data, _ := body["data"].(map[string]interface{})
	if data["outcome"] != "timed_out" {
		t.Fatalf("expected timed_out outcome, got %v", data["outcome"])
	}
	if got := env.reload(t, b.ID); got.Status != bookingModel.BookingStatusAccepted {
		t.Fatalf("unsettled charge must not change status, got %s", got.Status)
	}
}

func TestPaymentReturnConfirmsSettledCharge(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusAccepted)
	chargeID := "chrg_test_6"
	if err := env.db.Model(&b).Update("payment_intent_id", chargeID).Error; err != nil {
		t.Fatalf("failed to store charge id: %v", err)
	}
	env.payments.charge = &payments.ChargeState{ChargeID: chargeID, Successful: true, Amount: 10000, Currency: "nzd"}

	resp, body := env.request(t, http.MethodGet, fmt.Sprintf("/api/payments/return?booking_id=%d", b.ID), nil, env.customer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	data, _ := body["data"].(map[string]interface{})
	if data["outcome"] != "succeeded" {
		t.Fatalf("expected succeeded outcome, got %v", data["outcome"])
	}
	if got := env.reload(t, b.ID); got.Status != bookingModel.BookingStatusPaid {
		t.Fatalf("expected paid, got %s", got.Status)
	}
}

func TestQuoteSupersedesPriceOnPay(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusAccepted)
	quote := int64(25000)
	if err := env.db.Model(&b).Update("provider_quoted_price", quote).Error; err != nil {
		t.Fatalf("failed to store quote: %v", err)
	}
	env.payments.checkout = &payments.Checkout{ChargeID: "chrg_q", URL: "https://pay.example/q"}

	resp, _ := env.request(t, http.MethodPost, fmt.Sprintf("/api/bookings/%d/pay", b.ID), nil, env.customer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if env.payments.checkoutAmount != quote {
		t.Fatalf("expected the quote to drive the charge amount, got %d", env.payments.checkoutAmount)
	}
}

func TestActionRefundReversesChargeAtProcessor(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusPaid)
	chargeID := "chrg_refund_1"
	if err := env.db.Model(&b).Update("payment_intent_id", chargeID).Error; err != nil {
		t.Fatalf("failed to store charge id: %v", err)
	}

	resp, body := env.request(t, http.MethodPost, "/api/bookings/action", map[string]interface{}{
		"booking_id": b.ID,
		"action":     "refund",
	}, env.admin)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if got := env.reload(t, b.ID); got.Status != bookingModel.BookingStatusRefunded {
		t.Fatalf("expected refunded, got %s", got.Status)
	}
	if env.payments.refundCalls != 1 {
		t.Fatalf("expected one refund at the processor, got %d", env.payments.refundCalls)
	}
	if env.payments.refundChargeID != chargeID {
		t.Fatalf("refund must target the stored charge, got %q", env.payments.refundChargeID)
	}
	if env.payments.refundAmount != b.PriceAtBooking {
		t.Fatalf("expected refund of %d, got %d", b.PriceAtBooking, env.payments.refundAmount)
	}
}

func TestActionRefundWithoutChargeSkipsProcessor(t *testing.T) {
	env := newTestEnv(t)
	// Paid out of band; no charge was ever created with the processor.
	b := env.seedBooking(t, bookingModel.BookingStatusPaid)

	resp, _ := env.request(t, http.MethodPost, "/api/bookings/action", map[string]interface{}{
		"booking_id": b.ID,
		"action":     "refund",
	}, env.admin)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := env.reload(t, b.ID); got.Status != bookingModel.BookingStatusRefunded {
		t.Fatalf("expected refunded, got %s", got.Status)
	}
	if env.payments.refundCalls != 0 {
		t.Fatalf("no processor refund may be issued without a charge, got %d", env.payments.refundCalls)
	}
}

func TestSyncPaymentRejectsForeignSession(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusAccepted)
	if err := env.db.Model(&b).Updates(map[string]interface{}{
		"payment_intent_id":   "chrg_test_7",
		"checkout_session_id": "src_real",
	}).Error; err != nil {
		t.Fatalf("failed to store checkout references: %v", err)
	}
	env.payments.charge = &payments.ChargeState{ChargeID: "chrg_test_7", Successful: true, Amount: 10000, Currency: "nzd"}

	resp, _ := env.request(t, http.MethodPost, fmt.Sprintf("/api/bookings/%d/sync-payment", b.ID), map[string]interface{}{
		"session_id": "src_other",
	}, env.customer)

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if got := env.reload(t, b.ID); got.Status != bookingModel.BookingStatusAccepted {
		t.Fatalf("mismatched session must not change status, got %s", got.Status)
	}
}

func TestSyncPaymentBackfillsSessionHint(t *testing.T) {
	env := newTestEnv(t)
	b := env.seedBooking(t, bookingModel.BookingStatusAccepted)
	if err := env.db.Model(&b).Update("payment_intent_id", "chrg_test_8").Error; err != nil {
		t.Fatalf("failed to store charge id: %v", err)
	}
	env.payments.charge = &payments.ChargeState{ChargeID: "chrg_test_8", Successful: true, Amount: 10000, Currency: "nzd"}

	resp, _ := env.request(t, http.MethodPost, fmt.Sprintf("/api/bookings/%d/sync-payment", b.ID), map[string]interface{}{
		"session_id": "src_hint",
	}, env.customer)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	got := env.reload(t, b.ID)
	if got.CheckoutSessionID == nil || *got.CheckoutSessionID != "src_hint" {
		t.Fatal("session hint not stored on booking")
	}
	if got.Status != bookingModel.BookingStatusPaid {
		t.Fatalf("expected paid, got %s", got.Status)
	}
}
