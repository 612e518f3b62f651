package routes

import (
	"marketplace-booking/config"
	"marketplace-booking/constants"
	"marketplace-booking/controllers/auth"
	"marketplace-booking/controllers/booking"
	"marketplace-booking/controllers/calendar"
	"marketplace-booking/controllers/payment"
	providerCtl "marketplace-booking/controllers/provider"
	"marketplace-booking/controllers/report"
	"marketplace-booking/controllers/review"
	serviceCtl "marketplace-booking/controllers/service"
	"marketplace-booking/controllers/timeoff"
	"marketplace-booking/controllers/user"
	"marketplace-booking/httpServices/payments"
	"marketplace-booking/logger"
	"marketplace-booking/middleware"
	"marketplace-booking/mq"
	bookingSvc "marketplace-booking/services/booking"
	kycSvc "marketplace-booking/services/kyc"
	reportSvc "marketplace-booking/services/report"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg config.App, paymentClient payments.Client, publisher *mq.Publisher) {
	asyncLogger := logger.NewAsyncLogger(db)
	transitioner := bookingSvc.NewTransitioner(db, publisher)
	kycService := kycSvc.NewService(db, cfg.GeminiAPIKey)

	authController := auth.NewAuthController(db, asyncLogger)
	userController := user.NewUserController(db)
	serviceController := serviceCtl.NewServiceController(db, asyncLogger)
	bookingController := booking.NewBookingController(db, asyncLogger, transitioner, paymentClient, cfg)
	webhookController := payment.NewWebhookController(db, paymentClient, transitioner)
	calendarController := calendar.NewCalendarController(db, asyncLogger)
	timeOffController := timeoff.NewTimeOffController(db, asyncLogger)
	reviewController := review.NewReviewController(db, asyncLogger)
	providerController := providerCtl.NewProviderController(db, asyncLogger, kycService)
	reportController := report.NewReportController(reportSvc.NewService(db, cfg.PlatformFeeBps, cfg.TaxRateBps), asyncLogger)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	// Index route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "marketplace-booking",
			"status":  "ok",
		})
	})

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api := app.Group("/api")
	api.Post("/register", authController.Register)
	api.Post("/login", authController.Login)
	api.Get("/services", serviceController.Index)
	api.Get("/providers/:providerId/services", serviceController.Index)
	api.Get("/providers/:id/reviews", reviewController.ForProvider)

	// Payment processor callback, verified against the processor rather than a JWT
	api.Post("/payments/webhook", webhookController.Handle)

	/*=============================================================================
	| Protected Routes
	===============================================================================*/
	authGroup := api.Group("/auth").Use(middleware.RequireAnyPermission())
	authGroup.Get("/profile", userController.GetUserInfo)
	authGroup.Post("/logout", authController.LogOut)

	/*=============================================================================
	| Service Management Routes
	===============================================================================*/
	serviceGroup := api.Group("/provider/services")

	serviceGroup.Post("/", middleware.RequirePermissions(
		constants.PermProviderFull,
	), serviceController.Store)

	serviceGroup.Get("/", middleware.RequirePermissions(
		constants.PermProviderFull,
	), serviceController.Mine)

	serviceGroup.Patch("/:id", middleware.RequirePermissions(
		constants.PermProviderFull,
	), serviceController.Update)

	/*=============================================================================
	| Booking Routes
	===============================================================================*/
	bookingGroup := api.Group("/bookings")

	bookingGroup.Post("/", middleware.RequirePermissions(
		constants.PermCustomerFull,
	), bookingController.Store)

	bookingGroup.Get("/mine", middleware.RequirePermissions(
		constants.PermCustomerFull,
	), bookingController.MyBookings)

	bookingGroup.Get("/provider", middleware.RequirePermissions(
		constants.PermProviderFull,
	), bookingController.ProviderBookings)

	bookingGroup.Get("/:id", middleware.RequireAnyPermission(), bookingController.Show)

	bookingGroup.Post("/action", middleware.RequireAnyPermission(), bookingController.Action)

	bookingGroup.Post("/quote", middleware.RequirePermissions(
		constants.PermProviderFull,
	), bookingController.Quote)

	/*=============================================================================
	| Payment Routes
	===============================================================================*/
	bookingGroup.Post("/:id/pay", middleware.RequirePermissions(
		constants.PermCustomerFull,
	), bookingController.Pay)

	bookingGroup.Post("/:id/sync-payment", middleware.RequireAnyPermission(),
		bookingController.SyncPayment)

	api.Get("/payments/return", middleware.RequirePermissions(
		constants.PermCustomerFull,
	), bookingController.PaymentReturn)

	/*=============================================================================
	| Calendar & Time Off Routes
	===============================================================================*/
	calendarGroup := api.Group("/provider/calendar").Use(middleware.RequirePermissions(
		constants.PermProviderFull,
	))
	calendarGroup.Get("/month", calendarController.Month)
	calendarGroup.Get("/day", calendarController.Day)

	timeOffGroup := api.Group("/provider/time-off").Use(middleware.RequirePermissions(
		constants.PermProviderFull,
	))
	timeOffGroup.Post("/", timeOffController.Store)
	timeOffGroup.Get("/", timeOffController.Index)
	timeOffGroup.Delete("/:id", timeOffController.Destroy)

	/*=============================================================================
	| Review Routes
	===============================================================================*/
	api.Post("/reviews", middleware.RequirePermissions(
		constants.PermCustomerFull,
	), reviewController.Store)

	/*=============================================================================
	| Provider Onboarding & KYC Routes
	===============================================================================*/
	providerGroup := api.Group("/provider")

	providerGroup.Post("/apply", middleware.RequireAnyPermission(), providerController.Apply)
	providerGroup.Get("/application", middleware.RequireAnyPermission(), providerController.MyApplication)

	providerGroup.Post("/kyc/start", middleware.RequirePermissions(
		constants.PermProviderFull,
	), providerController.StartKYC)

	providerGroup.Post("/kyc/documents", middleware.RequirePermissions(
		constants.PermProviderFull,
	), providerController.UploadKYCDocument)

	providerGroup.Get("/kyc/documents/:requestId", middleware.RequirePermissions(
		constants.PermProviderFull,
	), providerController.KYCDocumentStatus)

	providerGroup.Post("/payout-account", middleware.RequirePermissions(
		constants.PermProviderFull,
	), providerController.SetPayoutAccount)

	/*=============================================================================
	| Admin Routes
	===============================================================================*/
	adminGroup := api.Group("/admin").Use(middleware.RequirePermissions(
		constants.ModerationPermissions...,
	))
	adminGroup.Get("/provider-applications", providerController.PendingApplications)
	adminGroup.Post("/provider-applications/:id/approve", providerController.ApproveApplication)
	adminGroup.Post("/provider-applications/:id/reject", providerController.RejectApplication)
	adminGroup.Post("/providers/:id/kyc-status", providerController.SetKYCStatus)
	adminGroup.Post("/providers/:id/suspend", providerController.Suspend)
	adminGroup.Post("/providers/:id/unsuspend", providerController.Unsuspend)

	reportGroup := api.Group("/admin/reports").Use(middleware.RequirePermissions(
		constants.PermAdminFull,
	))
	reportGroup.Get("/fees", reportController.Fees)
	reportGroup.Get("/kyc", reportController.KYC)
}
