package main

import (
	"context"
	"fmt"
	"time"

	"marketplace-booking/config"
	"marketplace-booking/database"
	"marketplace-booking/httpServices/payments"
	"marketplace-booking/logger"
	"marketplace-booking/mq"
	"marketplace-booking/routes"
	"marketplace-booking/services/notification"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	app := fiber.New(fiber.Config{
		ReadBufferSize:  32768, // 32KB read buffer
		WriteBufferSize: 32768, // 32KB write buffer
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		BodyLimit:       20 * 1024 * 1024, // 20MB body limit, KYC uploads included
	})
	env := godotenv.Load()
	if env != nil {
		logger.Error("Error loading .env file", env)
		fmt.Println("Error loading .env file", env)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", err)
		return
	}

	logger.Success("Server is running on ip: " + cfg.AppHost + " port: " + cfg.AppPort +
		"\n\t\t\t\t\t\t******************************************************************************************\n")

	db, err := database.InitDB()
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return
	}

	paymentClient, err := payments.NewOmiseClient(cfg.OmisePublicKey, cfg.OmiseSecretKey, "internet_banking", cfg.CheckoutReturn)
	if err != nil {
		logger.Error("Failed to initialize payment client", err)
		return
	}

	// Messaging is optional. Without AMQP the publisher stays nil and
	// PublishJSON becomes a no-op.
	var publisher *mq.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warning(fmt.Sprintf("AMQP unavailable, events will not be published: %v", err))
			publisher = nil
		} else {
			defer publisher.Close()
			startNotificationWorker(cfg)
		}
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	routes.SetupRoutes(app, db, cfg, paymentClient, publisher)

	app.Listen(cfg.AppHost + ":" + cfg.AppPort)
}

// startNotificationWorker consumes booking and payment events and forwards
// them to the configured notifier.
func startNotificationWorker(cfg config.App) {
	consumer, err := mq.NewConsumer(cfg.AMQPURL, cfg.AMQPExchange, "marketplace.notifications",
		[]string{"booking.status.#", "payment.#"})
	if err != nil {
		logger.Warning(fmt.Sprintf("Notification worker disabled: %v", err))
		return
	}

	worker := notification.NewWorker(consumer, notification.NewConsole())
	go func() {
		if err := worker.Run(context.Background()); err != nil {
			logger.Error("Notification worker stopped", err)
		}
	}()
}
