package notification

import (
	"fmt"

	"marketplace-booking/logger"
)

// Notifier abstracts the delivery channel so console output can later be
// swapped for email or SMS without touching the worker.
type Notifier interface {
	Notify(subject, message string) error
}

// ConsoleNotifier writes notifications to the application log.
type ConsoleNotifier struct{}

func NewConsole() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (c *ConsoleNotifier) Notify(subject, message string) error {
	logger.Info(fmt.Sprintf("[notify] %s :: %s", subject, message))
	return nil
}
