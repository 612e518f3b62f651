package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

// ErrNoCheckoutURL is returned when the processor accepts the charge but does
// not hand back a redirect URL; the pay action must treat this as fatal.
var ErrNoCheckoutURL = errors.New("payment processor returned no checkout url")

// Checkout is the result of initiating a hosted payment.
type Checkout struct {
	ChargeID  string
	SessionID string // source id; round-trips through the return URL
	URL       string
}

// ChargeState is the subset of processor charge state the API consumes.
type ChargeState struct {
	ChargeID       string
	BookingID      string
	Successful     bool
	Failed         bool
	Amount         int64
	Currency       string
	FailureCode    string
	FailureMessage string
}

// Client is the payment processor surface used by the booking controllers.
type Client interface {
	CreateCheckout(ctx context.Context, bookingID string, amount int64, currency string) (*Checkout, error)
	RetrieveCharge(ctx context.Context, chargeID string) (*ChargeState, error)
	RetrieveEvent(ctx context.Context, eventID string) (*omise.Event, error)
	Refund(ctx context.Context, chargeID string, amount int64) error
}

// OmiseClient implements Client against the Omise API.
type OmiseClient struct {
	omc        *omise.Client
	sourceType string
	returnURI  string
}

// NewOmiseClient builds the processor client. sourceType selects the hosted
// payment channel; channels that redirect hand back an authorize URI.
func NewOmiseClient(publicKey, secretKey, sourceType, returnURI string) (*OmiseClient, error) {
	omc, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("create omise client: %w", err)
	}
	omc.SetDebug(false)
	if sourceType == "" {
		sourceType = "internet_banking_bay"
	}
	return &OmiseClient{omc: omc, sourceType: sourceType, returnURI: returnURI}, nil
}

// CreateCheckout creates a source and a charge for it, returning the
// authorize URI the customer's browser must be navigated to.
func (c *OmiseClient) CreateCheckout(ctx context.Context, bookingID string, amount int64, currency string) (*Checkout, error) {
	if amount <= 0 || currency == "" {
		return nil, errors.New("invalid checkout params")
	}

	src := &omise.Source{}
	if err := c.omc.Do(src, &operations.CreateSource{
		Type:     c.sourceType,
		Amount:   amount,
		Currency: currency,
	}); err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}

	ch := &omise.Charge{}
	if err := c.omc.Do(ch, &operations.CreateCharge{
		Amount:    amount,
		Currency:  currency,
		Source:    src.ID,
		ReturnURI: c.returnURI,
		Metadata:  map[string]interface{}{"booking_id": bookingID},
	}); err != nil {
		return nil, fmt.Errorf("create charge: %w", err)
	}

	if ch.AuthorizeURI == "" {
		return nil, ErrNoCheckoutURL
	}

	return &Checkout{ChargeID: ch.ID, SessionID: src.ID, URL: ch.AuthorizeURI}, nil
}

// RetrieveCharge fetches the current charge state from the processor.
func (c *OmiseClient) RetrieveCharge(ctx context.Context, chargeID string) (*ChargeState, error) {
	ch := &omise.Charge{}
	if err := c.omc.Do(ch, &operations.RetrieveCharge{ChargeID: chargeID}); err != nil {
		return nil, fmt.Errorf("retrieve charge: %w", err)
	}
	return chargeState(ch), nil
}

// RetrieveEvent re-fetches a webhook event from the API so delivery payloads
// are never trusted directly.
func (c *OmiseClient) RetrieveEvent(ctx context.Context, eventID string) (*omise.Event, error) {
	ev := &omise.Event{}
	if err := c.omc.Do(ev, &operations.RetrieveEvent{EventID: eventID}); err != nil {
		return nil, fmt.Errorf("retrieve event: %w", err)
	}
	return ev, nil
}

// Refund reverses a captured charge.
func (c *OmiseClient) Refund(ctx context.Context, chargeID string, amount int64) error {
	refund := &omise.Refund{}
	if err := c.omc.Do(refund, &operations.CreateRefund{ChargeID: chargeID, Amount: amount}); err != nil {
		return fmt.Errorf("create refund: %w", err)
	}
	return nil
}

func chargeState(ch *omise.Charge) *ChargeState {
	state := &ChargeState{
		ChargeID:   ch.ID,
		Successful: string(ch.Status) == "successful",
		Failed:     string(ch.Status) == "failed",
		Amount:     ch.Amount,
		Currency:   ch.Currency,
	}
	if id, ok := ch.Metadata["booking_id"].(string); ok {
		state.BookingID = id
	}
	if ch.FailureCode != nil {
		state.FailureCode = *ch.FailureCode
	}
	if ch.FailureMessage != nil {
		state.FailureMessage = *ch.FailureMessage
	}
	return state
}

// ChargeStateFromCharge converts a raw processor charge; the webhook handler
// uses it after unmarshalling event data.
func ChargeStateFromCharge(ch *omise.Charge) *ChargeState {
	return chargeState(ch)
}
