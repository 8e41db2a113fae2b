package dto

// IdentityWebhook is a lifecycle event from the identity provider.
type IdentityWebhook struct {
	Type string            `json:"type"`
	Data IdentityEventData `json:"data"`
}

type IdentityEventData struct {
	ID             string `json:"id"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	Username  string `json:"username"`
	ImageURL  string `json:"image_url"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// PaymentWebhook is a finalized-payment notification. Delivery is
// at-least-once; replays are absorbed by the transaction log.
type PaymentWebhook struct {
	Type  string       `json:"type"`
	Event PaymentEvent `json:"event"`
}

type PaymentEvent struct {
	PaymentID      string `json:"payment_id"`
	BuyerID        string `json:"buyer_id"`
	AmountPaid     int64  `json:"amount_paid"`
	Currency       string `json:"currency"`
	Plan           string `json:"plan"`
	CreditsGranted int64  `json:"credits_granted"`
}
