package model

type ConfirmCardPaymentRequest struct {
	Provider           string `json:"provider"`
	EventID            string `json:"event_id"`
	ExternalPaymentRef string `json:"external_payment_ref"`
	Status             string `json:"status"`

	// Signature is the hex HMAC-SHA256 of the event fields under the shared
	// webhook secret.
	Signature string `json:"signature"`
}

type ConfirmCardPaymentResponse struct {
	Duplicated bool    `json:"duplicated"`
	Sale       Sale    `json:"sale"`
	Entries    []Entry `json:"entries"`
}
