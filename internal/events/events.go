package events

import "time"

// Event types
const (
	AccountCreated = "account.created"
	AccountUpdated = "account.updated"
	AccountDeleted = "account.deleted"
)

// AccountEventsStream carries every customer/account lifecycle event.
const AccountEventsStream = "account.events"

// Event is the envelope written to a stream entry under the "event" field.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type AccountCreatedEvent struct {
	AccountNumber int64  `json:"accountNumber"`
	CustomerID    int64  `json:"customerId"`
	MobileNumber  string `json:"mobileNumber"`
	AccountType   string `json:"accountType"`
}

// AccountUpdatedEvent carries the mobile number the customer had before the
// update so consumers can drop anything keyed by it.
type AccountUpdatedEvent struct {
	AccountNumber        int64  `json:"accountNumber"`
	CustomerID           int64  `json:"customerId"`
	MobileNumber         string `json:"mobileNumber"`
	PreviousMobileNumber string `json:"previousMobileNumber,omitempty"`
}

type AccountDeletedEvent struct {
	CustomerID   int64  `json:"customerId"`
	MobileNumber string `json:"mobileNumber"`
}
