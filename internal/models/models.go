package models

import "time"

// Customer is the persisted account holder. CustomerID is assigned by the
// store on first save.
type Customer struct {
	CustomerID   int64     `json:"-"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	MobileNumber string    `json:"mobileNumber"`
	CreatedAt    time.Time `json:"createdAt"`
	CreatedBy    string    `json:"createdBy"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
	UpdatedBy    string    `json:"updatedBy,omitempty"`
}

// Account is the persisted financial account. CustomerID is a lookup
// back-reference to the owning Customer.
type Account struct {
	AccountNumber int64     `json:"accountNumber"`
	CustomerID    int64     `json:"-"`
	AccountType   string    `json:"accountType"`
	BranchAddress string    `json:"branchAddress"`
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
	UpdatedBy     string    `json:"updatedBy,omitempty"`
}

// AccountDefaults are the fixed attributes given to every newly opened account.
type AccountDefaults struct {
	AccountType   string
	BranchAddress string
}

// ContactInfo is served as-is from configuration by the contact-info endpoint.
type ContactInfo struct {
	Message        string         `json:"message"`
	ContactDetails ContactDetails `json:"contactDetails"`
	OnCallSupport  []string       `json:"onCallSupport"`
}

type ContactDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
