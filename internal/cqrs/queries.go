package cqrs

// FetchAccountQuery fetches the composite customer+account view for a mobile number.
type FetchAccountQuery struct {
	MobileNumber string
}
