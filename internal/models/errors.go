package models

import (
	"errors"
	"fmt"
)

const (
	ResourceCustomer = "Customer"
	ResourceAccount  = "Account"
)

// Sentinels returned by the customer and account stores.
var (
	ErrRecordNotFound        = errors.New("record not found")
	ErrDuplicateMobileNumber = errors.New("mobile number already registered")
	ErrAccountNumberTaken    = errors.New("account number already in use")
	ErrCustomerHasAccounts   = errors.New("customer still has accounts")
)

// NotFoundError reports a missing Customer or Account together with the key
// that was used to look it up.
type NotFoundError struct {
	Resource string
	Field    string
	Value    string
}

func NewNotFoundError(resource, field string, value any) *NotFoundError {
	return &NotFoundError{Resource: resource, Field: field, Value: fmt.Sprint(value)}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with the given input data %s : '%s'", e.Resource, e.Field, e.Value)
}

// DuplicateEntityError reports a creation conflict on a natural key.
type DuplicateEntityError struct {
	Resource string
	Field    string
	Value    string
}

func NewDuplicateEntityError(resource, field string, value any) *DuplicateEntityError {
	return &DuplicateEntityError{Resource: resource, Field: field, Value: fmt.Sprint(value)}
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("%s already registered with given %s %s", e.Resource, e.Field, e.Value)
}

// IsNotFound reports whether err is a NotFoundError for the given resource.
// An empty resource matches any NotFoundError.
func IsNotFound(err error, resource string) bool {
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		return false
	}
	return resource == "" || nf.Resource == resource
}

// IsDuplicate reports whether err is a DuplicateEntityError.
func IsDuplicate(err error) bool {
	var de *DuplicateEntityError
	return errors.As(err, &de)
}
