package cqrs

import "github.com/ckumar010398/accounts-ms/internal/models"

// CreateAccountCommand registers a new customer and opens their account.
type CreateAccountCommand struct {
	Name         string
	Email        string
	MobileNumber string
}

// UpdateAccountCommand carries the customer fields to overwrite. The account
// to change is identified by Account.AccountNumber; when Account is nil the
// command is a no-op.
type UpdateAccountCommand struct {
	Name         string
	Email        string
	MobileNumber string
	Account      *models.AccountView
}

// DeleteAccountCommand removes a customer and their account.
type DeleteAccountCommand struct {
	MobileNumber string
}

// View returns the customer fields of the command as a view, for mapping.
func (c CreateAccountCommand) View() *models.CustomerView {
	return &models.CustomerView{Name: c.Name, Email: c.Email, MobileNumber: c.MobileNumber}
}

func (c UpdateAccountCommand) View() *models.CustomerView {
	return &models.CustomerView{Name: c.Name, Email: c.Email, MobileNumber: c.MobileNumber, Account: c.Account}
}
