// Package mapper copies fields between the external view shapes and the
// persisted records. Audit fields and identities are never touched here.
package mapper

import "github.com/ckumar010398/accounts-ms/internal/models"

// ToCustomerView copies the customer's identity fields into view.
func ToCustomerView(c *models.Customer, view *models.CustomerView) *models.CustomerView {
	view.Name = c.Name
	view.Email = c.Email
	view.MobileNumber = c.MobileNumber
	return view
}

// ToCustomer copies the view's identity fields onto c.
func ToCustomer(view *models.CustomerView, c *models.Customer) *models.Customer {
	c.Name = view.Name
	c.Email = view.Email
	c.MobileNumber = view.MobileNumber
	return c
}

func ToAccountView(a *models.Account, view *models.AccountView) *models.AccountView {
	view.AccountNumber = a.AccountNumber
	view.AccountType = a.AccountType
	view.BranchAddress = a.BranchAddress
	return view
}

func ToAccount(view *models.AccountView, a *models.Account) *models.Account {
	a.AccountNumber = view.AccountNumber
	a.AccountType = view.AccountType
	a.BranchAddress = view.BranchAddress
	return a
}

// ToCompositeView builds the fetch response from a customer and its account.
func ToCompositeView(c *models.Customer, a *models.Account) *models.CustomerView {
	view := ToCustomerView(c, &models.CustomerView{})
	view.Account = ToAccountView(a, &models.AccountView{})
	return view
}
