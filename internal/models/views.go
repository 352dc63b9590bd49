package models

// CustomerView is the external shape of a customer. On fetch it is the
// composite view carrying the customer's account; on update the Account
// sub-view is optional. The mobilenumber and accountnumber validation tags
// are registered by the middleware package.
type CustomerView struct {
	Name         string       `json:"name" validate:"required,min=3,max=30"`
	Email        string       `json:"email" validate:"required,email"`
	MobileNumber string       `json:"mobileNumber" validate:"required,mobilenumber"`
	Account      *AccountView `json:"account,omitempty"`
}

// AccountView is the external shape of an account.
type AccountView struct {
	AccountNumber int64  `json:"accountNumber" validate:"required,accountnumber"`
	AccountType   string `json:"accountType" validate:"required"`
	BranchAddress string `json:"branchAddress" validate:"required"`
}
