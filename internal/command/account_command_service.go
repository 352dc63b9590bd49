package command

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ckumar010398/accounts-ms/internal/cqrs"
	"github.com/ckumar010398/accounts-ms/internal/events"
	"github.com/ckumar010398/accounts-ms/internal/mapper"
	"github.com/ckumar010398/accounts-ms/internal/models"
)

// CustomerStore is the customer persistence the command side depends on.
// Lookups return models.ErrRecordNotFound when nothing matches.
type CustomerStore interface {
	FindByMobileNumber(ctx context.Context, mobileNumber string) (*models.Customer, error)
	FindByID(ctx context.Context, customerID int64) (*models.Customer, error)
	Save(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	DeleteByID(ctx context.Context, customerID int64) error
}

// AccountStore is the account persistence the command side depends on.
type AccountStore interface {
	FindByID(ctx context.Context, accountNumber int64) (*models.Account, error)
	FindByCustomerID(ctx context.Context, customerID int64) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) (*models.Account, error)
	DeleteByCustomerID(ctx context.Context, customerID int64) error
}

// Transactor runs fn so that every store call made with the ctx it receives
// commits or rolls back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ViewInvalidator evicts cached composite views.
type ViewInvalidator interface {
	InvalidateCustomerView(ctx context.Context, mobileNumbers ...string)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// Settings holds the configured values the command side stamps on records.
type Settings struct {
	Defaults models.AccountDefaults
	// MaxAttempts bounds how many account numbers are tried when opening an account.
	MaxAttempts int
	// Auditor is written to created_by/updated_by.
	Auditor string
	// GenerateAccountNumber draws a candidate account number.
	GenerateAccountNumber func() int64
	Now                   func() time.Time
}

// AccountCommandService creates, updates and deletes customer/account pairs
// and keeps the read model in sync.
type AccountCommandService struct {
	customers CustomerStore
	accounts  AccountStore
	tx        Transactor
	views     ViewInvalidator
	publisher EventPublisher
	settings  Settings
}

func NewAccountCommandService(
	customers CustomerStore,
	accounts AccountStore,
	tx Transactor,
	views ViewInvalidator,
	publisher EventPublisher,
	settings Settings,
) *AccountCommandService {
	if settings.MaxAttempts < 1 {
		settings.MaxAttempts = 1
	}
	if settings.Now == nil {
		settings.Now = func() time.Time { return time.Now().UTC() }
	}
	return &AccountCommandService{
		customers: customers,
		accounts:  accounts,
		tx:        tx,
		views:     views,
		publisher: publisher,
		settings:  settings,
	}
}

// CreateAccount registers the customer and opens their account in one
// transaction. An already registered mobile number fails with a
// DuplicateEntityError before anything is written.
func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) error {
	_, err := s.customers.FindByMobileNumber(ctx, cmd.MobileNumber)
	if err == nil {
		return models.NewDuplicateEntityError(models.ResourceCustomer, "mobileNumber", cmd.MobileNumber)
	}
	if !errors.Is(err, models.ErrRecordNotFound) {
		return err
	}

	now := s.settings.Now()
	customer := mapper.ToCustomer(cmd.View(), &models.Customer{
		CreatedAt: now,
		CreatedBy: s.settings.Auditor,
	})

	var account *models.Account
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		saved, err := s.customers.Save(ctx, customer)
		if errors.Is(err, models.ErrDuplicateMobileNumber) {
			return models.NewDuplicateEntityError(models.ResourceCustomer, "mobileNumber", cmd.MobileNumber)
		}
		if err != nil {
			return err
		}
		customer = saved
		account, err = s.openAccount(ctx, saved.CustomerID, now)
		return err
	})
	if err != nil {
		return err
	}

	// Drop anything cached under this mobile by a concurrent read of a
	// previously deleted customer.
	s.views.InvalidateCustomerView(ctx, customer.MobileNumber)
	s.publish(ctx, events.AccountCreated, events.AccountCreatedEvent{
		AccountNumber: account.AccountNumber,
		CustomerID:    customer.CustomerID,
		MobileNumber:  customer.MobileNumber,
		AccountType:   account.AccountType,
	})
	return nil
}

// openAccount saves a new account for the customer, drawing a fresh number
// whenever the previous one is already held by another customer.
func (s *AccountCommandService) openAccount(ctx context.Context, customerID int64, now time.Time) (*models.Account, error) {
	for attempt := 1; attempt <= s.settings.MaxAttempts; attempt++ {
		account := &models.Account{
			AccountNumber: s.settings.GenerateAccountNumber(),
			CustomerID:    customerID,
			AccountType:   s.settings.Defaults.AccountType,
			BranchAddress: s.settings.Defaults.BranchAddress,
			CreatedAt:     now,
			CreatedBy:     s.settings.Auditor,
		}
		saved, err := s.accounts.Save(ctx, account)
		if errors.Is(err, models.ErrAccountNumberTaken) {
			log.Printf("Account number %d already taken (attempt %d/%d)", account.AccountNumber, attempt, s.settings.MaxAttempts)
			continue
		}
		if err != nil {
			return nil, err
		}
		return saved, nil
	}
	return nil, fmt.Errorf("failed to allocate account number after %d attempts: %w", s.settings.MaxAttempts, models.ErrAccountNumberTaken)
}

// UpdateAccount overwrites the account's type and branch address and the
// owning customer's name, email and mobile number. The customer is the one
// the stored account references, whatever mobile number the command carries.
// Without an account sub-view nothing is written and false is returned.
func (s *AccountCommandService) UpdateAccount(ctx context.Context, cmd cqrs.UpdateAccountCommand) (bool, error) {
	if cmd.Account == nil {
		return false, nil
	}

	var account *models.Account
	var customer *models.Customer
	var previousMobile string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		found, err := s.accounts.FindByID(ctx, cmd.Account.AccountNumber)
		if errors.Is(err, models.ErrRecordNotFound) {
			return models.NewNotFoundError(models.ResourceAccount, "accountNumber", cmd.Account.AccountNumber)
		}
		if err != nil {
			return err
		}

		now := s.settings.Now()
		found = mapper.ToAccount(cmd.Account, found)
		found.UpdatedAt, found.UpdatedBy = now, s.settings.Auditor
		account, err = s.accounts.Save(ctx, found)
		if errors.Is(err, models.ErrRecordNotFound) {
			return models.NewNotFoundError(models.ResourceCustomer, "customerId", found.CustomerID)
		}
		if err != nil {
			return err
		}

		customerID := account.CustomerID
		owner, err := s.customers.FindByID(ctx, customerID)
		if errors.Is(err, models.ErrRecordNotFound) {
			return models.NewNotFoundError(models.ResourceCustomer, "customerId", customerID)
		}
		if err != nil {
			return err
		}

		previousMobile = owner.MobileNumber
		owner = mapper.ToCustomer(cmd.View(), owner)
		owner.UpdatedAt, owner.UpdatedBy = now, s.settings.Auditor
		customer, err = s.customers.Save(ctx, owner)
		if errors.Is(err, models.ErrDuplicateMobileNumber) {
			return models.NewDuplicateEntityError(models.ResourceCustomer, "mobileNumber", cmd.MobileNumber)
		}
		return err
	})
	if err != nil {
		return false, err
	}

	s.views.InvalidateCustomerView(ctx, previousMobile, customer.MobileNumber)
	s.publish(ctx, events.AccountUpdated, events.AccountUpdatedEvent{
		AccountNumber:        account.AccountNumber,
		CustomerID:           customer.CustomerID,
		MobileNumber:         customer.MobileNumber,
		PreviousMobileNumber: previousMobile,
	})
	return true, nil
}

// DeleteAccount removes every account of the customer registered under the
// mobile number, then the customer, in one transaction. Once the customer is
// found it returns true without checking how many rows were removed.
func (s *AccountCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) (bool, error) {
	customer, err := s.customers.FindByMobileNumber(ctx, cmd.MobileNumber)
	if errors.Is(err, models.ErrRecordNotFound) {
		return false, models.NewNotFoundError(models.ResourceCustomer, "mobileNumber", cmd.MobileNumber)
	}
	if err != nil {
		return false, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.accounts.DeleteByCustomerID(ctx, customer.CustomerID); err != nil {
			return err
		}
		return s.customers.DeleteByID(ctx, customer.CustomerID)
	})
	if err != nil {
		return false, err
	}

	s.views.InvalidateCustomerView(ctx, customer.MobileNumber)
	s.publish(ctx, events.AccountDeleted, events.AccountDeletedEvent{
		CustomerID:   customer.CustomerID,
		MobileNumber: customer.MobileNumber,
	})
	return true, nil
}

func (s *AccountCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, eventType, data); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}
