// Package memory is an in-process implementation of the customer and account
// stores with the same contracts as the PostgreSQL repositories, including
// the mobile number unique index and the account-number conflict rule.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ckumar010398/accounts-ms/internal/models"
)

// Store holds both tables behind one lock. A transaction holds the lock for
// its whole duration and restores a snapshot when it fails.
type Store struct {
	mu        sync.Mutex
	nextID    int64
	customers map[int64]models.Customer
	accounts  map[int64]models.Account
}

func NewStore() *Store {
	return &Store{
		customers: make(map[int64]models.Customer),
		accounts:  make(map[int64]models.Account),
	}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx runs fn with exclusive access to both tables.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	nextID := s.nextID
	customers := make(map[int64]models.Customer, len(s.customers))
	for k, v := range s.customers {
		customers[k] = v
	}
	accounts := make(map[int64]models.Account, len(s.accounts))
	for k, v := range s.accounts {
		accounts[k] = v
	}

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.nextID, s.customers, s.accounts = nextID, customers, accounts
		return err
	}
	return nil
}

// Customers returns the customer table view of the store.
func (s *Store) Customers() *CustomerRepository { return &CustomerRepository{s: s} }

// Accounts returns the account table view of the store.
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{s: s} }

// Snapshot copies both tables, sorted by key, for comparisons in tests and debugging.
func (s *Store) Snapshot() ([]models.Customer, []models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	customers := make([]models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].CustomerID < customers[j].CustomerID })
	accounts := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].AccountNumber < accounts[j].AccountNumber })
	return customers, accounts
}

type CustomerRepository struct{ s *Store }

func (r *CustomerRepository) FindByMobileNumber(ctx context.Context, mobileNumber string) (*models.Customer, error) {
	defer r.s.lock(ctx)()
	for _, c := range r.s.customers {
		if c.MobileNumber == mobileNumber {
			c := c
			return &c, nil
		}
	}
	return nil, models.ErrRecordNotFound
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*models.Customer, error) {
	defer r.s.lock(ctx)()
	c, ok := r.s.customers[customerID]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &c, nil
}

func (r *CustomerRepository) Save(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	defer r.s.lock(ctx)()
	for id, c := range r.s.customers {
		if id != customer.CustomerID && c.MobileNumber == customer.MobileNumber {
			return nil, models.ErrDuplicateMobileNumber
		}
	}
	saved := *customer
	if saved.CustomerID == 0 {
		r.s.nextID++
		saved.CustomerID = r.s.nextID
	} else if _, ok := r.s.customers[saved.CustomerID]; !ok {
		return nil, models.ErrRecordNotFound
	}
	r.s.customers[saved.CustomerID] = saved
	return &saved, nil
}

// DeleteByID fails with models.ErrCustomerHasAccounts while any account still
// references the customer.
func (r *CustomerRepository) DeleteByID(ctx context.Context, customerID int64) error {
	defer r.s.lock(ctx)()
	for _, a := range r.s.accounts {
		if a.CustomerID == customerID {
			return models.ErrCustomerHasAccounts
		}
	}
	delete(r.s.customers, customerID)
	return nil
}

type AccountRepository struct{ s *Store }

func (r *AccountRepository) FindByID(ctx context.Context, accountNumber int64) (*models.Account, error) {
	defer r.s.lock(ctx)()
	a, ok := r.s.accounts[accountNumber]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &a, nil
}

func (r *AccountRepository) FindByCustomerID(ctx context.Context, customerID int64) (*models.Account, error) {
	defer r.s.lock(ctx)()
	var found *models.Account
	for _, a := range r.s.accounts {
		if a.CustomerID != customerID {
			continue
		}
		if found == nil || a.CreatedAt.Before(found.CreatedAt) ||
			(a.CreatedAt.Equal(found.CreatedAt) && a.AccountNumber < found.AccountNumber) {
			a := a
			found = &a
		}
	}
	if found == nil {
		return nil, models.ErrRecordNotFound
	}
	return found, nil
}

func (r *AccountRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	defer r.s.lock(ctx)()
	if _, ok := r.s.customers[account.CustomerID]; !ok {
		return nil, models.ErrRecordNotFound
	}
	saved := *account
	if existing, ok := r.s.accounts[account.AccountNumber]; ok {
		if existing.CustomerID != account.CustomerID {
			return nil, models.ErrAccountNumberTaken
		}
		saved.CreatedAt, saved.CreatedBy = existing.CreatedAt, existing.CreatedBy
	}
	r.s.accounts[saved.AccountNumber] = saved
	return &saved, nil
}

func (r *AccountRepository) DeleteByCustomerID(ctx context.Context, customerID int64) error {
	defer r.s.lock(ctx)()
	for n, a := range r.s.accounts {
		if a.CustomerID == customerID {
			delete(r.s.accounts, n)
		}
	}
	return nil
}
