package query

import (
	"context"
	"errors"
	"log"

	"github.com/ckumar010398/accounts-ms/internal/cqrs"
	"github.com/ckumar010398/accounts-ms/internal/events"
	"github.com/ckumar010398/accounts-ms/internal/mapper"
	"github.com/ckumar010398/accounts-ms/internal/models"
)

type CustomerFinder interface {
	FindByMobileNumber(ctx context.Context, mobileNumber string) (*models.Customer, error)
}

type AccountFinder interface {
	FindByCustomerID(ctx context.Context, customerID int64) (*models.Account, error)
}

// ViewStore is the read model of composite customer views. A view is cached
// only with the version read before it was loaded, so a view loaded before a
// concurrent invalidation is dropped instead of written back.
type ViewStore interface {
	GetByMobileNumber(ctx context.Context, mobileNumber string) (*models.CustomerView, bool)
	CustomerViewVersion(ctx context.Context, mobileNumber string) (string, error)
	CacheCustomerView(ctx context.Context, view *models.CustomerView, version string) bool
	InvalidateCustomerView(ctx context.Context, mobileNumbers ...string)
}

type AccountQueryService struct {
	customers CustomerFinder
	accounts  AccountFinder
	views     ViewStore
}

func NewAccountQueryService(customers CustomerFinder, accounts AccountFinder, views ViewStore) *AccountQueryService {
	return &AccountQueryService{customers: customers, accounts: accounts, views: views}
}

// FetchAccount returns the composite view for the mobile number, from the
// read model when present and from the stores otherwise.
func (s *AccountQueryService) FetchAccount(ctx context.Context, q cqrs.FetchAccountQuery) (*models.CustomerView, error) {
	if view, ok := s.views.GetByMobileNumber(ctx, q.MobileNumber); ok {
		return view, nil
	}
	return s.load(ctx, q.MobileNumber)
}

// load reads the customer, then its account, and warms the read model.
func (s *AccountQueryService) load(ctx context.Context, mobileNumber string) (*models.CustomerView, error) {
	version, versionErr := s.views.CustomerViewVersion(ctx, mobileNumber)
	if versionErr != nil {
		log.Printf("Serving %s without caching: %v", mobileNumber, versionErr)
	}

	customer, err := s.customers.FindByMobileNumber(ctx, mobileNumber)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, models.NewNotFoundError(models.ResourceCustomer, "mobileNumber", mobileNumber)
	}
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByCustomerID(ctx, customer.CustomerID)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, models.NewNotFoundError(models.ResourceAccount, "customerId", customer.CustomerID)
	}
	if err != nil {
		return nil, err
	}

	view := mapper.ToCompositeView(customer, account)
	if versionErr == nil && !s.views.CacheCustomerView(ctx, view, version) {
		log.Printf("View of %s not cached: invalidated while loading or cache unavailable", mobileNumber)
	}
	return view, nil
}

// HandleAccountEvent projects account.events onto the read model: created and
// updated pairs are reloaded into the cache, deleted ones are evicted.
func (s *AccountQueryService) HandleAccountEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.AccountCreated:
		var data events.AccountCreatedEvent
		if err := events.Decode(event, &data); err != nil {
			return err
		}
		return s.refresh(ctx, data.MobileNumber)
	case events.AccountUpdated:
		var data events.AccountUpdatedEvent
		if err := events.Decode(event, &data); err != nil {
			return err
		}
		if data.PreviousMobileNumber != data.MobileNumber {
			s.views.InvalidateCustomerView(ctx, data.PreviousMobileNumber)
		}
		return s.refresh(ctx, data.MobileNumber)
	case events.AccountDeleted:
		var data events.AccountDeletedEvent
		if err := events.Decode(event, &data); err != nil {
			return err
		}
		s.views.InvalidateCustomerView(ctx, data.MobileNumber)
	default:
		log.Printf("Ignoring unknown account event type %q", event.Type)
	}
	return nil
}

// refresh tolerates the pair having gone away since the event was written.
func (s *AccountQueryService) refresh(ctx context.Context, mobileNumber string) error {
	_, err := s.load(ctx, mobileNumber)
	if models.IsNotFound(err, "") {
		s.views.InvalidateCustomerView(ctx, mobileNumber)
		return nil
	}
	return err
}
