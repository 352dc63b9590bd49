package query

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckumar010398/accounts-ms/internal/command"
	"github.com/ckumar010398/accounts-ms/internal/cqrs"
	"github.com/ckumar010398/accounts-ms/internal/events"
	"github.com/ckumar010398/accounts-ms/internal/models"
	"github.com/ckumar010398/accounts-ms/internal/repository"
	"github.com/ckumar010398/accounts-ms/internal/repository/memory"
	"github.com/ckumar010398/accounts-ms/internal/utils"
)

// mapViews is an in-process ViewStore. Every invalidation bumps the
// mobile number's version.
type mapViews struct {
	m        map[string]models.CustomerView
	versions map[string]int
	hits     int
}

func newMapViews() *mapViews {
	return &mapViews{m: make(map[string]models.CustomerView), versions: make(map[string]int)}
}

func (v *mapViews) GetByMobileNumber(ctx context.Context, mobileNumber string) (*models.CustomerView, bool) {
	view, ok := v.m[mobileNumber]
	if ok {
		v.hits++
	}
	return &view, ok
}

func (v *mapViews) CustomerViewVersion(ctx context.Context, mobileNumber string) (string, error) {
	return strconv.Itoa(v.versions[mobileNumber]), nil
}

func (v *mapViews) CacheCustomerView(ctx context.Context, view *models.CustomerView, version string) bool {
	if strconv.Itoa(v.versions[view.MobileNumber]) != version {
		return false
	}
	v.m[view.MobileNumber] = *view
	return true
}

func (v *mapViews) InvalidateCustomerView(ctx context.Context, mobileNumbers ...string) {
	for _, m := range mobileNumbers {
		delete(v.m, m)
		v.versions[m]++
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, stream, eventType string, data any) error { return nil }

const branch = "123 Main Street, New York"

func newCommands(store *memory.Store, views command.ViewInvalidator) *command.AccountCommandService {
	return command.NewAccountCommandService(store.Customers(), store.Accounts(), store, views, nopPublisher{}, command.Settings{
		Defaults:              models.AccountDefaults{AccountType: "Savings", BranchAddress: branch},
		MaxAttempts:           5,
		Auditor:               "Account_MS",
		GenerateAccountNumber: utils.GenerateAccountNumber,
	})
}

func newServices(t *testing.T) (*command.AccountCommandService, *AccountQueryService, *memory.Store, *mapViews) {
	t.Helper()
	store := memory.NewStore()
	views := newMapViews()
	qrys := NewAccountQueryService(store.Customers(), store.Accounts(), views)
	return newCommands(store, views), qrys, store, views
}

func TestCreateThenFetch(t *testing.T) {
	cmds, qrys, _, views := newServices(t)
	ctx := context.Background()

	require.NoError(t, cmds.CreateAccount(ctx, cqrs.CreateAccountCommand{Name: "John Doe", Email: "john@x.com", MobileNumber: "9876543210"}))

	view, err := qrys.FetchAccount(ctx, cqrs.FetchAccountQuery{MobileNumber: "9876543210"})
	require.NoError(t, err)
	assert.Equal(t, "John Doe", view.Name)
	assert.Equal(t, "john@x.com", view.Email)
	assert.Equal(t, "9876543210", view.MobileNumber)
	require.NotNil(t, view.Account)
	assert.Equal(t, "Savings", view.Account.AccountType)
	assert.Equal(t, branch, view.Account.BranchAddress)
	assert.GreaterOrEqual(t, view.Account.AccountNumber, int64(1_000_000_000))
	assert.Less(t, view.Account.AccountNumber, int64(1_090_000_000))

	again, err := qrys.FetchAccount(ctx, cqrs.FetchAccountQuery{MobileNumber: "9876543210"})
	require.NoError(t, err)
	assert.Equal(t, view, again)
	assert.Equal(t, 1, views.hits, "second fetch is served by the read model")
}

func TestFetchUnknownMobileNumber(t *testing.T) {
	_, qrys, _, _ := newServices(t)

	_, err := qrys.FetchAccount(context.Background(), cqrs.FetchAccountQuery{MobileNumber: "0000000000"})

	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, models.ResourceCustomer, nf.Resource)
	assert.Equal(t, "mobileNumber", nf.Field)
	assert.Equal(t, "0000000000", nf.Value)
}

func TestFetchCustomerWithoutAccount(t *testing.T) {
	_, qrys, store, _ := newServices(t)
	ctx := context.Background()
	c, err := store.Customers().Save(ctx, &models.Customer{Name: "Lonely", MobileNumber: "1111111111", CreatedAt: time.Now()})
	require.NoError(t, err)

	_, err = qrys.FetchAccount(ctx, cqrs.FetchAccountQuery{MobileNumber: "1111111111"})

	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, models.ResourceAccount, nf.Resource)
	assert.Equal(t, "customerId", nf.Field)
	assert.Equal(t, "1", nf.Value)
	assert.Equal(t, int64(1), c.CustomerID)
}

func TestDeleteThenFetch(t *testing.T) {
	cmds, qrys, _, _ := newServices(t)
	ctx := context.Background()
	require.NoError(t, cmds.CreateAccount(ctx, cqrs.CreateAccountCommand{Name: "John Doe", Email: "john@x.com", MobileNumber: "9876543210"}))
	_, err := qrys.FetchAccount(ctx, cqrs.FetchAccountQuery{MobileNumber: "9876543210"})
	require.NoError(t, err)

	deleted, err := cmds.DeleteAccount(ctx, cqrs.DeleteAccountCommand{MobileNumber: "9876543210"})
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = qrys.FetchAccount(ctx, cqrs.FetchAccountQuery{MobileNumber: "9876543210"})
	assert.True(t, models.IsNotFound(err, models.ResourceCustomer))
}

func TestUpdateThenFetchByNewMobile(t *testing.T) {
	cmds, qrys, _, _ := newServices(t)
	ctx := context.Background()
	require.NoError(t, cmds.CreateAccount(ctx, cqrs.CreateAccountCommand{Name: "John Doe", Email: "john@x.com", MobileNumber: "9876543210"}))
	view, err := qrys.FetchAccount(ctx, cqrs.FetchAccountQuery{MobileNumber: "9876543210"})
	require.NoError(t, err)

	ok, err := cmds.UpdateAccount(ctx, cqrs.UpdateAccountCommand{
		Name: "John Doe", Email: "john@x.com", MobileNumber: "5555555555",
		Account: &models.AccountView{AccountNumber: view.Account.AccountNumber, AccountType: "Current", BranchAddress: branch},
	})
	require.NoError(t, err)
	require.True(t, ok)

	_, err = qrys.FetchAccount(ctx, cqrs.FetchAccountQuery{MobileNumber: "9876543210"})
	assert.True(t, models.IsNotFound(err, models.ResourceCustomer), "the old mobile's cached view must be gone")

	moved, err := qrys.FetchAccount(ctx, cqrs.FetchAccountQuery{MobileNumber: "5555555555"})
	require.NoError(t, err)
	assert.Equal(t, "Current", moved.Account.AccountType)
}

func TestHandleAccountEvent(t *testing.T) {
	cmds, qrys, _, views := newServices(t)
	ctx := context.Background()
	require.NoError(t, cmds.CreateAccount(ctx, cqrs.CreateAccountCommand{Name: "John Doe", Email: "john@x.com", MobileNumber: "9876543210"}))

	// Payloads arrive as decoded JSON maps from the stream.
	created := events.Event{Type: events.AccountCreated, Data: map[string]any{"mobileNumber": "9876543210"}}
	require.NoError(t, qrys.HandleAccountEvent(ctx, created))
	assert.Contains(t, views.m, "9876543210")

	deleted := events.Event{Type: events.AccountDeleted, Data: map[string]any{"mobileNumber": "9876543210"}}
	require.NoError(t, qrys.HandleAccountEvent(ctx, deleted))
	assert.NotContains(t, views.m, "9876543210")

	stale := events.Event{Type: events.AccountUpdated, Data: map[string]any{"mobileNumber": "4444444444", "previousMobileNumber": "3333333333"}}
	require.NoError(t, qrys.HandleAccountEvent(ctx, stale), "a pair deleted since the event was written is skipped")

	require.NoError(t, qrys.HandleAccountEvent(ctx, events.Event{Type: "something.else"}))
}

type brokenFinder struct{}

func (brokenFinder) FindByMobileNumber(ctx context.Context, mobileNumber string) (*models.Customer, error) {
	return nil, errors.New("connection refused")
}

func TestFetchPropagatesStoreErrors(t *testing.T) {
	qrys := NewAccountQueryService(brokenFinder{}, memory.NewStore().Accounts(), newMapViews())

	_, err := qrys.FetchAccount(context.Background(), cqrs.FetchAccountQuery{MobileNumber: "9876543210"})
	require.Error(t, err)
	assert.False(t, models.IsNotFound(err, ""))
}

// interleavedViews runs beforeWrite once, between the store reads of a fetch
// and its cache write.
type interleavedViews struct {
	ViewStore
	beforeWrite func()
}

func (v *interleavedViews) CacheCustomerView(ctx context.Context, view *models.CustomerView, version string) bool {
	if f := v.beforeWrite; f != nil {
		v.beforeWrite = nil
		f()
	}
	return v.ViewStore.CacheCustomerView(ctx, view, version)
}

func TestFetchDoesNotRecacheViewChangedWhileLoading(t *testing.T) {
	tests := []struct {
		name  string
		write func(t *testing.T, cmds *command.AccountCommandService, accountNumber int64)
	}{
		{
			name: "customer deleted",
			write: func(t *testing.T, cmds *command.AccountCommandService, _ int64) {
				deleted, err := cmds.DeleteAccount(context.Background(), cqrs.DeleteAccountCommand{MobileNumber: "9876543210"})
				require.NoError(t, err)
				require.True(t, deleted)
			},
		},
		{
			name: "mobile number changed",
			write: func(t *testing.T, cmds *command.AccountCommandService, accountNumber int64) {
				ok, err := cmds.UpdateAccount(context.Background(), cqrs.UpdateAccountCommand{
					Name: "John Doe", Email: "john@x.com", MobileNumber: "5555555555",
					Account: &models.AccountView{AccountNumber: accountNumber, AccountType: "Savings", BranchAddress: branch},
				})
				require.NoError(t, err)
				require.True(t, ok)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr := miniredis.RunT(t)
			client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			readRepo := repository.NewAccountReadRepository(client, 10*time.Minute)

			store := memory.NewStore()
			cmds := newCommands(store, readRepo)
			ctx := context.Background()
			require.NoError(t, cmds.CreateAccount(ctx, cqrs.CreateAccountCommand{Name: "John Doe", Email: "john@x.com", MobileNumber: "9876543210"}))
			_, accounts := store.Snapshot()
			require.Len(t, accounts, 1)

			views := &interleavedViews{ViewStore: readRepo}
			views.beforeWrite = func() { tt.write(t, cmds, accounts[0].AccountNumber) }
			qrys := NewAccountQueryService(store.Customers(), store.Accounts(), views)

			view, err := qrys.FetchAccount(ctx, cqrs.FetchAccountQuery{MobileNumber: "9876543210"})
			require.NoError(t, err, "the racing fetch still answers from what it read")
			assert.Equal(t, "9876543210", view.MobileNumber)
			assert.False(t, mr.Exists("customer:view:9876543210"))

			_, err = qrys.FetchAccount(ctx, cqrs.FetchAccountQuery{MobileNumber: "9876543210"})
			assert.True(t, models.IsNotFound(err, models.ResourceCustomer), "got %v", err)
		})
	}
}
