package repository

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ckumar010398/accounts-ms/internal/models"
	sharedredis "github.com/ckumar010398/accounts-ms/internal/redis"
)

const customerViewKeyPrefix = "customer:view:"

// AccountReadRepository is the Redis read model of the composite
// customer+account view, keyed by mobile number.
type AccountReadRepository struct {
	cache *sharedredis.ViewCache[models.CustomerView]
}

func NewAccountReadRepository(redisClient *goredis.Client, ttl time.Duration) *AccountReadRepository {
	return &AccountReadRepository{
		cache: sharedredis.NewViewCache[models.CustomerView](redisClient, customerViewKeyPrefix, ttl),
	}
}

func (r *AccountReadRepository) GetByMobileNumber(ctx context.Context, mobileNumber string) (*models.CustomerView, bool) {
	return r.cache.Get(ctx, mobileNumber)
}

// CustomerViewVersion returns the token to pass to CacheCustomerView. It must
// be read before the view is loaded from the write store.
func (r *AccountReadRepository) CustomerViewVersion(ctx context.Context, mobileNumber string) (string, error) {
	return r.cache.Version(ctx, mobileNumber)
}

// CacheCustomerView stores the view under its own mobile number unless that
// mobile number was invalidated after version was read.
func (r *AccountReadRepository) CacheCustomerView(ctx context.Context, view *models.CustomerView, version string) bool {
	return r.cache.SetIfVersion(ctx, view.MobileNumber, view, version)
}

// InvalidateCustomerView drops the cached views of every given mobile number
// and rejects writes of views loaded before the call.
func (r *AccountReadRepository) InvalidateCustomerView(ctx context.Context, mobileNumbers ...string) {
	r.cache.Delete(ctx, mobileNumbers...)
}
