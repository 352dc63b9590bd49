package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ViewCache is a JSON-backed Redis cache for one read-model type. Keys are
// namespaced with prefix; a zero ttl stores keys without expiry. Version
// tokens live as long as the values they guard.
type ViewCache[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewViewCache[T any](client *goredis.Client, prefix string, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl}
}

// Get returns (nil, false) on a miss or when the stored value cannot be decoded.
func (c *ViewCache[T]) Get(ctx context.Context, id string) (*T, bool) {
	data, err := c.client.Get(ctx, c.prefix+id).Bytes()
	if err != nil {
		if err != goredis.Nil {
			log.Printf("ViewCache: read error for key %s: %v", c.prefix+id, err)
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		log.Printf("ViewCache: corrupt entry for key %s: %v", c.prefix+id, err)
		return nil, false
	}
	return &v, true
}

// versionSuffix names the key holding the token that Delete rotates for an id.
const versionSuffix = ":version"

// setIfVersion writes KEYS[1] only while KEYS[2] still holds ARGV[1]; a
// missing token compares equal to "".
var setIfVersion = goredis.NewScript(`
local current = redis.call('GET', KEYS[2])
if not current then current = '' end
if current ~= ARGV[1] then return 0 end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// Version returns the token a later SetIfVersion must present. Read it before
// loading the value from the source of truth.
func (c *ViewCache[T]) Version(ctx context.Context, id string) (string, error) {
	version, err := c.client.Get(ctx, c.prefix+id+versionSuffix).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read version of %s: %w", c.prefix+id, err)
	}
	return version, nil
}

// SetIfVersion stores value unless id was deleted since version was read, so
// a value loaded before a concurrent Delete is never written back. It reports
// whether the value was stored; errors are logged.
func (c *ViewCache[T]) SetIfVersion(ctx context.Context, id string, value *T, version string) bool {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("ViewCache: marshal error for key %s: %v", c.prefix+id, err)
		return false
	}
	keys := []string{c.prefix + id, c.prefix + id + versionSuffix}
	stored, err := setIfVersion.Run(ctx, c.client, keys, version, data, c.ttl.Milliseconds()).Int()
	if err != nil {
		log.Printf("ViewCache: write error for key %s: %v", c.prefix+id, err)
		return false
	}
	return stored == 1
}

// Delete evicts every given id and rotates its version in one transaction.
// Empty ids are skipped.
func (c *ViewCache[T]) Delete(ctx context.Context, ids ...string) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			keys = append(keys, c.prefix+id)
		}
	}
	if len(keys) == 0 {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, key := range keys {
			pipe.Set(ctx, key+versionSuffix, uuid.NewString(), c.ttl)
		}
		return nil
	})
	if err != nil {
		log.Printf("ViewCache: delete error for keys %v: %v", keys, err)
	}
}
