package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"thirdcoast.systems/leadwatch/internal/db"
)

// Claimer serializes the window between the ledger check and the ticket
// request for one external id. A claim that is not granted means another
// invocation owns the comment right now.
type Claimer interface {
	Claim(ctx context.Context, externalID string) (release func(), ok bool, err error)
}

func noop() {}

// LocalClaimer only protects callers inside this process.
type LocalClaimer struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalClaimer() *LocalClaimer {
	return &LocalClaimer{held: make(map[string]struct{})}
}

func (c *LocalClaimer) Claim(ctx context.Context, externalID string) (func(), bool, error) {
	if err := ctx.Err(); err != nil {
		return noop, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.held[externalID]; busy {
		return noop, false, nil
	}
	c.held[externalID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.held, externalID)
			c.mu.Unlock()
		})
	}, true, nil
}

// releaseScript deletes the key only while it still holds our token, so an
// expired claim taken over by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClaimer shares claims between processes through SET NX PX.
type RedisClaimer struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisClaimer(rdb redis.UniversalClient, ttl time.Duration) *RedisClaimer {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisClaimer{rdb: rdb, prefix: "leadwatch:claim:", ttl: ttl}
}

func (c *RedisClaimer) key(externalID string) string {
	return c.prefix + externalID
}

func (c *RedisClaimer) Claim(ctx context.Context, externalID string) (func(), bool, error) {
	key := c.key(externalID)
	token := uuid.NewString()

	ok, err := c.rdb.SetNX(ctx, key, token, c.ttl).Result()
	if err != nil {
		return noop, false, fmt.Errorf("claim %q: %w", externalID, err)
	}
	if !ok {
		return noop, false, nil
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, c.rdb, []string{key}, token).Err(); err != nil {
				slog.Warn("release claim failed", "external_id", externalID, "error", err)
			}
		})
	}, true, nil
}

// PostgresClaimer keeps claims in the lead_claims table so every process
// sharing the database sees them. An expired row can be taken over by the
// next caller.
type PostgresClaimer struct {
	q   db.Querier
	ttl time.Duration
}

func NewPostgresClaimer(q db.Querier, ttl time.Duration) *PostgresClaimer {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &PostgresClaimer{q: q, ttl: ttl}
}

func (c *PostgresClaimer) Claim(ctx context.Context, externalID string) (func(), bool, error) {
	token := uuid.New()

	n, err := c.q.AcquireLeadClaim(ctx, &db.AcquireLeadClaimParams{
		ExternalID: externalID,
		Token:      db.PgUUID(token),
		TtlSeconds: c.ttl.Seconds(),
	})
	if err != nil {
		return noop, false, fmt.Errorf("claim %q: %w", externalID, err)
	}
	if n == 0 {
		return noop, false, nil
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, err := c.q.ReleaseLeadClaim(rctx, &db.ReleaseLeadClaimParams{
				ExternalID: externalID,
				Token:      db.PgUUID(token),
			})
			if err != nil {
				slog.Warn("release claim failed", "external_id", externalID, "error", err)
			}
		})
	}, true, nil
}

var (
	_ Claimer = (*LocalClaimer)(nil)
	_ Claimer = (*RedisClaimer)(nil)
	_ Claimer = (*PostgresClaimer)(nil)
)
