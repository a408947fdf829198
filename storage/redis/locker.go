package redislock

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/seating/core"
	"github.com/trezcool/seating/core/seating"
)

const (
	lockKeyPrefix = "seating:lock:class:"
	retryDelay    = 25 * time.Millisecond
)

// unlockScript deletes the lock only if it is still held with our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the lock TTL only if it is still held with our token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Locker is a seating.Locker shared by every process using the same redis server.
// A held lock is extended every TTL/3 until it is released or the Lock ctx is done,
// so it expires only after its holder stops.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	logger core.Logger
}

var _ seating.Locker = (*Locker)(nil)

func NewLocker(client *redis.Client, ttl time.Duration, logger core.Logger) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{client: client, ttl: ttl, logger: logger}
}

// NewClient connects to the configured redis server.
func NewClient(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", conf.Addr)
	}
	return client, nil
}

func lockKey(classID string) string {
	return lockKeyPrefix + classID
}

// Lock polls until the classroom lock is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, classID string) (func(), error) {
	key := lockKey(classID)
	token := uuid.NewString()

	ticker := time.NewTicker(retryDelay)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "acquiring lock %s", key)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	done := make(chan struct{})
	go l.keepAlive(ctx, key, token, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			// the caller's ctx may be done by now
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			n, err := unlockScript.Run(ctx, l.client, []string{key}, token).Int()
			switch {
			case err != nil:
				l.logger.Error("releasing classroom lock", errors.Wrap(err, key))
			case n == 0:
				l.logger.Warn("classroom lock expired before release", "key", key)
			}
		})
	}, nil
}

func (l *Locker) keepAlive(ctx context.Context, key, token string, done <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := refreshScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
			if err != nil {
				if ctx.Err() == nil {
					l.logger.Warn("extending classroom lock", errors.Wrap(err, key))
				}
				continue
			}
			if n == 0 {
				l.logger.Warn("classroom lock lost", "key", key)
				return
			}
		}
	}
}
