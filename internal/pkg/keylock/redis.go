package keylock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still carries our token, so an
// expired lock taken over by another holder is never released by us.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// renewScript pushes the expiry out while we still own the lock.
const renewScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("pexpire", KEYS[1], ARGV[2]) else return 0 end`

type RedisOptions struct {
	Prefix  string        // key prefix, default "lock:"
	TTL     time.Duration // lock expiry, default 10s
	Wait    time.Duration // max time to wait for the lock, default 5s
	Retry   time.Duration // poll interval while waiting, default 50ms
	Renew   time.Duration // expiry extension interval while held, default TTL/3
	TokenFn func() string // lock owner token, default random UUID
}

// RedisLocker takes a SET NX PX lock per key so transitions for one employee
// are serialized across API instances.
type RedisLocker struct {
	rdb  redis.Cmdable
	opts RedisOptions
}

func NewRedisLocker(rdb redis.Cmdable, opts RedisOptions) *RedisLocker {
	if opts.Prefix == "" {
		opts.Prefix = "lock:"
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Second
	}
	if opts.Wait <= 0 {
		opts.Wait = 5 * time.Second
	}
	if opts.Retry <= 0 {
		opts.Retry = 50 * time.Millisecond
	}
	if opts.Renew <= 0 || opts.Renew >= opts.TTL {
		opts.Renew = opts.TTL / 3
	}
	if opts.TokenFn == nil {
		opts.TokenFn = uuid.NewString
	}
	return &RedisLocker{rdb: rdb, opts: opts}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.opts.Prefix + key
	token := l.opts.TokenFn()

	waitCtx, cancel := context.WithTimeout(ctx, l.opts.Wait)
	defer cancel()

	for {
		ok, err := l.rdb.SetNX(waitCtx, lockKey, token, l.opts.TTL).Result()
		if err != nil {
			if waitCtx.Err() != nil {
				return nil, ErrLockTimeout
			}
			return nil, fmt.Errorf("acquire lock %s: %w", lockKey, err)
		}
		if ok {
			break
		}

		select {
		case <-waitCtx.Done():
			return nil, ErrLockTimeout
		case <-time.After(l.opts.Retry):
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(lockKey, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			// Release with a fresh context: the request context may already be done.
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := l.rdb.Eval(releaseCtx, releaseScript, []string{lockKey}, token).Err(); err != nil {
				slog.Warn("failed to release lock", "key", lockKey, "error", err)
			}
		})
	}, nil
}

// keepAlive extends the lock every Renew until stop is closed, so long
// holders such as a year-long shift generation never outlive the TTL.
func (l *RedisLocker) keepAlive(lockKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.opts.Renew)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.opts.Renew)
			n, err := l.rdb.Eval(ctx, renewScript, []string{lockKey}, token, l.opts.TTL.Milliseconds()).Int()
			cancel()
			if err != nil {
				slog.Warn("failed to extend lock", "key", lockKey, "error", err)
				continue
			}
			if n == 0 {
				slog.Warn("lock expired while held", "key", lockKey)
				return
			}
		}
	}
}
