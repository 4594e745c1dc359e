package repository

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"
)

// Durable storage keys.
const (
	KeyRequests = "requests"
)

func SessionKey(sessionID string) string { return "user:" + sessionID }
func ThemeKey(sessionID string) string { return "theme:" + sessionID }
func NotificationsKey(identifier string) string { return "notifications:" + identifier }

// AnyVersion makes Put write unconditionally.
const AnyVersion int64 = -1

var (
	ErrNotFound        = errors.New("key not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrCorruptRecord   = errors.New("corrupt record")
)

type Record struct {
	Value   []byte
	Version int64
}

// Storage is a versioned key-value store. Put with expectedVersion 0 only creates
// a missing key; any other non-negative value must equal the stored version.
// Versions of a key never repeat, even across Delete and re-creation.
type Storage interface {
	Get(ctx context.Context, key string) (Record, error)
	Put(ctx context.Context, key string, value []byte, expectedVersion int64) (int64, error)
	Delete(ctx context.Context, key string) error
}

const (
	conflictAttempts = 5
	conflictDelay    = 10 * time.Millisecond
)

// RetryOnConflict reruns a read-modify-write while it loses version races.
func RetryOnConflict(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(conflictAttempts),
		retry.Delay(conflictDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrVersionConflict)
		}),
	)
}
