// Package object defines the object gateway contract: put, get, delete and
// list operations against remote object storage plus short-lived signed read
// links.
package object

import (
	"context"
	"iter"
	"time"
)

// ============================================================================
// Core Interface
// ============================================================================

// ObjectInfo describes one stored object as returned by a listing.
type ObjectInfo struct {
	// Key is the full object key within the bucket
	Key string

	// Size is the payload size in bytes
	Size int64

	// LastModified is when the object was last written
	LastModified time.Time
}

// Gateway is the capability interface over a single bucket or namespace.
//
// Failure model:
//   - ErrUnavailable for network, authentication or service failures
//   - ErrObjectNotFound from Get when the key is missing
//   - Delete of a missing key is a success
//
// The gateway never retries on its own. Retry policy belongs to callers.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type Gateway interface {
	// Put uploads data under key and returns a stable locator. Passing the
	// locator to KeyFromLocator yields key again.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Get downloads the object stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// ListAll lazily enumerates every object under the namespace.
	//
	// Pagination is handled internally; only one page is held in memory at
	// a time. The sequence stops at the first error, which is yielded once.
	// Objects written or removed during the listing may or may not appear.
	ListAll(ctx context.Context) iter.Seq2[ObjectInfo, error]

	// SignView issues a URL granting read access to key for ttl. It does
	// not check that the object exists and never mutates storage.
	SignView(ctx context.Context, key string, ttl time.Duration) (string, error)

	// KeyFromLocator recovers the object key from a locator previously
	// returned by Put (or stored by an earlier deployment).
	KeyFromLocator(locator string) (string, error)

	// Namespace is the key prefix ListAll is restricted to ("" = all).
	Namespace() string

	// Healthcheck verifies that the backing store is reachable.
	Healthcheck(ctx context.Context) error
}

// ============================================================================
// Optional Interfaces
// ============================================================================

// BatchDeleter is implemented by gateways that can remove many objects in
// one round trip.
//
// Returns a map of keys that failed (nil values never appear) and an error
// only if the whole operation could not be attempted.
type BatchDeleter interface {
	DeleteBatch(ctx context.Context, keys []string) (map[string]error, error)
}

// LinkVerifier is implemented by gateways whose signed links are served by
// this process rather than by the storage provider.
type LinkVerifier interface {
	// VerifyView checks a signed URL (or just its token) at time now and
	// returns the object key it grants access to.
	//
	// Returns ErrLinkExpired after the TTL elapsed, ErrLinkInvalid for any
	// other signature or format problem.
	VerifyView(token string, now time.Time) (string, error)
}
