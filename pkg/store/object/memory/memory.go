// Package memory implements an in-process object gateway.
//
// It is intended for tests and local development. Signed view links are
// self-hosted JWT links that the HTTP layer can verify and serve.
package memory

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/clouddrive/pkg/store/object"
)

// Op names a gateway operation for fault injection.
type Op string

const (
	OpPut    Op = "put"
	OpGet    Op = "get"
	OpExists Op = "exists"
	OpDelete Op = "delete"
	OpList   Op = "list"
	OpSign   Op = "sign"
)

type storedObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// Config configures a MemoryGateway.
type Config struct {
	// Bucket names the namespace in locators (default "memory")
	Bucket string `mapstructure:"bucket"`

	// Prefix restricts ListAll to keys under it
	Prefix string `mapstructure:"prefix"`

	// BaseURL is prepended to signed links (default "memory://<bucket>")
	BaseURL string `mapstructure:"base_url"`

	// SigningKey is the HMAC secret for view links (random when empty)
	SigningKey string `mapstructure:"signing_key"`
}

// MemoryGateway stores objects in a map.
//
// Thread Safety:
// All operations are protected by a RWMutex. Returned byte slices are copies.
type MemoryGateway struct {
	mu      sync.RWMutex
	objects map[string]*storedObject
	faults  map[Op]error
	now     func() time.Time

	bucket string
	prefix string
	signer *object.LinkSigner
}

// New creates an empty gateway.
func New(cfg Config) (*MemoryGateway, error) {
	if cfg.Bucket == "" {
		cfg.Bucket = "memory"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "memory://" + cfg.Bucket
	}

	signer, err := object.NewLinkSigner(cfg.SigningKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	return &MemoryGateway{
		objects: make(map[string]*storedObject),
		faults:  make(map[Op]error),
		now:     time.Now,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		signer:  signer,
	}, nil
}

// MustNew is New for tests.
func MustNew(cfg Config) *MemoryGateway {
	g, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return g
}

// SetClock replaces the clock used for timestamps and link expiry.
func (g *MemoryGateway) SetClock(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
}

// InjectFault makes every subsequent call of op fail with err until
// ClearFaults is called. err is wrapped with object.ErrUnavailable unless it
// already is one.
func (g *MemoryGateway) InjectFault(op Op, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.faults[op] = err
}

// ClearFaults removes all injected faults.
func (g *MemoryGateway) ClearFaults() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.faults = make(map[Op]error)
}

// Len returns the number of stored objects.
func (g *MemoryGateway) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.objects)
}

// fault must be called with g.mu held.
func (g *MemoryGateway) fault(op Op) error {
	err, ok := g.faults[op]
	if !ok {
		return nil
	}
	return fmt.Errorf("memory %s: %w: %v", op, object.ErrUnavailable, err)
}

func (g *MemoryGateway) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := object.ValidateKey(key); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.fault(OpPut); err != nil {
		return "", err
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	g.objects[key] = &storedObject{data: buf, contentType: contentType, lastModified: g.now()}

	return "memory://" + g.bucket + "/" + key, nil
}

func (g *MemoryGateway) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.fault(OpGet); err != nil {
		return nil, err
	}

	obj, ok := g.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, object.ErrObjectNotFound)
	}
	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	return buf, nil
}

// ContentType returns the content type stored with key.
func (g *MemoryGateway) ContentType(key string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	obj, ok := g.objects[key]
	if !ok {
		return "", false
	}
	return obj.contentType, true
}

func (g *MemoryGateway) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.fault(OpExists); err != nil {
		return false, err
	}
	_, ok := g.objects[key]
	return ok, nil
}

func (g *MemoryGateway) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.fault(OpDelete); err != nil {
		return err
	}
	delete(g.objects, key)
	return nil
}

// DeleteBatch removes several keys under a single lock acquisition.
func (g *MemoryGateway) DeleteBatch(ctx context.Context, keys []string) (map[string]error, error) {
	failures := make(map[string]error)
	if err := ctx.Err(); err != nil {
		return failures, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.fault(OpDelete); err != nil {
		for _, k := range keys {
			failures[k] = err
		}
		return failures, nil
	}
	for _, k := range keys {
		delete(g.objects, k)
	}
	return failures, nil
}

// ListAll iterates over a sorted snapshot of the keys under the prefix.
func (g *MemoryGateway) ListAll(ctx context.Context) iter.Seq2[object.ObjectInfo, error] {
	return func(yield func(object.ObjectInfo, error) bool) {
		g.mu.RLock()
		if err := g.fault(OpList); err != nil {
			g.mu.RUnlock()
			yield(object.ObjectInfo{}, err)
			return
		}
		infos := make([]object.ObjectInfo, 0, len(g.objects))
		for k, obj := range g.objects {
			if !strings.HasPrefix(k, g.prefix) {
				continue
			}
			infos = append(infos, object.ObjectInfo{Key: k, Size: int64(len(obj.data)), LastModified: obj.lastModified})
		}
		g.mu.RUnlock()

		sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })

		for _, info := range infos {
			if err := ctx.Err(); err != nil {
				yield(object.ObjectInfo{}, err)
				return
			}
			if !yield(info, nil) {
				return
			}
		}
	}
}

func (g *MemoryGateway) SignView(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.fault(OpSign); err != nil {
		return "", err
	}
	return g.signer.Sign(key, ttl, g.now())
}

// VerifyView implements object.LinkVerifier.
func (g *MemoryGateway) VerifyView(token string, now time.Time) (string, error) {
	return g.signer.Verify(token, now)
}

func (g *MemoryGateway) KeyFromLocator(locator string) (string, error) {
	return object.KeyFromLocator(locator, g.bucket)
}

func (g *MemoryGateway) Namespace() string {
	return g.prefix
}

// Healthcheck fails while a list fault is injected.
func (g *MemoryGateway) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.fault(OpList)
}
