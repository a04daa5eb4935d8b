// Package drive implements the user-facing drive operations on top of an
// item repository and an object gateway.
//
// The two stores fail independently and nothing here is transactional.
// Operations order their writes so that a partial failure leaks storage
// rather than leaving visible tree entries that point at nothing:
//
//   - Upload writes the object first and the record second. A record
//     failure leaves an orphaned object behind.
//   - DeleteItem deletes the object first (best effort) and the record
//     unconditionally. An object failure is reported in the result.
//
// Drift in the other direction is repaired by pkg/reconcile.
package drive

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/clouddrive/pkg/objectkey"
	"github.com/marmos91/clouddrive/pkg/store/item"
	"github.com/marmos91/clouddrive/pkg/store/object"
)

const (
	// DefaultViewLinkTTL is the lifetime of a signed view link.
	DefaultViewLinkTTL = 15 * time.Minute

	// DefaultOperationTimeout bounds each store call.
	DefaultOperationTimeout = 30 * time.Second
)

// DanglingPolicy controls how items whose parent folder is gone are shown.
type DanglingPolicy string

const (
	// DanglingHide lists by plain parent equality; dangling items are not
	// reachable from the root.
	DanglingHide DanglingPolicy = "hide"

	// DanglingRoot additionally lists dangling items at the root, flagged.
	DanglingRoot DanglingPolicy = "root"

	// DanglingPrune lists like hide; the reconciler deletes dangling items.
	DanglingPrune DanglingPolicy = "prune"
)

// ParseDanglingPolicy parses a policy name. Empty selects DanglingHide.
func ParseDanglingPolicy(s string) (DanglingPolicy, error) {
	switch p := DanglingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DanglingHide, nil
	case DanglingHide, DanglingRoot, DanglingPrune:
		return p, nil
	default:
		return "", fmt.Errorf("unknown dangling parent policy %q (want hide, root or prune)", s)
	}
}

// Config configures a Service.
type Config struct {
	// KeyPrefix is the object key namespace for uploads
	KeyPrefix string

	// ViewLinkTTL is the lifetime of signed view links (default 15m)
	ViewLinkTTL time.Duration

	// OperationTimeout bounds every repository and gateway call (default 30s,
	// negative disables)
	OperationTimeout time.Duration

	// DanglingParents selects the listing policy for dangling items
	DanglingParents DanglingPolicy

	// Metrics receives operation observations (optional)
	Metrics Metrics
}

func (c *Config) applyDefaults() {
	if c.ViewLinkTTL <= 0 {
		c.ViewLinkTTL = DefaultViewLinkTTL
	}
	if c.OperationTimeout == 0 {
		c.OperationTimeout = DefaultOperationTimeout
	}
	if c.DanglingParents == "" {
		c.DanglingParents = DanglingHide
	}
	if c.Metrics == nil {
		c.Metrics = noopMetrics{}
	}
}

// Service coordinates the item repository and the object gateway.
//
// The repository and gateway are shared, process-wide resources passed in by
// the caller. Service holds no locks across store calls; concurrent requests
// are independent.
type Service struct {
	items   item.Repository
	objects object.Gateway
	keys    *objectkey.Deriver
	cfg     Config

	mu  sync.RWMutex
	now func() time.Time
}

// New creates a drive service.
func New(items item.Repository, objects object.Gateway, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{
		items:   items,
		objects: objects,
		keys:    objectkey.NewDeriver(cfg.KeyPrefix),
		cfg:     cfg,
		now:     time.Now,
	}
}

// SetClock replaces the time source used for link expiry and key
// derivation. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	s.keys.SetClock(now)
}

// Keys returns the key deriver used for uploads.
func (s *Service) Keys() *objectkey.Deriver {
	return s.keys
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

func (s *Service) clock() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

// opContext derives the context for one store call.
func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OperationTimeout < 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.OperationTimeout)
}

// observe records the outcome of a public operation.
func (s *Service) observe(op string, start time.Time, err error) {
	s.cfg.Metrics.ObserveOperation(op, time.Since(start), err)
}

// getItem fetches a record under the operation timeout.
func (s *Service) getItem(ctx context.Context, id string) (*item.Item, error) {
	if id == "" {
		return nil, item.NewInvalidArgumentError("item id is empty", "")
	}
	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	return s.items.Get(opCtx, id)
}

// objectKeyOf returns the key a file record points at, deriving it from
// the locator when the record predates stored keys.
func (s *Service) objectKeyOf(it *item.Item) (string, error) {
	if it.ObjectKey != "" {
		return it.ObjectKey, nil
	}
	return s.objects.KeyFromLocator(it.Locator)
}
