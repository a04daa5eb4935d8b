// Package fs implements an object gateway on a local directory.
//
// Each object is a flat file named by the SHA-256 of its key, so no key can
// escape the base directory and names stay within filesystem limits however
// long the key is. A "<name>.key" sidecar holds the key for listing. Writes
// go to a temporary file that is renamed into place, which keeps readers
// from observing partial objects.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/clouddrive/pkg/store/object"
)

const (
	tempPrefix = ".tmp-"
	keySuffix  = ".key"
)

// Config configures an FSGateway.
type Config struct {
	// Path is the base directory (created if missing)
	Path string `mapstructure:"path" validate:"required"`

	// Prefix restricts ListAll to keys under it
	Prefix string `mapstructure:"prefix"`

	// BaseURL is where the HTTP layer serves signed links,
	// e.g. http://localhost:8080/objects
	BaseURL string `mapstructure:"base_url"`

	// SigningKey is the HMAC secret for view links (random when empty)
	SigningKey string `mapstructure:"signing_key"`
}

// FSGateway stores each object as one file under a base directory.
type FSGateway struct {
	basePath string
	prefix   string
	signer   *object.LinkSigner
	now      func() time.Time
}

// New creates the base directory if needed and returns a gateway.
func New(ctx context.Context, cfg Config) (*FSGateway, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, errors.New("filesystem gateway path is required")
	}
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080/objects"
	}

	signer, err := object.NewLinkSigner(cfg.SigningKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	return &FSGateway{
		basePath: cfg.Path,
		prefix:   cfg.Prefix,
		signer:   signer,
		now:      time.Now,
	}, nil
}

func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (g *FSGateway) getFilePath(key string) string {
	return filepath.Join(g.basePath, fileName(key))
}

// writeFile replaces path atomically through a temporary file.
func (g *FSGateway) writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(g.basePath, tempPrefix+"*")
	if err != nil {
		return wrapIOError("create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return wrapIOError("write object", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return wrapIOError("close object", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return wrapIOError("commit object", err)
	}
	return nil
}

// wrapIOError maps filesystem failures that are not about a specific key.
func wrapIOError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, object.ErrUnavailable, err)
}

func (g *FSGateway) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := object.ValidateKey(key); err != nil {
		return "", err
	}

	// The sidecar goes first so a listed object always has its key.
	path := g.getFilePath(key)
	if err := g.writeFile(path+keySuffix, []byte(key)); err != nil {
		return "", err
	}
	if err := g.writeFile(path, data); err != nil {
		return "", err
	}

	return key, nil
}

func (g *FSGateway) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(g.getFilePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object %s: %w", key, object.ErrObjectNotFound)
		}
		return nil, wrapIOError("read object", err)
	}
	return data, nil
}

// Open streams an object instead of loading it whole.
func (g *FSGateway) Open(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(g.getFilePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object %s: %w", key, object.ErrObjectNotFound)
		}
		return nil, wrapIOError("open object", err)
	}
	return f, nil
}

func (g *FSGateway) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(g.getFilePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, wrapIOError("stat object", err)
	}
	return true, nil
}

func (g *FSGateway) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := g.getFilePath(key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return wrapIOError("delete object", err)
	}
	if err := os.Remove(path + keySuffix); err != nil && !os.IsNotExist(err) {
		return wrapIOError("delete object key", err)
	}
	return nil
}

// ListAll reads the directory in batches of 256 entries.
func (g *FSGateway) ListAll(ctx context.Context) iter.Seq2[object.ObjectInfo, error] {
	return func(yield func(object.ObjectInfo, error) bool) {
		dir, err := os.Open(g.basePath)
		if err != nil {
			yield(object.ObjectInfo{}, wrapIOError("open base directory", err))
			return
		}
		defer dir.Close()

		for {
			if err := ctx.Err(); err != nil {
				yield(object.ObjectInfo{}, err)
				return
			}

			entries, err := dir.ReadDir(256)
			for _, entry := range entries {
				info, ok := g.objectInfo(entry)
				if !ok {
					continue
				}
				if !yield(info, nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(object.ObjectInfo{}, wrapIOError("read base directory", err))
				return
			}
		}
	}
}

func (g *FSGateway) objectInfo(entry iofs.DirEntry) (object.ObjectInfo, bool) {
	name := entry.Name()
	if entry.IsDir() || len(name) != hex.EncodedLen(sha256.Size) {
		return object.ObjectInfo{}, false
	}
	raw, err := os.ReadFile(filepath.Join(g.basePath, name+keySuffix))
	if err != nil {
		return object.ObjectInfo{}, false
	}
	key := string(raw)
	if fileName(key) != name || !strings.HasPrefix(key, g.prefix) {
		return object.ObjectInfo{}, false
	}

	fi, err := entry.Info()
	if err != nil {
		// removed between ReadDir and Info
		return object.ObjectInfo{}, false
	}
	return object.ObjectInfo{Key: key, Size: fi.Size(), LastModified: fi.ModTime()}, true
}

func (g *FSGateway) SignView(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.signer.Sign(key, ttl, g.now())
}

// VerifyView implements object.LinkVerifier.
func (g *FSGateway) VerifyView(token string, now time.Time) (string, error) {
	return g.signer.Verify(token, now)
}

func (g *FSGateway) KeyFromLocator(locator string) (string, error) {
	return object.KeyFromLocator(locator, "")
}

func (g *FSGateway) Namespace() string {
	return g.prefix
}

func (g *FSGateway) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(g.basePath); err != nil {
		return wrapIOError("stat base directory", err)
	}
	return nil
}
