package object

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateKey rejects keys that cannot be stored safely: empty keys, keys
// with a leading slash, NUL bytes, or "." and ".." path segments.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: leading slash in %q", ErrInvalidKey, key)
	}
	if strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: NUL byte in key", ErrInvalidKey)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("%w: traversal segment in %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// KeyFromLocator extracts an object key from a locator.
//
// Accepted forms:
//
//	drive-uploads/a-1-2.pdf                                       bare key
//	https://bucket.s3.eu-west-1.amazonaws.com/drive-uploads/a.pdf  virtual-hosted URL
//	https://s3.eu-west-1.amazonaws.com/bucket/drive-uploads/a.pdf  path-style URL
//	memory://bucket/drive-uploads/a.pdf                           local gateways
//
// For URLs the key is the decoded path without its leading slash. When
// bucket is set and the host does not already name it, a leading
// "<bucket>/" path segment is treated as path-style addressing and dropped.
func KeyFromLocator(locator, bucket string) (string, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", fmt.Errorf("%w: empty locator", ErrInvalidKey)
	}

	if !strings.Contains(locator, "://") {
		key := strings.TrimPrefix(locator, "/")
		return key, ValidateKey(key)
	}

	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if bucket != "" && u.Host != bucket && !strings.HasPrefix(u.Host, bucket+".") {
		key = strings.TrimPrefix(key, bucket+"/")
	}

	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// KeyUnderBase extracts the key from a locator built as base + "/" +
// escaped key, which covers public URLs with a path of their own. ok is
// false when locator does not start with base.
func KeyUnderBase(locator, base string) (key string, ok bool, err error) {
	base = strings.TrimRight(base, "/")
	locator = strings.TrimSpace(locator)
	if base == "" || !strings.HasPrefix(locator, base+"/") {
		return "", false, nil
	}

	key, err = url.PathUnescape(strings.TrimPrefix(locator, base+"/"))
	if err != nil {
		return "", true, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if err := ValidateKey(key); err != nil {
		return "", true, err
	}
	return key, true, nil
}
