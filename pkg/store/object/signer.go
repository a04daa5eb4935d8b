package object

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// LinkSigner issues and verifies self-hosted signed view links.
//
// A link is "<baseURL>/<escaped key>?token=<jwt>". The HS256 token carries
// the key as subject and the expiry as exp; every call mints a new token id,
// so concurrent callers receive independent grants.
type LinkSigner struct {
	secret  []byte
	baseURL string
}

// NewLinkSigner creates a signer. An empty secret generates a random one,
// which means links do not survive a restart.
func NewLinkSigner(secret, baseURL string) (*LinkSigner, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}
	return &LinkSigner{secret: key, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Sign returns a link for key valid from now until now+ttl.
func (s *LinkSigner) Sign(key string, ttl time.Duration, now time.Time) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", fmt.Errorf("link ttl must be positive, got %s", ttl)
	}

	claims := jwt.RegisteredClaims{
		Subject:   key,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign view link: %w", err)
	}

	return s.baseURL + "/" + escapeKey(key) + "?token=" + url.QueryEscape(token), nil
}

// Verify accepts either a full link or a bare token and returns the key it
// grants access to.
func (s *LinkSigner) Verify(link string, now time.Time) (string, error) {
	token := link
	pathKey := ""
	if strings.Contains(link, "?") {
		u, err := url.Parse(link)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrLinkInvalid, err)
		}
		token = u.Query().Get("token")
		pathKey = strings.TrimPrefix(strings.TrimPrefix(u.Path, s.pathPrefix()), "/")
	}
	if token == "" {
		return "", fmt.Errorf("%w: missing token", ErrLinkInvalid)
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrLinkExpired
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrLinkInvalid, err)
	}

	if pathKey != "" && pathKey != claims.Subject {
		return "", fmt.Errorf("%w: token does not match object", ErrLinkInvalid)
	}
	return claims.Subject, nil
}

func (s *LinkSigner) pathPrefix() string {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return ""
	}
	return u.Path
}

func escapeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}
